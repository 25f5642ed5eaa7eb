// Package stage owns the layer registry and per-layer tweened transform
// state of one video channel. Once per output tick it collects one draw
// frame per registered layer, applying the current interpolated
// transform, and it accepts concurrent asynchronous control commands
// (load/play/stop/transform/swap) that mutate the registries between
// ticks. All state is confined to the stage's serialized executor.
package stage

import (
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/tanema/gween/ease"
	"golang.org/x/sync/errgroup"

	"github.com/zsiec/fresnel/internal/executor"
	"github.com/zsiec/fresnel/media"
)

// fieldGeometryEpsilon is the vertical fill deviation above which an
// interlaced render is no longer field-aligned and the producer must
// deliver a deinterlace-safe frame.
const fieldGeometryEpsilon = 1e-4

// TransformFunc maps a layer's current transform to its desired
// destination. It must be pure: the stage calls it on its own executor.
type TransformFunc func(media.FrameTransform) media.FrameTransform

// TransformUpdate is one entry of a batched ApplyTransforms call.
type TransformUpdate struct {
	Index    int
	Update   TransformFunc
	Duration int
	Ease     ease.TweenFunc
}

var nextStageID atomic.Uint64

// Stage is the layer registry and frame collector of one channel. Safe
// for concurrent use; every method runs on the stage's executor.
type Stage struct {
	// id fixes a total order over stage instances so cross-stage swaps
	// always nest their blocking invokes in the same direction.
	id  uint64
	log *slog.Logger

	exec *executor.Executor

	// Owned by the executor goroutine.
	layers     map[int]*Layer
	transforms map[int]*TweenedTransform
}

// New creates a stage with an empty layer registry. The name appears in
// log records.
func New(name string) *Stage {
	return &Stage{
		id:         nextStageID.Add(1),
		log:        slog.With("component", "stage", "name", name),
		exec:       executor.New("stage/" + name),
		layers:     make(map[int]*Layer),
		transforms: make(map[int]*TweenedTransform),
	}
}

// Close shuts down the stage's executor. Queued-but-not-started control
// tasks are discarded; an in-flight tick runs to completion.
func (s *Stage) Close() {
	s.exec.Close()
}

// layer returns the registry entry at index, creating it if absent.
// Must run on the executor.
func (s *Stage) layer(index int) *Layer {
	l, ok := s.layers[index]
	if !ok {
		l = newLayer(s.log.With("layer", index))
		s.layers[index] = l
	}
	return l
}

// transform returns the tween registry entry at index, creating an
// identity entry if absent. Must run on the executor.
func (s *Stage) transform(index int) *TweenedTransform {
	t, ok := s.transforms[index]
	if !ok {
		t = identityTween()
		s.transforms[index] = t
	}
	return t
}

// Tick produces one draw frame per registered layer for the given output
// format and returns the complete frame set, keyed by layer index. It
// blocks until the queued tick task has run. On an internal failure the
// layer registry is discarded and whatever was collected so far is
// returned; the render loop itself never observes an error.
func (s *Stage) Tick(format media.VideoFormat) map[int]media.DrawFrame {
	frames, _ := executor.Invoke(s.exec, executor.Normal, func() (map[int]media.DrawFrame, error) {
		return s.tick(format), nil
	})
	return frames
}

func (s *Stage) tick(format media.VideoFormat) map[int]media.DrawFrame {
	frames := make(map[int]media.DrawFrame, len(s.layers))
	for index := range s.layers {
		frames[index] = media.EmptyDraw()
		// Materialize the tween entry here, on the single writer, so
		// the parallel fan-out below only touches existing entries.
		s.transform(index)
	}

	var mu sync.Mutex
	var g errgroup.Group
	for index, layer := range s.layers {
		index, layer := index, layer
		g.Go(func() error {
			frame, err := s.renderLayer(layer, s.transforms[index], format)
			if err != nil {
				return err
			}
			mu.Lock()
			frames[index] = frame
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// A torn composite is worse than an empty one: drop every
		// layer and let the caller reload.
		s.layers = make(map[int]*Layer)
		s.log.Warn("tick failed, clearing layers", "error", err)
	}
	return frames
}

// renderLayer runs one layer's share of a tick: advance the transform
// once per field, derive render flags, pull the frame, and weave fields
// for interlaced formats. It touches no other layer's state.
func (s *Stage) renderLayer(layer *Layer, tween *TweenedTransform, format media.VideoFormat) (media.DrawFrame, error) {
	transform := tween.FetchAndTick(1)

	var flags media.ReceiveFlags
	if format.FieldMode != media.Progressive {
		if math.Abs(transform.FillScale[1]-1.0) > fieldGeometryEpsilon ||
			math.Abs(transform.FillTranslation[1]) > fieldGeometryEpsilon {
			flags |= media.FlagDeinterlace
		}
	}
	if transform.IsKey {
		flags |= media.FlagAlphaOnly
	}

	frame, err := layer.Receive(flags)
	if err != nil {
		return media.DrawFrame{}, err
	}
	if frame == nil {
		// Empty layer still consumes its field ticks below so transform
		// time advances uniformly across the stage.
		if format.FieldMode != media.Progressive {
			tween.FetchAndTick(1)
		}
		return media.EmptyDraw(), nil
	}

	first := media.NewDrawFrame(frame, transform)
	if format.FieldMode == media.Progressive {
		return first, nil
	}
	second := media.NewDrawFrame(frame, tween.FetchAndTick(1))
	return media.Interlace(first, second, format.FieldMode), nil
}

// ApplyTransform replaces the transform registry entry at index with a
// fresh tween from the entry's current value to update(current value),
// interpolated over duration ticks with the given curve. Asynchronous
// and atomic with respect to concurrent ticks.
func (s *Stage) ApplyTransform(index int, update TransformFunc, duration int, fn ease.TweenFunc) {
	s.exec.Begin(executor.High, func() {
		s.applyTransform(index, update, duration, fn)
	})
}

// ApplyTransforms applies a batch of transform updates inside one queue
// slot, so a tick observes either none or all of them.
func (s *Stage) ApplyTransforms(updates []TransformUpdate) {
	s.exec.Begin(executor.High, func() {
		for _, u := range updates {
			s.applyTransform(u.Index, u.Update, u.Duration, u.Ease)
		}
	})
}

func (s *Stage) applyTransform(index int, update TransformFunc, duration int, fn ease.TweenFunc) {
	src := s.transform(index).Fetch()
	dst := update(src)
	s.transforms[index] = NewTweened(src, dst, duration, fn)
}

// ClearTransform removes the interpolation state at index, reverting the
// layer to the identity transform on its next tick.
func (s *Stage) ClearTransform(index int) {
	s.exec.Begin(executor.High, func() {
		delete(s.transforms, index)
	})
}

// ClearAllTransforms removes all interpolation state.
func (s *Stage) ClearAllTransforms() {
	s.exec.Begin(executor.High, func() {
		s.transforms = make(map[int]*TweenedTransform)
	})
}

// Load queues producer on the layer at index, creating the layer if
// absent. See Layer.Load for preview and auto-play semantics.
func (s *Stage) Load(index int, producer media.Producer, preview bool, autoPlayDelta int) {
	s.exec.Begin(executor.High, func() {
		s.layer(index).Load(producer, preview, autoPlayDelta)
	})
}

// Pause freezes the layer at index on its last frame.
func (s *Stage) Pause(index int) {
	s.exec.Begin(executor.High, func() {
		s.layer(index).Pause()
	})
}

// Play starts or resumes the layer at index.
func (s *Stage) Play(index int) {
	s.exec.Begin(executor.High, func() {
		s.layer(index).Play()
	})
}

// Stop discards the foreground producer of the layer at index.
func (s *Stage) Stop(index int) {
	s.exec.Begin(executor.High, func() {
		s.layer(index).Stop()
	})
}

// Clear erases the layer at index. Its transform registry entry is left
// in place.
func (s *Stage) Clear(index int) {
	s.exec.Begin(executor.High, func() {
		delete(s.layers, index)
	})
}

// ClearAll erases every layer. Transform registry entries deliberately
// survive; remove them with ClearAllTransforms.
func (s *Stage) ClearAll() {
	s.exec.Begin(executor.High, func() {
		s.layers = make(map[int]*Layer)
	})
}

// SwapLayers exchanges the entire layer registry with other, atomically
// with respect to both stages' ticks. No-op when other is this stage.
// Transform registries stay with their stages.
func (s *Stage) SwapLayers(other *Stage) {
	if other == nil || other == s {
		return
	}
	s.crossInvoke(other, func() {
		s.layers, other.layers = other.layers, s.layers
	})
}

// SwapLayer exchanges the layer slots at index and otherIndex within
// this stage. The transform registry entries at both indices are left in
// place.
func (s *Stage) SwapLayer(index, otherIndex int) {
	s.exec.Begin(executor.High, func() {
		a, b := s.layer(index), s.layer(otherIndex)
		s.layers[index], s.layers[otherIndex] = b, a
	})
}

// SwapLayerWith exchanges the layer slot at index with other's slot at
// otherIndex, atomically with respect to both stages' ticks.
func (s *Stage) SwapLayerWith(index, otherIndex int, other *Stage) {
	if other == nil || other == s {
		s.SwapLayer(index, otherIndex)
		return
	}
	s.crossInvoke(other, func() {
		a, b := s.layer(index), other.layer(otherIndex)
		s.layers[index], other.layers[otherIndex] = b, a
	})
}

// crossInvoke runs fn with both stages' executors held. The lower-id
// stage always enqueues the outer task and blocks into the higher-id
// stage's queue, so two stages swapping against each other concurrently
// can never deadlock.
func (s *Stage) crossInvoke(other *Stage, fn func()) {
	first, second := s, other
	if second.id < first.id {
		first, second = second, first
	}
	first.exec.Begin(executor.High, func() {
		_, _ = executor.Invoke(second.exec, executor.High, func() (struct{}, error) {
			fn()
			return struct{}{}, nil
		})
	})
}

// Foreground returns the active producer of the layer at index, or nil.
// Blocks until the queued query has run.
func (s *Stage) Foreground(index int) (media.Producer, error) {
	return executor.Invoke(s.exec, executor.High, func() (media.Producer, error) {
		return s.layer(index).Foreground(), nil
	})
}

// Background returns the queued producer of the layer at index, or nil.
func (s *Stage) Background(index int) (media.Producer, error) {
	return executor.Invoke(s.exec, executor.High, func() (media.Producer, error) {
		return s.layer(index).Background(), nil
	})
}

// StageSnapshot is a point-in-time view of every registered layer,
// ordered by index.
type StageSnapshot struct {
	Layers []LayerSnapshot `json:"layers"`
}

// Info returns a snapshot of all layers for monitoring callers.
func (s *Stage) Info() (StageSnapshot, error) {
	return executor.Invoke(s.exec, executor.High, func() (StageSnapshot, error) {
		snap := StageSnapshot{Layers: make([]LayerSnapshot, 0, len(s.layers))}
		for _, index := range sortedIndices(s.layers) {
			snap.Layers = append(snap.Layers, s.layers[index].snapshot(index))
		}
		return snap, nil
	})
}

// LayerInfo returns a snapshot of the layer at index, creating the layer
// if absent.
func (s *Stage) LayerInfo(index int) (LayerSnapshot, error) {
	return executor.Invoke(s.exec, executor.High, func() (LayerSnapshot, error) {
		return s.layer(index).snapshot(index), nil
	})
}

func sortedIndices(layers map[int]*Layer) []int {
	indices := make([]int, 0, len(layers))
	for index := range layers {
		indices = append(indices, index)
	}
	slices.Sort(indices)
	return indices
}
