// Package mixer reduces the stage's per-tick frame set into one
// immutable output frame, compositing images and mixing audio through
// pluggable collaborators. Like the stage, a mixer serializes all of its
// work on one executor, so a master-volume change can never interleave
// with the mixing of an in-flight frame.
package mixer

import (
	"log/slog"
	"slices"

	"github.com/zsiec/fresnel/internal/executor"
	"github.com/zsiec/fresnel/media"
)

// Mixer combines one tick's draw frames into a deliverable output frame.
// Safe for concurrent use; every method runs on the mixer's executor.
type Mixer struct {
	log  *slog.Logger
	exec *executor.Executor

	// Owned by the executor goroutine.
	audio *AudioMixer
	image ImageMixer
}

// New creates a mixer using the given image collaborator; nil selects
// the software CPUImageMixer.
func New(name string, image ImageMixer) *Mixer {
	if image == nil {
		image = NewCPUImageMixer()
	}
	return &Mixer{
		log:   slog.With("component", "mixer", "name", name),
		exec:  executor.New("mixer/" + name),
		audio: NewAudioMixer(),
		image: image,
	}
}

// Close shuts down the mixer's executor.
func (m *Mixer) Close() {
	m.exec.Close()
}

// Combine reduces the frame set to one output frame for the given
// format, visiting layers in ascending index order so image compositing
// is deterministic. Any failure is logged and substituted with the empty
// output frame; the render loop never observes an error.
func (m *Mixer) Combine(frames map[int]media.DrawFrame, format media.VideoFormat) media.OutputFrame {
	frame, err := executor.Invoke(m.exec, executor.Normal, func() (media.OutputFrame, error) {
		return m.combine(frames, format)
	})
	if err != nil {
		m.log.Warn("combine failed, substituting empty frame", "error", err)
		return media.EmptyOutputFrame
	}
	return frame
}

func (m *Mixer) combine(frames map[int]media.DrawFrame, format media.VideoFormat) (media.OutputFrame, error) {
	// The display aspect derived from the square-pixel geometry is
	// threaded into the image collaborator explicitly, scoped to this
	// call.
	aspect := format.AspectRatio()

	indices := make([]int, 0, len(frames))
	for index := range frames {
		indices = append(indices, index)
	}
	slices.Sort(indices)

	for _, index := range indices {
		frame := frames[index]
		frame.Accept(m.audio)
		frame.Transform.LayerDepth = 1
		frame.Accept(m.image)
	}

	image, err := m.image.Finalize(format, aspect)
	if err != nil {
		m.audio.Finalize(format) // keep the accumulator frame-aligned
		return media.OutputFrame{}, err
	}
	audio := m.audio.Finalize(format)

	desc := media.NewPixelFormatDesc(media.PixelFormatBGRA).AddPlane(format.Width, format.Height, 4)
	return media.NewOutputFrame(image, audio, m, desc), nil
}

// SetMasterVolume sets the gain applied to every mixed frame, serialized
// with mixing so a change never applies to half a frame.
func (m *Mixer) SetMasterVolume(volume float64) {
	m.exec.Begin(executor.High, func() {
		m.audio.SetMasterVolume(volume)
	})
}

// MasterVolume returns the current master gain.
func (m *Mixer) MasterVolume() (float64, error) {
	return executor.Invoke(m.exec, executor.High, func() (float64, error) {
		return m.audio.MasterVolume(), nil
	})
}

// MixerSnapshot is the mixer's monitoring payload. It carries no fields
// yet; the hook exists for parity with the stage's Info.
type MixerSnapshot struct{}

// Info returns an empty snapshot.
func (m *Mixer) Info() (MixerSnapshot, error) {
	return MixerSnapshot{}, nil
}
