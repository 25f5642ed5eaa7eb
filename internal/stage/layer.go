package stage

import (
	"fmt"
	"log/slog"

	"github.com/zsiec/fresnel/media"
)

// Layer is one compositing slot: the active (foreground) producer, an
// optionally queued (background) producer, and play/pause state. Layers
// are owned exclusively by a stage's registry and only ever touched from
// that stage's executor, so they carry no locking of their own.
type Layer struct {
	log *slog.Logger

	foreground media.Producer
	background media.Producer

	paused        bool
	autoPlayDelta int // -1 disables auto-play
	frameNumber   int
	lastFrame     media.Frame
}

func newLayer(log *slog.Logger) *Layer {
	return &Layer{log: log, autoPlayDelta: -1}
}

// Load queues producer as the layer's background. With preview, the
// producer is promoted immediately but held paused on its first frame.
// autoPlayDelta >= 0 arms automatic promotion when the foreground
// reports it is within that many frames of its end.
func (l *Layer) Load(producer media.Producer, preview bool, autoPlayDelta int) {
	l.background = producer
	l.autoPlayDelta = autoPlayDelta
	if preview {
		l.Play()
		if frame, err := l.foreground.Receive(0); err == nil && frame != nil {
			l.lastFrame = frame
			l.frameNumber++
		}
		l.paused = true
	}
}

// Play promotes the queued background producer to the foreground, if one
// is queued, and resumes playback.
func (l *Layer) Play() {
	if l.background != nil {
		l.foreground = l.background
		l.background = nil
		l.frameNumber = 0
		l.lastFrame = nil
		l.autoPlayDelta = -1
	}
	l.paused = false
}

// Pause freezes the layer on its last delivered frame.
func (l *Layer) Pause() {
	l.paused = true
}

// Stop discards the foreground producer; the queued background, if any,
// stays queued.
func (l *Layer) Stop() {
	l.foreground = nil
	l.lastFrame = nil
	l.frameNumber = 0
	l.paused = false
}

// Receive produces the layer's current frame under the given render
// flags. Paused layers repeat their last frame. A nil frame means the
// layer is currently empty; an error aborts the whole tick.
func (l *Layer) Receive(flags media.ReceiveFlags) (media.Frame, error) {
	if l.paused {
		return l.lastFrame, nil
	}

	if l.background != nil && l.autoPlayDelta >= 0 {
		if l.foreground == nil {
			l.Play()
		} else if fc, ok := l.foreground.(media.FrameCounter); ok {
			if fc.NbFrames()-l.frameNumber <= l.autoPlayDelta {
				l.log.Debug("auto-play promoting background",
					"producer", l.background.Name(),
					"frame", l.frameNumber,
				)
				l.Play()
			}
		}
	}

	if l.foreground == nil {
		return nil, nil
	}

	frame, err := l.foreground.Receive(flags)
	if err != nil {
		return nil, fmt.Errorf("producer %s: %w", l.foreground.Name(), err)
	}
	if frame != nil {
		l.lastFrame = frame
		l.frameNumber++
	}
	return frame, nil
}

// Foreground returns the active producer, or nil.
func (l *Layer) Foreground() media.Producer { return l.foreground }

// Background returns the queued producer, or nil.
func (l *Layer) Background() media.Producer { return l.background }

// LayerSnapshot is a point-in-time view of one layer's state, suitable
// for JSON serialization and delivery to monitoring callers.
type LayerSnapshot struct {
	Index         int    `json:"index"`
	Foreground    string `json:"foreground"`
	Background    string `json:"background"`
	Paused        bool   `json:"paused"`
	FrameNumber   int    `json:"frame_number"`
	AutoPlayDelta int    `json:"auto_play_delta"`
}

func (l *Layer) snapshot(index int) LayerSnapshot {
	s := LayerSnapshot{
		Index:         index,
		Paused:        l.paused,
		FrameNumber:   l.frameNumber,
		AutoPlayDelta: l.autoPlayDelta,
	}
	if l.foreground != nil {
		s.Foreground = l.foreground.Name()
	}
	if l.background != nil {
		s.Background = l.background.Name()
	}
	return s
}
