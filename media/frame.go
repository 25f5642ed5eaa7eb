// Package media defines the core frame, transform, and format value types
// that flow through the Fresnel composition pipeline, from producers
// through the stage to the mixer.
package media

import "image"

// ReceiveFlags are per-receive rendering hints passed from the stage to a
// producer based on the layer's current transform and the output format.
type ReceiveFlags uint8

const (
	// FlagDeinterlace asks the producer for a deinterlace-safe frame
	// because the layer's vertical geometry no longer lines up with the
	// output raster's field grid.
	FlagDeinterlace ReceiveFlags = 1 << iota
	// FlagAlphaOnly asks the producer to render only the alpha channel,
	// for layers used as a key signal.
	FlagAlphaOnly
)

// Frame is one produced picture+audio payload. Either domain may be
// absent: a graphics frame can carry no audio, an audio-only frame no
// picture.
type Frame interface {
	// ImageData returns the frame's picture, or nil if it has none.
	// The buffer is shared; callers must not modify it.
	ImageData() *image.RGBA
	// AudioData returns interleaved signed 32-bit samples, or nil.
	// The buffer is shared; callers must not modify it.
	AudioData() []int32
}

// Producer is the frame-source capability the stage consumes. Producers
// own all decoding and I/O; Receive must return promptly with whatever
// frame is current.
type Producer interface {
	Receive(flags ReceiveFlags) (Frame, error)
	Name() string
}

// FrameCounter is an optional Producer capability reporting the total
// number of frames the producer will deliver. The stage uses it for
// auto-play handoff near the end of a clip.
type FrameCounter interface {
	NbFrames() int
}

// MemFrame is a Frame backed entirely by in-memory buffers.
type MemFrame struct {
	Pix     *image.RGBA
	Samples []int32
}

// ImageData returns the frame's picture buffer.
func (f *MemFrame) ImageData() *image.RGBA { return f.Pix }

// AudioData returns the frame's interleaved samples.
func (f *MemFrame) AudioData() []int32 { return f.Samples }
