package media

// PixelFormat identifies the packed pixel layout of an output frame.
type PixelFormat int

const (
	PixelFormatInvalid PixelFormat = iota
	PixelFormatBGRA
)

// Plane describes one plane of a pixel buffer.
type Plane struct {
	Linesize int
	Width    int
	Height   int
	Depth    int // bytes per pixel in this plane
}

// PixelFormatDesc is a pixel format plus its plane geometry.
type PixelFormatDesc struct {
	Format PixelFormat
	Planes []Plane
}

// NewPixelFormatDesc returns a descriptor with no planes; add them with
// AddPlane.
func NewPixelFormatDesc(format PixelFormat) PixelFormatDesc {
	return PixelFormatDesc{Format: format}
}

// AddPlane appends a plane sized width x height at depth bytes per pixel
// and returns the updated descriptor.
func (d PixelFormatDesc) AddPlane(width, height, depth int) PixelFormatDesc {
	d.Planes = append(d.Planes, Plane{
		Linesize: width * depth,
		Width:    width,
		Height:   height,
		Depth:    depth,
	})
	return d
}

// OutputFrame is the mixer's immutable deliverable: one packed image
// buffer, one buffer of interleaved audio samples, the identity of the
// mixer that produced it (for downstream pooling), and the pixel
// descriptor. The zero value is the designated empty frame.
type OutputFrame struct {
	image []byte
	audio []int32
	tag   any
	desc  PixelFormatDesc
}

// NewOutputFrame wraps image and audio buffers into an output frame.
// Ownership of the buffers passes to the frame; callers must not modify
// them afterwards.
func NewOutputFrame(image []byte, audio []int32, tag any, desc PixelFormatDesc) OutputFrame {
	return OutputFrame{image: image, audio: audio, tag: tag, desc: desc}
}

// EmptyOutputFrame is the designated fallback frame produced when mixing
// fails.
var EmptyOutputFrame = OutputFrame{}

// IsEmpty reports whether this is the empty fallback frame.
func (f OutputFrame) IsEmpty() bool { return f.image == nil && f.audio == nil }

// Image returns the packed image buffer. Callers must not modify it.
func (f OutputFrame) Image() []byte { return f.image }

// Audio returns the interleaved audio samples. Callers must not modify it.
func (f OutputFrame) Audio() []int32 { return f.audio }

// Tag identifies the mixer instance that produced this frame.
func (f OutputFrame) Tag() any { return f.tag }

// Desc returns the pixel format descriptor.
func (f OutputFrame) Desc() PixelFormatDesc { return f.desc }
