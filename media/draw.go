package media

// FrameVisitor is the accumulation interface the mixer's image and audio
// collaborators implement. Accept walks a draw-frame tree calling
// Push/Visit/Pop so visitors can maintain a transform stack.
type FrameVisitor interface {
	Push(t FrameTransform)
	Visit(f Frame)
	Pop()
}

// DrawFrame is a rendered frame value plus its attached transform. It is
// either a leaf wrapping one produced Frame, a composite of child draw
// frames (an interlaced field pair), or the distinguished empty frame.
type DrawFrame struct {
	Transform FrameTransform

	frame    Frame
	children []DrawFrame
}

// NewDrawFrame wraps a produced frame with a transform.
func NewDrawFrame(f Frame, t FrameTransform) DrawFrame {
	return DrawFrame{Transform: t, frame: f}
}

// EmptyDraw returns the empty draw frame used for absent or failed layers.
func EmptyDraw() DrawFrame {
	return DrawFrame{Transform: IdentityTransform()}
}

// IsEmpty reports whether the frame carries no picture or audio at all.
func (d DrawFrame) IsEmpty() bool {
	return d.frame == nil && len(d.children) == 0
}

// Frame returns the wrapped produced frame, or nil for empty or
// composite draw frames.
func (d DrawFrame) Frame() Frame { return d.frame }

// Interlace combines two temporally adjacent draw frames into one
// interlaced frame: a contributes the field that is temporally first per
// mode, b the other. Progressive mode returns a unchanged.
func Interlace(a, b DrawFrame, mode FieldMode) DrawFrame {
	if mode == Progressive {
		return a
	}
	a.Transform.FieldMode = mode
	b.Transform.FieldMode = mode.Opposite()
	// Both fields wrap the same produced frame; mute the second so its
	// audio is not mixed twice.
	b.Transform.Volume = 0
	return DrawFrame{
		Transform: IdentityTransform(),
		children:  []DrawFrame{a, b},
	}
}

// Accept walks the draw-frame tree in order, pushing this frame's
// transform, visiting the leaf payload or recursing into children, then
// popping. Empty frames push and pop without visiting.
func (d DrawFrame) Accept(v FrameVisitor) {
	v.Push(d.Transform)
	if d.frame != nil {
		v.Visit(d.frame)
	}
	for _, c := range d.children {
		c.Accept(v)
	}
	v.Pop()
}
