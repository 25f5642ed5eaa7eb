package media

// FrameTransform bundles the per-frame visual and audio parameters a layer
// applies to its produced frame: fill geometry, opacity, key flag, layer
// depth, field assignment, and audio volume. It is a value type attached
// to a copy of the frame, never to a shared one.
type FrameTransform struct {
	// Opacity in [0, 1]; 0 is fully transparent.
	Opacity float64
	// FillScale is the x/y scale of the destination rectangle as a
	// fraction of the output raster (1 = full size).
	FillScale [2]float64
	// FillTranslation is the x/y offset of the destination rectangle as
	// a fraction of the output raster.
	FillTranslation [2]float64
	// IsKey marks the frame as a key/alpha-only signal.
	IsKey bool
	// LayerDepth counts compositing nesting; the mixer forces it to 1
	// on the top-level frames it visits.
	LayerDepth int
	// FieldMode restricts the frame to one field of an interlaced
	// raster; Progressive means the full picture.
	FieldMode FieldMode
	// Volume is the audio gain in [0, 1+].
	Volume float64
}

// IdentityTransform returns the neutral transform: full-size fill, fully
// opaque, unity gain, progressive.
func IdentityTransform() FrameTransform {
	return FrameTransform{
		Opacity:   1,
		FillScale: [2]float64{1, 1},
		Volume:    1,
	}
}

// Combine composes a child transform under a parent, the way nested
// draw frames accumulate during mixing: geometry concatenates, opacity
// and volume multiply, key propagates, fields intersect.
func (t FrameTransform) Combine(child FrameTransform) FrameTransform {
	out := child
	out.Opacity = t.Opacity * child.Opacity
	out.Volume = t.Volume * child.Volume
	out.FillTranslation[0] = t.FillTranslation[0] + t.FillScale[0]*child.FillTranslation[0]
	out.FillTranslation[1] = t.FillTranslation[1] + t.FillScale[1]*child.FillTranslation[1]
	out.FillScale[0] = t.FillScale[0] * child.FillScale[0]
	out.FillScale[1] = t.FillScale[1] * child.FillScale[1]
	out.IsKey = t.IsKey || child.IsKey
	out.LayerDepth = t.LayerDepth + child.LayerDepth
	if t.FieldMode != Progressive {
		out.FieldMode = t.FieldMode
	}
	return out
}
