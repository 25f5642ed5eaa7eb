package mixer

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/zsiec/fresnel/media"
)

// ImageMixer is the image-compositing collaborator Combine drives: a
// frame visitor that accumulates draw frames, and a finalize call that
// returns the packed composite for the output format. The aspect
// argument is the display aspect ratio derived from the format's
// square-pixel geometry, passed explicitly per call.
type ImageMixer interface {
	media.FrameVisitor
	Finalize(format media.VideoFormat, aspect float64) ([]byte, error)
}

type renderItem struct {
	frame     media.Frame
	transform media.FrameTransform
}

// CPUImageMixer is a software reference ImageMixer. Frames composite in
// visit order: each is stretched to its fill rectangle, blended
// source-over at its compound opacity, restricted to its field's
// scanlines for interlaced draw frames; key frames multiply into the
// alpha of the composite under them. The aspect argument to Finalize is
// accepted for aspect-aware blend modes and not consulted by the
// stretch-to-fill path.
type CPUImageMixer struct {
	stack []media.FrameTransform
	items []renderItem
}

// NewCPUImageMixer returns an empty software compositor.
func NewCPUImageMixer() *CPUImageMixer {
	return &CPUImageMixer{stack: []media.FrameTransform{media.IdentityTransform()}}
}

// Push enters a draw-frame nesting level, composing its transform onto
// the stack.
func (m *CPUImageMixer) Push(t media.FrameTransform) {
	top := media.IdentityTransform()
	if len(m.stack) > 0 {
		top = m.stack[len(m.stack)-1]
	}
	m.stack = append(m.stack, top.Combine(t))
}

// Visit records the frame with its compound transform for compositing
// at Finalize.
func (m *CPUImageMixer) Visit(f media.Frame) {
	if f.ImageData() == nil {
		return
	}
	top := media.IdentityTransform()
	if len(m.stack) > 0 {
		top = m.stack[len(m.stack)-1]
	}
	m.items = append(m.items, renderItem{frame: f, transform: top})
}

// Pop leaves a draw-frame nesting level.
func (m *CPUImageMixer) Pop() {
	m.stack = m.stack[:len(m.stack)-1]
}

// Finalize composites the accumulated frames into one packed BGRA buffer
// sized to the format's active picture and resets the accumulator.
func (m *CPUImageMixer) Finalize(format media.VideoFormat, aspect float64) ([]byte, error) {
	if format.Width <= 0 || format.Height <= 0 {
		return nil, fmt.Errorf("invalid format geometry %dx%d", format.Width, format.Height)
	}
	_ = aspect

	canvas := image.NewRGBA(image.Rect(0, 0, format.Width, format.Height))
	for _, item := range m.items {
		m.drawItem(canvas, item, format)
	}
	m.items = m.items[:0]
	if len(m.stack) > 1 {
		m.stack = m.stack[:1]
	}

	return packBGRA(canvas), nil
}

func (m *CPUImageMixer) drawItem(canvas *image.RGBA, item renderItem, format media.VideoFormat) {
	t := item.transform
	src := item.frame.ImageData()

	x0 := int(t.FillTranslation[0] * float64(format.Width))
	y0 := int(t.FillTranslation[1] * float64(format.Height))
	w := int(t.FillScale[0] * float64(format.Width))
	h := int(t.FillScale[1] * float64(format.Height))
	if w <= 0 || h <= 0 || t.Opacity <= 0 {
		return
	}

	scaled := src
	if src.Bounds().Dx() != w || src.Bounds().Dy() != h {
		scaled = image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	}

	rect := image.Rect(x0, y0, x0+w, y0+h).Intersect(canvas.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		if skipRow(y, t.FieldMode) {
			continue
		}
		sy := y - y0 + scaled.Bounds().Min.Y
		for x := rect.Min.X; x < rect.Max.X; x++ {
			sx := x - x0 + scaled.Bounds().Min.X
			so := scaled.PixOffset(sx, sy)
			do := canvas.PixOffset(x, y)
			s := scaled.Pix[so : so+4 : so+4]
			d := canvas.Pix[do : do+4 : do+4]
			if t.IsKey {
				// Key signal: modulate the alpha (and premultiplied
				// color) of whatever is already composited here.
				k := uint32(s[3])
				for i := 0; i < 4; i++ {
					d[i] = uint8(uint32(d[i]) * k / 0xff)
				}
				continue
			}
			// Source-over with an extra global opacity factor, in
			// premultiplied space.
			sa := t.Opacity * float64(s[3])
			inv := 1 - sa/0xff
			for i := 0; i < 4; i++ {
				v := t.Opacity*float64(s[i]) + float64(d[i])*inv
				if v > 0xff {
					v = 0xff
				}
				d[i] = uint8(v)
			}
		}
	}
}

// skipRow reports whether scanline y belongs to the other field.
func skipRow(y int, mode media.FieldMode) bool {
	switch mode {
	case media.Upper:
		return y%2 != 0
	case media.Lower:
		return y%2 == 0
	}
	return false
}

// packBGRA converts the RGBA canvas to a packed BGRA buffer.
func packBGRA(img *image.RGBA) []byte {
	out := make([]byte, len(img.Pix))
	for i := 0; i+3 < len(img.Pix); i += 4 {
		out[i] = img.Pix[i+2]
		out[i+1] = img.Pix[i+1]
		out[i+2] = img.Pix[i]
		out[i+3] = img.Pix[i+3]
	}
	return out
}
