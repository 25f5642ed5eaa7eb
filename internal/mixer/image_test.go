package mixer

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/zsiec/fresnel/media"
)

func smallFormat() media.VideoFormat {
	return media.VideoFormat{
		Name: "test", Width: 8, Height: 8, SquareWidth: 8, SquareHeight: 8,
		FieldMode: media.Progressive, FPS: 50,
		SampleRate: 48000, AudioChannels: 2, SamplesPerFrame: 960,
	}
}

func solidFrame(w, h int, c color.RGBA) media.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return &media.MemFrame{Pix: img}
}

// bgraAt returns the B,G,R,A bytes of pixel (x, y) in a packed buffer.
func bgraAt(buf []byte, format media.VideoFormat, x, y int) [4]byte {
	o := (y*format.Width + x) * 4
	return [4]byte{buf[o], buf[o+1], buf[o+2], buf[o+3]}
}

func TestImageMixerSolidFullFrame(t *testing.T) {
	t.Parallel()

	m := NewCPUImageMixer()
	format := smallFormat()

	red := solidFrame(8, 8, color.RGBA{R: 0xff, A: 0xff})
	media.NewDrawFrame(red, media.IdentityTransform()).Accept(m)

	buf, err := m.Finalize(format, format.AspectRatio())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(buf) != 8*8*4 {
		t.Fatalf("buffer size: got %d, want %d", len(buf), 8*8*4)
	}
	got := bgraAt(buf, format, 4, 4)
	want := [4]byte{0, 0, 0xff, 0xff} // packed BGRA
	if got != want {
		t.Errorf("pixel: got %v, want %v", got, want)
	}
}

func TestImageMixerOpacityBlends(t *testing.T) {
	t.Parallel()

	m := NewCPUImageMixer()
	format := smallFormat()

	white := solidFrame(8, 8, color.RGBA{0xff, 0xff, 0xff, 0xff})
	half := media.IdentityTransform()
	half.Opacity = 0.5
	media.NewDrawFrame(white, half).Accept(m)

	buf, err := m.Finalize(format, format.AspectRatio())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	got := bgraAt(buf, format, 0, 0)
	// Half-opacity white over a transparent canvas.
	if got[0] < 0x7e || got[0] > 0x80 {
		t.Errorf("blended value: got %v, want ~0x7f", got[0])
	}
}

func TestImageMixerFillRectPlacement(t *testing.T) {
	t.Parallel()

	m := NewCPUImageMixer()
	format := smallFormat()

	white := solidFrame(4, 4, color.RGBA{0xff, 0xff, 0xff, 0xff})
	tr := media.IdentityTransform()
	tr.FillScale = [2]float64{0.5, 0.5}
	tr.FillTranslation = [2]float64{0.5, 0.5}
	media.NewDrawFrame(white, tr).Accept(m)

	buf, err := m.Finalize(format, format.AspectRatio())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if got := bgraAt(buf, format, 1, 1); got != [4]byte{0, 0, 0, 0} {
		t.Errorf("outside fill rect: got %v, want transparent", got)
	}
	if got := bgraAt(buf, format, 6, 6); got != [4]byte{0xff, 0xff, 0xff, 0xff} {
		t.Errorf("inside fill rect: got %v, want white", got)
	}
}

func TestImageMixerLayerOrder(t *testing.T) {
	t.Parallel()

	m := NewCPUImageMixer()
	format := smallFormat()

	red := solidFrame(8, 8, color.RGBA{R: 0xff, A: 0xff})
	blue := solidFrame(8, 8, color.RGBA{B: 0xff, A: 0xff})
	media.NewDrawFrame(red, media.IdentityTransform()).Accept(m)
	media.NewDrawFrame(blue, media.IdentityTransform()).Accept(m)

	buf, err := m.Finalize(format, format.AspectRatio())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	got := bgraAt(buf, format, 3, 3)
	if got != [4]byte{0xff, 0, 0, 0xff} {
		t.Errorf("later frame should land on top: got %v, want blue", got)
	}
}

func TestImageMixerKeyModulatesAlpha(t *testing.T) {
	t.Parallel()

	m := NewCPUImageMixer()
	format := smallFormat()

	white := solidFrame(8, 8, color.RGBA{0xff, 0xff, 0xff, 0xff})
	media.NewDrawFrame(white, media.IdentityTransform()).Accept(m)

	// A half-alpha key over the composite halves its alpha.
	key := solidFrame(8, 8, color.RGBA{A: 0x80})
	keyTr := media.IdentityTransform()
	keyTr.IsKey = true
	media.NewDrawFrame(key, keyTr).Accept(m)

	buf, err := m.Finalize(format, format.AspectRatio())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	got := bgraAt(buf, format, 2, 2)
	if got[3] < 0x7e || got[3] > 0x82 {
		t.Errorf("keyed alpha: got %v, want ~0x80", got[3])
	}
}

func TestImageMixerFieldRows(t *testing.T) {
	t.Parallel()

	m := NewCPUImageMixer()
	format := smallFormat()

	white := solidFrame(8, 8, color.RGBA{0xff, 0xff, 0xff, 0xff})
	upper := media.IdentityTransform()
	upper.FieldMode = media.Upper
	media.NewDrawFrame(white, upper).Accept(m)

	buf, err := m.Finalize(format, format.AspectRatio())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if got := bgraAt(buf, format, 0, 0); got[3] != 0xff {
		t.Errorf("upper-field row 0: got %v, want drawn", got)
	}
	if got := bgraAt(buf, format, 0, 1); got[3] != 0 {
		t.Errorf("upper-field row 1: got %v, want untouched", got)
	}
}

func TestImageMixerScalesSource(t *testing.T) {
	t.Parallel()

	m := NewCPUImageMixer()
	format := smallFormat()

	// A 2x2 source stretched to the full 8x8 raster.
	red := solidFrame(2, 2, color.RGBA{R: 0xff, A: 0xff})
	media.NewDrawFrame(red, media.IdentityTransform()).Accept(m)

	buf, err := m.Finalize(format, format.AspectRatio())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if got := bgraAt(buf, format, 7, 7); got != [4]byte{0, 0, 0xff, 0xff} {
		t.Errorf("scaled corner: got %v, want red", got)
	}
}

func TestImageMixerFinalizeResets(t *testing.T) {
	t.Parallel()

	m := NewCPUImageMixer()
	format := smallFormat()

	white := solidFrame(8, 8, color.RGBA{0xff, 0xff, 0xff, 0xff})
	media.NewDrawFrame(white, media.IdentityTransform()).Accept(m)
	if _, err := m.Finalize(format, format.AspectRatio()); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	buf, err := m.Finalize(format, format.AspectRatio())
	if err != nil {
		t.Fatalf("second Finalize: %v", err)
	}
	if got := bgraAt(buf, format, 0, 0); got != [4]byte{0, 0, 0, 0} {
		t.Errorf("second composite: got %v, want empty (accumulator reset)", got)
	}
}
