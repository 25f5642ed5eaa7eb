package mixer

import (
	"errors"
	"image/color"
	"testing"

	"github.com/zsiec/fresnel/media"
)

func newTestMixer(t *testing.T, image ImageMixer) *Mixer {
	t.Helper()
	m := New(t.Name(), image)
	t.Cleanup(m.Close)
	return m
}

func TestCombineSingleLayer(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, nil)
	format := smallFormat()

	frames := map[int]media.DrawFrame{
		0: media.NewDrawFrame(solidFrame(8, 8, color.RGBA{R: 0xff, A: 0xff}), media.IdentityTransform()),
	}

	out := m.Combine(frames, format)
	if out.IsEmpty() {
		t.Fatal("output: got empty frame, want composite")
	}
	if out.Tag() != any(m) {
		t.Error("output tag: got wrong owner")
	}

	desc := out.Desc()
	if desc.Format != media.PixelFormatBGRA {
		t.Errorf("pixel format: got %v, want BGRA", desc.Format)
	}
	if len(desc.Planes) != 1 {
		t.Fatalf("planes: got %d, want 1", len(desc.Planes))
	}
	plane := desc.Planes[0]
	if plane.Width != format.Width || plane.Height != format.Height || plane.Depth != 4 {
		t.Errorf("plane geometry: got %dx%dx%d, want %dx%dx4",
			plane.Width, plane.Height, plane.Depth, format.Width, format.Height)
	}
	if len(out.Image()) != format.Width*format.Height*4 {
		t.Errorf("image size: got %d, want %d", len(out.Image()), format.Width*format.Height*4)
	}
	if len(out.Audio()) != format.SamplesPerFrame*format.AudioChannels {
		t.Errorf("audio size: got %d, want %d", len(out.Audio()), format.SamplesPerFrame*format.AudioChannels)
	}
}

func TestCombineVisitsAscendingIndexOrder(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, nil)
	format := smallFormat()

	// Higher layer indices must composite on top regardless of map
	// iteration order.
	frames := map[int]media.DrawFrame{
		10: media.NewDrawFrame(solidFrame(8, 8, color.RGBA{B: 0xff, A: 0xff}), media.IdentityTransform()),
		1:  media.NewDrawFrame(solidFrame(8, 8, color.RGBA{R: 0xff, A: 0xff}), media.IdentityTransform()),
		5:  media.NewDrawFrame(solidFrame(8, 8, color.RGBA{G: 0xff, A: 0xff}), media.IdentityTransform()),
	}

	out := m.Combine(frames, format)
	got := bgraAt(out.Image(), format, 4, 4)
	if got != [4]byte{0xff, 0, 0, 0xff} {
		t.Errorf("top pixel: got %v, want blue (layer 10)", got)
	}
}

func TestCombineEmptyFrameSet(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, nil)
	out := m.Combine(map[int]media.DrawFrame{}, smallFormat())
	if out.IsEmpty() {
		t.Fatal("empty set should still produce a (black) composite frame")
	}
}

// failingImageMixer aborts at finalize.
type failingImageMixer struct {
	CPUImageMixer
}

func (m *failingImageMixer) Finalize(media.VideoFormat, float64) ([]byte, error) {
	return nil, errors.New("gpu lost")
}

func TestCombineFailureSubstitutesEmptyFrame(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, &failingImageMixer{})
	format := smallFormat()

	frames := map[int]media.DrawFrame{
		0: media.NewDrawFrame(solidFrame(8, 8, color.RGBA{R: 0xff, A: 0xff}), media.IdentityTransform()),
	}

	out := m.Combine(frames, format)
	if !out.IsEmpty() {
		t.Error("failed combine: got composite, want the designated empty frame")
	}

	// Next combine starts clean.
	m2 := newTestMixer(t, nil)
	if out := m2.Combine(frames, format); out.IsEmpty() {
		t.Error("combine after failure on another mixer: got empty")
	}
}

func TestCombineInvalidFormatSubstitutesEmptyFrame(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, nil)
	out := m.Combine(map[int]media.DrawFrame{}, media.VideoFormat{Name: "broken"})
	if !out.IsEmpty() {
		t.Error("invalid format: got composite, want empty frame")
	}
}

func TestMasterVolumeSerialized(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, nil)
	m.SetMasterVolume(0.5)

	got, err := m.MasterVolume()
	if err != nil {
		t.Fatalf("MasterVolume: %v", err)
	}
	if got != 0.5 {
		t.Errorf("MasterVolume: got %v, want 0.5", got)
	}
}

func TestMasterVolumeAppliesToMix(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, nil)
	format := smallFormat()
	m.SetMasterVolume(0.5)

	frames := map[int]media.DrawFrame{
		0: media.NewDrawFrame(&media.MemFrame{Samples: []int32{1000}}, media.IdentityTransform()),
	}

	out := m.Combine(frames, format)
	if out.Audio()[0] != 500 {
		t.Errorf("mixed sample: got %d, want 500", out.Audio()[0])
	}
}

func TestMixerInfoEmpty(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, nil)
	if _, err := m.Info(); err != nil {
		t.Errorf("Info: %v", err)
	}
}
