package stage

import (
	"github.com/tanema/gween/ease"

	"github.com/zsiec/fresnel/media"
)

// TweenedTransform interpolates a layer's frame transform from a source
// to a destination value over a fixed number of ticks. Float parameters
// follow the easing curve; discrete parameters (key flag, layer depth,
// field mode) switch to the destination immediately. Once elapsed
// reaches the duration the value stays pinned at the destination.
type TweenedTransform struct {
	src      media.FrameTransform
	dst      media.FrameTransform
	duration int
	elapsed  int
	fn       ease.TweenFunc
}

// NewTweened creates a tween from src to dst over duration ticks using
// the given easing curve. A nil curve or non-positive duration snaps to
// dst on the first advance.
func NewTweened(src, dst media.FrameTransform, duration int, fn ease.TweenFunc) *TweenedTransform {
	if fn == nil {
		fn = ease.Linear
	}
	return &TweenedTransform{src: src, dst: dst, duration: duration, fn: fn}
}

// identityTween is the default registry entry: pinned at identity.
func identityTween() *TweenedTransform {
	id := media.IdentityTransform()
	return NewTweened(id, id, 0, ease.Linear)
}

// Fetch returns the transform value at the current elapsed tick count
// without advancing.
func (t *TweenedTransform) Fetch() media.FrameTransform {
	if t.elapsed >= t.duration {
		return t.dst
	}
	out := t.dst
	if t.elapsed <= 0 {
		out.Opacity = t.src.Opacity
		out.Volume = t.src.Volume
		out.FillScale = t.src.FillScale
		out.FillTranslation = t.src.FillTranslation
		return out
	}
	out.Opacity = t.tween(t.src.Opacity, t.dst.Opacity)
	out.Volume = t.tween(t.src.Volume, t.dst.Volume)
	for i := 0; i < 2; i++ {
		out.FillScale[i] = t.tween(t.src.FillScale[i], t.dst.FillScale[i])
		out.FillTranslation[i] = t.tween(t.src.FillTranslation[i], t.dst.FillTranslation[i])
	}
	return out
}

// FetchAndTick advances the tween by num ticks, then returns the value.
// Advancing and reading are a single operation so two field samples of
// one output frame are always taken in order from consistent state.
func (t *TweenedTransform) FetchAndTick(num int) media.FrameTransform {
	t.elapsed += num
	if t.elapsed > t.duration {
		t.elapsed = t.duration
	}
	return t.Fetch()
}

// Elapsed returns the number of ticks consumed so far.
func (t *TweenedTransform) Elapsed() int { return t.elapsed }

func (t *TweenedTransform) tween(src, dst float64) float64 {
	if src == dst {
		return dst
	}
	return float64(t.fn(float32(t.elapsed), float32(src), float32(dst-src), float32(t.duration)))
}
