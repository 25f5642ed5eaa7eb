package mixer

import (
	"math"

	"github.com/zsiec/fresnel/media"
)

// AudioMixer accumulates volume-weighted samples from every frame it
// visits during one Combine call into a single interleaved mix buffer.
// It is confined to the owning mixer's executor and carries no locking.
type AudioMixer struct {
	masterVolume float64
	stack        []float64 // accumulated volume per draw-frame nesting level
	acc          []float64
}

// NewAudioMixer returns an audio mixer at unity master volume.
func NewAudioMixer() *AudioMixer {
	return &AudioMixer{masterVolume: 1, stack: []float64{1}}
}

// SetMasterVolume sets the gain applied to the final mix.
func (m *AudioMixer) SetMasterVolume(volume float64) {
	m.masterVolume = volume
}

// MasterVolume returns the gain applied to the final mix.
func (m *AudioMixer) MasterVolume() float64 {
	return m.masterVolume
}

// Push enters a draw-frame nesting level, compounding its volume onto
// the stack.
func (m *AudioMixer) Push(t media.FrameTransform) {
	m.stack = append(m.stack, m.stack[len(m.stack)-1]*t.Volume)
}

// Visit accumulates the frame's samples at the current compound volume.
func (m *AudioMixer) Visit(f media.Frame) {
	samples := f.AudioData()
	if len(samples) == 0 {
		return
	}
	volume := m.stack[len(m.stack)-1]
	if len(m.acc) < len(samples) {
		m.acc = append(m.acc, make([]float64, len(samples)-len(m.acc))...)
	}
	for i, s := range samples {
		m.acc[i] += float64(s) * volume
	}
}

// Pop leaves a draw-frame nesting level.
func (m *AudioMixer) Pop() {
	m.stack = m.stack[:len(m.stack)-1]
}

// Finalize returns the mix for one output frame at the format's audio
// cadence, applies the master volume with saturation, and resets the
// accumulator for the next frame.
func (m *AudioMixer) Finalize(format media.VideoFormat) []int32 {
	out := make([]int32, format.SamplesPerFrame*format.AudioChannels)
	n := min(len(out), len(m.acc))
	for i := 0; i < n; i++ {
		out[i] = clampSample(m.acc[i] * m.masterVolume)
	}
	m.acc = m.acc[:0]
	m.stack = m.stack[:1]
	return out
}

func clampSample(v float64) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}
