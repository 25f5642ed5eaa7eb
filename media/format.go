package media

import (
	"errors"
	"fmt"
)

// FieldMode describes how a frame period is split into fields.
type FieldMode int

const (
	// Progressive frames carry a single full-height picture.
	Progressive FieldMode = iota
	// Upper means the upper (even) field is temporally first.
	Upper
	// Lower means the lower (odd) field is temporally first.
	Lower
)

// String returns the lowercase field mode name.
func (m FieldMode) String() string {
	switch m {
	case Progressive:
		return "progressive"
	case Upper:
		return "upper"
	case Lower:
		return "lower"
	}
	return fmt.Sprintf("fieldmode(%d)", int(m))
}

// Opposite returns the other field of an interlaced pair. Progressive
// maps to itself.
func (m FieldMode) Opposite() FieldMode {
	switch m {
	case Upper:
		return Lower
	case Lower:
		return Upper
	}
	return m
}

// VideoFormat describes one output raster: active picture geometry, the
// square-pixel geometry used to derive the display aspect ratio, field
// mode, frame rate, and the audio cadence per output frame.
type VideoFormat struct {
	Name         string
	Width        int // active picture width in pixels
	Height       int // active picture height in pixels
	SquareWidth  int // width the picture would have with square pixels
	SquareHeight int
	FieldMode    FieldMode
	FPS          float64

	SampleRate      int // audio samples per second
	AudioChannels   int
	SamplesPerFrame int // nominal audio samples per output frame
}

// TransformTicks is the number of transform advances one output frame
// consumes: one for progressive formats, two for interlaced (one per
// field, applied as two independent successive advances).
func (f VideoFormat) TransformTicks() int {
	if f.FieldMode == Progressive {
		return 1
	}
	return 2
}

// AspectRatio is the display aspect derived from the square-pixel geometry.
func (f VideoFormat) AspectRatio() float64 {
	return float64(f.SquareWidth) / float64(f.SquareHeight)
}

// ErrUnknownFormat is returned by FormatByName for unrecognized names.
var ErrUnknownFormat = errors.New("unknown video format")

var formats = []VideoFormat{
	{Name: "pal", Width: 720, Height: 576, SquareWidth: 1024, SquareHeight: 576, FieldMode: Upper, FPS: 25, SampleRate: 48000, AudioChannels: 2, SamplesPerFrame: 1920},
	{Name: "ntsc", Width: 720, Height: 486, SquareWidth: 720, SquareHeight: 540, FieldMode: Lower, FPS: 30000.0 / 1001.0, SampleRate: 48000, AudioChannels: 2, SamplesPerFrame: 1602},
	{Name: "720p50", Width: 1280, Height: 720, SquareWidth: 1280, SquareHeight: 720, FieldMode: Progressive, FPS: 50, SampleRate: 48000, AudioChannels: 2, SamplesPerFrame: 960},
	{Name: "720p5994", Width: 1280, Height: 720, SquareWidth: 1280, SquareHeight: 720, FieldMode: Progressive, FPS: 60000.0 / 1001.0, SampleRate: 48000, AudioChannels: 2, SamplesPerFrame: 801},
	{Name: "1080i50", Width: 1920, Height: 1080, SquareWidth: 1920, SquareHeight: 1080, FieldMode: Upper, FPS: 25, SampleRate: 48000, AudioChannels: 2, SamplesPerFrame: 1920},
	{Name: "1080i5994", Width: 1920, Height: 1080, SquareWidth: 1920, SquareHeight: 1080, FieldMode: Upper, FPS: 30000.0 / 1001.0, SampleRate: 48000, AudioChannels: 2, SamplesPerFrame: 1602},
	{Name: "1080p25", Width: 1920, Height: 1080, SquareWidth: 1920, SquareHeight: 1080, FieldMode: Progressive, FPS: 25, SampleRate: 48000, AudioChannels: 2, SamplesPerFrame: 1920},
	{Name: "1080p50", Width: 1920, Height: 1080, SquareWidth: 1920, SquareHeight: 1080, FieldMode: Progressive, FPS: 50, SampleRate: 48000, AudioChannels: 2, SamplesPerFrame: 960},
}

// FormatByName resolves a format preset by its lowercase name (e.g.
// "pal", "720p50", "1080i50").
func FormatByName(name string) (VideoFormat, error) {
	for _, f := range formats {
		if f.Name == name {
			return f, nil
		}
	}
	return VideoFormat{}, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Formats returns the built-in format presets.
func Formats() []VideoFormat {
	out := make([]VideoFormat, len(formats))
	copy(out, formats)
	return out
}
