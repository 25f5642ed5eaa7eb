// Command fresnel runs a demonstration playout channel: two built-in
// producers loaded onto stage layers, a tweened fade-up, and the
// composited output frame stream counted and logged. Producers live in
// this binary; the core consumes them only through the media.Producer
// interface.
package main

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"golang.org/x/sync/errgroup"

	"github.com/zsiec/fresnel/internal/channel"
	"github.com/zsiec/fresnel/media"
)

var version = "dev"

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	formatName := envOr("FORMAT", "720p50")
	seconds, err := strconv.Atoi(envOr("DURATION", "10"))
	if err != nil || seconds <= 0 {
		slog.Error("invalid DURATION", "value", os.Getenv("DURATION"))
		os.Exit(1)
	}

	format, err := media.FormatByName(formatName)
	if err != nil {
		slog.Error("unknown FORMAT", "value", formatName, "error", err)
		os.Exit(1)
	}

	slog.Info("fresnel starting",
		"version", version,
		"format", format.Name,
		"fps", format.FPS,
		"duration_s", seconds,
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(seconds)*time.Second)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	ch := channel.New("demo", format, nil)
	defer ch.Close()

	ch.Stage().Load(0, newColorProducer("background", color.RGBA{B: 0x80, A: 0xff}, format), false, -1)
	ch.Stage().Play(0)
	ch.Stage().Load(1, newBarProducer("bar", format), false, -1)
	ch.Stage().Play(1)

	// Fade the bar layer up from transparent over two seconds of ticks.
	fadeTicks := int(2 * format.FPS * float64(format.TransformTicks()))
	ch.Stage().ApplyTransform(1, func(t media.FrameTransform) media.FrameTransform {
		t.Opacity = 0
		return t
	}, 0, ease.Linear)
	ch.Stage().ApplyTransform(1, func(t media.FrameTransform) media.FrameTransform {
		t.Opacity = 1
		return t
	}, fadeTicks, ease.InOutQuad)

	var produced, empty int64
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ch.Run(ctx, func(frame media.OutputFrame) error {
			produced++
			if frame.IsEmpty() {
				empty++
			}
			if produced%int64(format.FPS) == 0 {
				slog.Info("playout progress", "frames", produced, "empty", empty)
			}
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		slog.Error("channel failed", "error", err)
		os.Exit(1)
	}
	slog.Info("fresnel stopped", "frames", produced, "empty", empty)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// colorProducer delivers the same solid-color frame every tick.
type colorProducer struct {
	name  string
	frame *media.MemFrame
}

func newColorProducer(name string, c color.RGBA, format media.VideoFormat) *colorProducer {
	img := image.NewRGBA(image.Rect(0, 0, format.Width, format.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return &colorProducer{
		name:  name,
		frame: &media.MemFrame{Pix: img, Samples: make([]int32, format.SamplesPerFrame*format.AudioChannels)},
	}
}

func (p *colorProducer) Name() string { return p.name }

func (p *colorProducer) Receive(media.ReceiveFlags) (media.Frame, error) {
	return p.frame, nil
}

// barProducer sweeps a white vertical bar across the raster, driven by a
// wall-clock tween advanced once per received frame.
type barProducer struct {
	name   string
	format media.VideoFormat
	tween  *gween.Tween
}

func newBarProducer(name string, format media.VideoFormat) *barProducer {
	sweep := float32(format.Width - format.Width/8)
	return &barProducer{
		name:   name,
		format: format,
		tween:  gween.New(0, sweep, 5, ease.InOutQuad),
	}
}

func (p *barProducer) Name() string { return p.name }

func (p *barProducer) Receive(media.ReceiveFlags) (media.Frame, error) {
	dt := float32(1 / p.format.FPS)
	pos, done := p.tween.Update(dt)
	if done {
		p.tween = gween.New(pos, 0, 5, ease.InOutQuad)
	}

	img := image.NewRGBA(image.Rect(0, 0, p.format.Width, p.format.Height))
	bar := image.Rect(int(pos), 0, int(pos)+p.format.Width/8, p.format.Height)
	draw.Draw(img, bar, image.NewUniform(color.RGBA{0xff, 0xff, 0xff, 0xff}), image.Point{}, draw.Src)
	return &media.MemFrame{Pix: img}, nil
}
