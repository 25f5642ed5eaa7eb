// Package channel ties one stage and one mixer to an output format and
// drives them once per output tick, producing the deliverable frame
// stream of a playout channel.
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/zsiec/fresnel/internal/mixer"
	"github.com/zsiec/fresnel/internal/stage"
	"github.com/zsiec/fresnel/media"
)

// Channel owns a stage/mixer pair and the output format they render to.
type Channel struct {
	log    *slog.Logger
	format media.VideoFormat
	stage  *stage.Stage
	mixer  *mixer.Mixer

	ticks atomic.Int64
}

// New creates a channel rendering to format. A nil image mixer selects
// the software compositor.
func New(name string, format media.VideoFormat, image mixer.ImageMixer) *Channel {
	return &Channel{
		log:    slog.With("component", "channel", "name", name),
		format: format,
		stage:  stage.New(name),
		mixer:  mixer.New(name, image),
	}
}

// Stage returns the channel's stage for control-plane callers.
func (c *Channel) Stage() *stage.Stage { return c.stage }

// Mixer returns the channel's mixer.
func (c *Channel) Mixer() *mixer.Mixer { return c.mixer }

// Format returns the channel's output format.
func (c *Channel) Format() media.VideoFormat { return c.format }

// Ticks returns the number of output frames produced so far.
func (c *Channel) Ticks() int64 { return c.ticks.Load() }

// TickOnce renders exactly one output frame: collect the stage's frame
// set, then reduce it through the mixer. Both halves degrade internally
// rather than fail, so TickOnce always returns a frame value.
func (c *Channel) TickOnce() media.OutputFrame {
	frames := c.stage.Tick(c.format)
	frame := c.mixer.Combine(frames, c.format)
	c.ticks.Add(1)
	return frame
}

// Run drives the channel at the format's frame rate until ctx is
// cancelled, handing each output frame to consume. A consume error
// stops the channel and is returned.
func (c *Channel) Run(ctx context.Context, consume func(media.OutputFrame) error) error {
	interval := time.Duration(float64(time.Second) / c.format.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.log.Info("channel running", "format", c.format.Name, "interval", interval)
	for {
		select {
		case <-ctx.Done():
			c.log.Info("channel stopped", "ticks", c.ticks.Load())
			return nil
		case <-ticker.C:
			if err := consume(c.TickOnce()); err != nil {
				return fmt.Errorf("consume frame: %w", err)
			}
		}
	}
}

// Close shuts down the stage and mixer executors.
func (c *Channel) Close() {
	c.stage.Close()
	c.mixer.Close()
}
