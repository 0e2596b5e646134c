// Package frame drives the render loop: one tick per display refresh, each
// tick draining posted work, updating and rendering.
package frame

import (
	"context"
	"time"
)

// Source paces ticks. Next blocks until the next frame should start.
type Source interface {
	Next(ctx context.Context) (time.Time, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (time.Time, error)

// Next calls f.
func (f SourceFunc) Next(ctx context.Context) (time.Time, error) { return f(ctx) }

// IntervalSource ticks at a fixed rate.
type IntervalSource struct {
	ticker *time.Ticker
}

// NewIntervalSource ticks fps times per second. fps <= 0 defaults to 60.
func NewIntervalSource(fps int) *IntervalSource {
	if fps <= 0 {
		fps = 60
	}
	return &IntervalSource{ticker: time.NewTicker(time.Second / time.Duration(fps))}
}

// Next waits for the next tick.
func (s *IntervalSource) Next(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	select {
	case t := <-s.ticker.C:
		return t, nil
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	}
}

// Stop releases the ticker.
func (s *IntervalSource) Stop() {
	s.ticker.Stop()
}

// ImmediateSource never waits. Use it when the render step itself blocks on
// the display, e.g. a vsync buffer swap.
type ImmediateSource struct{}

// Next returns the current time unless ctx is done.
func (ImmediateSource) Next(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	return time.Now(), nil
}
