package compositor

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/modelviewer/internal/engine/viewport"
	"github.com/Faultbox/modelviewer/internal/logger"
)

// Composer owns the read/write buffers and runs the pass chain.
type Composer struct {
	backend Backend
	passes  []Pass
	read    Target
	write   Target
	width   int
	height  int
	log     *zap.Logger
}

// ValidateChain checks that passes start with exactly one base render and
// that effect kinds never go backwards.
func ValidateChain(passes []Pass) error {
	if len(passes) == 0 {
		return fmt.Errorf("%w: empty chain", ErrPassOrder)
	}
	if passes[0].Kind() != KindBaseRender {
		return fmt.Errorf("%w: chain starts with %v", ErrPassOrder, passes[0].Kind())
	}
	for i := 1; i < len(passes); i++ {
		prev, cur := passes[i-1].Kind(), passes[i].Kind()
		if cur == KindBaseRender {
			return fmt.Errorf("%w: second base render at %d", ErrPassOrder, i)
		}
		if cur < prev {
			return fmt.Errorf("%w: %v after %v", ErrPassOrder, cur, prev)
		}
	}
	return nil
}

// DefaultChain returns base render, bloom and film grain with the given settings.
func DefaultChain(bloom BloomParams, film FilmParams) []Pass {
	return []Pass{NewRenderPass(), NewBloomPass(bloom), NewFilmPass(film)}
}

// New validates the chain and allocates every buffer at width x height
// device pixels.
func New(b Backend, width, height int, passes ...Pass) (*Composer, error) {
	if err := ValidateChain(passes); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("compositor %dx%d: %w", width, height, ErrInvalidSize)
	}

	c := &Composer{
		backend: b,
		width:   width,
		height:  height,
		log:     logger.Named("compositor"),
	}

	var err error
	if c.read, err = b.NewTarget(width, height); err != nil {
		return nil, fmt.Errorf("read buffer: %w", err)
	}
	if c.write, err = b.NewTarget(width, height); err != nil {
		c.Destroy()
		return nil, fmt.Errorf("write buffer: %w", err)
	}
	for _, p := range passes {
		if err := p.Init(b, width, height); err != nil {
			c.Destroy()
			return nil, fmt.Errorf("init %v pass: %w", p.Kind(), err)
		}
		c.passes = append(c.passes, p)
	}

	c.log.Debug("compositor ready",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("passes", len(passes)),
	)
	return c, nil
}

// RenderFrame runs every enabled pass in order and presents the result.
// A failing pass aborts the frame; the next frame starts over.
func (c *Composer) RenderFrame(f *Frame) error {
	for _, p := range c.passes {
		if !p.Enabled() {
			continue
		}
		if err := p.Render(c.backend, c.read, c.write, f); err != nil {
			return fmt.Errorf("%v pass: %w", p.Kind(), err)
		}
		if p.NeedsSwap() {
			c.read, c.write = c.write, c.read
		}
	}
	if err := c.backend.Present(c.read); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// Resize reallocates the composer buffers and every pass at width x height.
// If any buffer fails, all of them return to the previous size and a
// *ResizeApplyError is returned.
func (c *Composer) Resize(width, height int) error {
	prevW, prevH := c.width, c.height
	if width <= 0 || height <= 0 {
		return &ResizeApplyError{Width: width, Height: height, PrevWidth: prevW, PrevHeight: prevH, Err: ErrInvalidSize}
	}
	if width == prevW && height == prevH {
		return nil
	}

	if err := c.resizeAll(width, height); err != nil {
		if rbErr := c.resizeAll(prevW, prevH); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return &ResizeApplyError{Width: width, Height: height, PrevWidth: prevW, PrevHeight: prevH, Err: err}
	}

	c.width, c.height = width, height
	c.log.Debug("compositor resized", zap.Int("width", width), zap.Int("height", height))
	return nil
}

func (c *Composer) resizeAll(width, height int) error {
	var errs []error
	if err := c.read.Resize(width, height); err != nil {
		errs = append(errs, fmt.Errorf("read buffer: %w", err))
	}
	if err := c.write.Resize(width, height); err != nil {
		errs = append(errs, fmt.Errorf("write buffer: %w", err))
	}
	for _, p := range c.passes {
		if err := p.Resize(width, height); err != nil {
			errs = append(errs, fmt.Errorf("%v pass: %w", p.Kind(), err))
		}
	}
	return errors.Join(errs...)
}

// OnViewportResize implements viewport.ResizeListener. Buffers follow the
// drawable size. Failures are logged and the previous size is kept.
func (c *Composer) OnViewportResize(width, height int, ratio float32) {
	w, h := viewport.DrawableSizeOf(width, height, ratio)
	if err := c.Resize(w, h); err != nil {
		c.log.Error("resize not applied", zap.Error(err))
	}
}

// Size returns the committed buffer size in device pixels.
func (c *Composer) Size() (int, int) { return c.width, c.height }

// Passes returns the chain in execution order.
func (c *Composer) Passes() []Pass {
	return append([]Pass(nil), c.passes...)
}

// Buffers returns the composer and pass buffers.
func (c *Composer) Buffers() []Target {
	out := []Target{c.read, c.write}
	for _, p := range c.passes {
		out = append(out, p.Buffers()...)
	}
	return out
}

// Destroy frees every buffer.
func (c *Composer) Destroy() {
	for _, p := range c.passes {
		p.Destroy()
	}
	c.passes = nil
	if c.read != nil {
		c.read.Destroy()
		c.read = nil
	}
	if c.write != nil {
		c.write.Destroy()
		c.write = nil
	}
}
