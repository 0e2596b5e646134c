package compositor

import (
	"errors"
	"fmt"
)

// BloomMips is the number of blur levels in the bloom chain.
const BloomMips = 5

// BloomParams configures the bloom pass.
type BloomParams struct {
	Strength  float32
	Radius    float32
	Threshold float32 // luminance above which pixels bloom
}

// DefaultBloomParams is a soft glow on highlights only.
func DefaultBloomParams() BloomParams {
	return BloomParams{Strength: 0.5, Radius: 0.4, Threshold: 0.85}
}

// BloomChain holds the bloom pass buffers. Bright is half resolution; each
// mip level halves again. Horizontal and Vertical ping-pong the separable blur.
type BloomChain struct {
	Bright     Target
	Horizontal []Target
	Vertical   []Target
}

// MipSize returns the buffer size of mip level i for a pass of width x height.
// Level 0 is half resolution. Sizes never drop below one pixel.
func MipSize(width, height, level int) (int, int) {
	w, h := width>>(level+1), height>>(level+1)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// BloomPass extracts bright areas, blurs them at several resolutions and
// adds the result back on top of the frame.
type BloomPass struct {
	basePass
	Params BloomParams
	chain  BloomChain
}

// NewBloomPass creates a bloom pass.
func NewBloomPass(p BloomParams) *BloomPass { return &BloomPass{Params: p} }

func (p *BloomPass) Kind() Kind      { return KindBloom }
func (p *BloomPass) NeedsSwap() bool { return true }

// Chain returns the pass buffers.
func (p *BloomPass) Chain() *BloomChain { return &p.chain }

func (p *BloomPass) Init(b Backend, width, height int) error {
	w, h := MipSize(width, height, 0)
	bright, err := b.NewTarget(w, h)
	if err != nil {
		return fmt.Errorf("bloom bright target: %w", err)
	}
	p.chain.Bright = bright

	for i := 0; i < BloomMips; i++ {
		w, h := MipSize(width, height, i)
		hz, err := b.NewTarget(w, h)
		if err != nil {
			p.Destroy()
			return fmt.Errorf("bloom mip %d: %w", i, err)
		}
		p.chain.Horizontal = append(p.chain.Horizontal, hz)

		vt, err := b.NewTarget(w, h)
		if err != nil {
			p.Destroy()
			return fmt.Errorf("bloom mip %d: %w", i, err)
		}
		p.chain.Vertical = append(p.chain.Vertical, vt)
	}
	p.width, p.height = width, height
	return nil
}

// Resize reallocates every bloom buffer. The pass size is committed only if
// all buffers resized.
func (p *BloomPass) Resize(width, height int) error {
	var errs []error
	w, h := MipSize(width, height, 0)
	if err := p.chain.Bright.Resize(w, h); err != nil {
		errs = append(errs, fmt.Errorf("bright: %w", err))
	}
	for i := range p.chain.Horizontal {
		w, h := MipSize(width, height, i)
		if err := p.chain.Horizontal[i].Resize(w, h); err != nil {
			errs = append(errs, fmt.Errorf("mip %d horizontal: %w", i, err))
		}
		if err := p.chain.Vertical[i].Resize(w, h); err != nil {
			errs = append(errs, fmt.Errorf("mip %d vertical: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	p.width, p.height = width, height
	return nil
}

func (p *BloomPass) Render(b Backend, read, write Target, _ *Frame) error {
	return b.DrawBloom(read, write, &p.chain, p.Params)
}

func (p *BloomPass) Buffers() []Target {
	var out []Target
	if p.chain.Bright != nil {
		out = append(out, p.chain.Bright)
	}
	out = append(out, p.chain.Horizontal...)
	out = append(out, p.chain.Vertical...)
	return out
}

func (p *BloomPass) Destroy() {
	for _, t := range p.Buffers() {
		t.Destroy()
	}
	p.chain = BloomChain{}
}
