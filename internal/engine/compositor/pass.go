package compositor

import "fmt"

// Kind identifies a pass. Kinds must appear in ascending order in a chain.
type Kind int

const (
	KindBaseRender Kind = iota
	KindBloom
	KindFilmGrain
)

func (k Kind) String() string {
	switch k {
	case KindBaseRender:
		return "base-render"
	case KindBloom:
		return "bloom"
	case KindFilmGrain:
		return "film-grain"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Pass is one stage of the chain.
type Pass interface {
	Kind() Kind
	// Init allocates pass-owned buffers at the given size.
	Init(b Backend, width, height int) error
	Resize(width, height int) error
	// Render reads from read and, for passes that swap, writes into write.
	Render(b Backend, read, write Target, f *Frame) error
	// NeedsSwap reports whether read and write swap after Render.
	NeedsSwap() bool
	Enabled() bool
	Size() (width, height int)
	// Buffers returns the pass-owned targets.
	Buffers() []Target
	Destroy()
}

// basePass carries the bookkeeping shared by every pass.
type basePass struct {
	width, height int
	disabled      bool
}

func (p *basePass) Size() (int, int) { return p.width, p.height }

func (p *basePass) Enabled() bool { return !p.disabled }

// SetEnabled turns the pass on or off. Disabled passes are skipped.
func (p *basePass) SetEnabled(on bool) { p.disabled = !on }

// RenderPass draws the scene into the read buffer.
type RenderPass struct {
	basePass
}

// NewRenderPass creates the base render pass.
func NewRenderPass() *RenderPass { return &RenderPass{} }

func (p *RenderPass) Kind() Kind        { return KindBaseRender }
func (p *RenderPass) NeedsSwap() bool   { return false }
func (p *RenderPass) Buffers() []Target { return nil }
func (p *RenderPass) Destroy()          {}

func (p *RenderPass) Init(_ Backend, width, height int) error {
	p.width, p.height = width, height
	return nil
}

func (p *RenderPass) Resize(width, height int) error {
	p.width, p.height = width, height
	return nil
}

func (p *RenderPass) Render(b Backend, read, _ Target, f *Frame) error {
	return b.DrawScene(read, f)
}

// FilmParams configures the film grain pass.
type FilmParams struct {
	NoiseIntensity    float32
	ScanlineIntensity float32
	ScanlineCount     int
	Grayscale         bool
}

// DefaultFilmParams is subtle grain with 648 faint scanlines in colour.
func DefaultFilmParams() FilmParams {
	return FilmParams{
		NoiseIntensity:    0.35,
		ScanlineIntensity: 0.025,
		ScanlineCount:     648,
		Grayscale:         false,
	}
}

// FilmPass overlays animated noise and scanlines.
type FilmPass struct {
	basePass
	Params FilmParams
}

// NewFilmPass creates a film grain pass.
func NewFilmPass(p FilmParams) *FilmPass { return &FilmPass{Params: p} }

func (p *FilmPass) Kind() Kind        { return KindFilmGrain }
func (p *FilmPass) NeedsSwap() bool   { return true }
func (p *FilmPass) Buffers() []Target { return nil }
func (p *FilmPass) Destroy()          {}

func (p *FilmPass) Init(_ Backend, width, height int) error {
	p.width, p.height = width, height
	return nil
}

func (p *FilmPass) Resize(width, height int) error {
	p.width, p.height = width, height
	return nil
}

func (p *FilmPass) Render(b Backend, read, write Target, f *Frame) error {
	return b.DrawFilm(read, write, p.Params, f.Time)
}
