// Package framebuffer provides OpenGL offscreen render targets.
package framebuffer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Format selects the colour attachment storage.
type Format int

const (
	// FormatLDR stores 8-bit RGBA.
	FormatLDR Format = iota
	// FormatHDR stores 16-bit float RGBA so highlights above 1.0 survive
	// until the bloom threshold.
	FormatHDR
)

func (f Format) internal() (internalFormat int32, pixelType uint32) {
	if f == FormatHDR {
		return gl.RGBA16F, gl.HALF_FLOAT
	}
	return gl.RGBA8, gl.UNSIGNED_BYTE
}

// Framebuffer is a colour texture with an optional depth renderbuffer.
type Framebuffer struct {
	fbo          uint32
	colorTexture uint32
	depthRBO     uint32
	width        int32
	height       int32
	format       Format
	depth        bool
}

// New creates a framebuffer of width x height pixels.
func New(width, height int, format Format, depth bool) (*Framebuffer, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("framebuffer %dx%d: size must be positive", width, height)
	}

	fb := &Framebuffer{
		width:  int32(width),
		height: int32(height),
		format: format,
		depth:  depth,
	}
	if err := fb.create(); err != nil {
		return nil, fmt.Errorf("creating framebuffer: %w", err)
	}
	return fb, nil
}

func (fb *Framebuffer) create() error {
	gl.GenFramebuffers(1, &fb.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	gl.GenTextures(1, &fb.colorTexture)
	gl.BindTexture(gl.TEXTURE_2D, fb.colorTexture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, fb.colorTexture, 0)

	if fb.depth {
		gl.GenRenderbuffers(1, &fb.depthRBO)
		gl.BindRenderbuffer(gl.RENDERBUFFER, fb.depthRBO)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, fb.depthRBO)
	}

	if err := fb.allocate(fb.width, fb.height); err != nil {
		fb.Destroy()
		return err
	}
	return nil
}

// allocate (re)creates attachment storage and checks completeness.
// The framebuffer must be bound.
func (fb *Framebuffer) allocate(width, height int32) error {
	for gl.GetError() != gl.NO_ERROR {
	}

	internalFormat, pixelType := fb.format.internal()
	gl.BindTexture(gl.TEXTURE_2D, fb.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internalFormat, width, height, 0, gl.RGBA, pixelType, nil)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if fb.depth {
		gl.BindRenderbuffer(gl.RENDERBUFFER, fb.depthRBO)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, width, height)
		gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	}

	if e := gl.GetError(); e != gl.NO_ERROR {
		return fmt.Errorf("allocating %dx%d: gl error 0x%x", width, height, e)
	}
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	return nil
}

// Bind makes this framebuffer the current render target and sets the viewport.
func (fb *Framebuffer) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.Viewport(0, 0, fb.width, fb.height)
}

// Clear clears colour and, when attached, depth.
func (fb *Framebuffer) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	mask := uint32(gl.COLOR_BUFFER_BIT)
	if fb.depth {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(mask)
}

// ColorTexture returns the color attachment texture ID.
func (fb *Framebuffer) ColorTexture() uint32 {
	return fb.colorTexture
}

// Size returns the framebuffer dimensions.
func (fb *Framebuffer) Size() (width, height int) {
	return int(fb.width), int(fb.height)
}

// Resize reallocates the attachments. On failure the previous storage size
// is restored and an error is returned.
func (fb *Framebuffer) Resize(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("framebuffer resize %dx%d: size must be positive", width, height)
	}
	w, h := int32(width), int32(height)
	if w == fb.width && h == fb.height {
		return nil
	}

	var prevFBO int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))

	if err := fb.allocate(w, h); err != nil {
		if rbErr := fb.allocate(fb.width, fb.height); rbErr != nil {
			return fmt.Errorf("%w (restore failed: %v)", err, rbErr)
		}
		return err
	}
	fb.width, fb.height = w, h
	return nil
}

// Destroy releases all OpenGL resources.
func (fb *Framebuffer) Destroy() {
	if fb.fbo != 0 {
		gl.DeleteFramebuffers(1, &fb.fbo)
		fb.fbo = 0
	}
	if fb.colorTexture != 0 {
		gl.DeleteTextures(1, &fb.colorTexture)
		fb.colorTexture = 0
	}
	if fb.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &fb.depthRBO)
		fb.depthRBO = 0
	}
}
