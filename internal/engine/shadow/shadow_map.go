// Package shadow renders the directional light's depth map.
package shadow

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// DefaultResolution is the default shadow map resolution.
const DefaultResolution = 2048

// Map is a depth-only framebuffer sampled with sampler2DShadow.
type Map struct {
	Resolution int32 // width = height

	fbo   uint32
	depth uint32
}

// NewMap creates a shadow map of resolution x resolution texels.
func NewMap(resolution int32) (*Map, error) {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	sm := &Map{Resolution: resolution}

	gl.GenFramebuffers(1, &sm.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, sm.fbo)

	gl.GenTextures(1, &sm.depth)
	gl.BindTexture(gl.TEXTURE_2D, sm.depth)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, resolution, resolution, 0,
		gl.DEPTH_COMPONENT, gl.FLOAT, nil)

	// LINEAR with compare mode gives hardware 2x2 PCF per tap
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	// Outside the light frustum counts as lit
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
	border := [4]float32{1, 1, 1, 1}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)

	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, sm.depth, 0)
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		sm.Destroy()
		return nil, fmt.Errorf("shadow map %d: framebuffer incomplete: 0x%x", resolution, status)
	}
	return sm, nil
}

// Render clears the map, runs draw into it with front-face culling, and
// restores the previous framebuffer, viewport and culling state.
func (sm *Map) Render(draw func()) {
	var prevFBO int32
	var prevViewport [4]int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.GetIntegerv(gl.VIEWPORT, &prevViewport[0])

	gl.BindFramebuffer(gl.FRAMEBUFFER, sm.fbo)
	gl.Viewport(0, 0, sm.Resolution, sm.Resolution)
	gl.Clear(gl.DEPTH_BUFFER_BIT)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	// Front faces are culled to reduce acne on lit surfaces
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.FRONT)

	draw()

	gl.CullFace(gl.BACK)
	gl.Disable(gl.CULL_FACE)
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))
	gl.Viewport(prevViewport[0], prevViewport[1], prevViewport[2], prevViewport[3])
}

// BindTexture binds the depth texture to unit (gl.TEXTURE0 + n).
func (sm *Map) BindTexture(unit uint32) {
	gl.ActiveTexture(unit)
	gl.BindTexture(gl.TEXTURE_2D, sm.depth)
}

// Texel returns the size of one texel in texture coordinates.
func (sm *Map) Texel() float32 {
	return 1 / float32(sm.Resolution)
}

// Destroy releases the framebuffer and texture.
func (sm *Map) Destroy() {
	if sm.fbo != 0 {
		gl.DeleteFramebuffers(1, &sm.fbo)
		sm.fbo = 0
	}
	if sm.depth != 0 {
		gl.DeleteTextures(1, &sm.depth)
		sm.depth = 0
	}
}
