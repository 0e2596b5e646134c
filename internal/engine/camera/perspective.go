// Package camera provides the perspective camera and its orbit controls.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Default projection parameters.
const (
	DefaultFOV  = 75.0
	DefaultNear = 0.1
	DefaultFar  = 1000.0
)

// DefaultPosition is where the camera starts, looking at the origin.
var DefaultPosition = mgl32.Vec3{50, 80, 80}

// Perspective is a look-at camera with a perspective projection.
// FOV is the vertical field of view in degrees.
type Perspective struct {
	FOV      float32
	Aspect   float32
	Near     float32
	Far      float32
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	projection mgl32.Mat4
}

// NewPerspective creates a camera at DefaultPosition looking at the origin.
func NewPerspective(fov, aspect, near, far float32) *Perspective {
	c := &Perspective{
		FOV:      fov,
		Aspect:   1,
		Near:     near,
		Far:      far,
		Position: DefaultPosition,
		Up:       mgl32.Vec3{0, 1, 0},
	}
	c.SetAspect(aspect)
	return c
}

// SetAspect stores width/height and recomputes the projection before
// returning. Non-finite or non-positive values are ignored.
func (c *Perspective) SetAspect(aspect float32) {
	if !(aspect > 0) || gomath.IsInf(float64(aspect), 0) {
		return
	}
	c.Aspect = aspect
	c.UpdateProjection()
}

// UpdateProjection recomputes the projection from FOV, Aspect, Near and Far.
func (c *Perspective) UpdateProjection() {
	c.projection = mgl32.Perspective(mgl32.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// Projection returns the cached projection matrix.
func (c *Perspective) Projection() mgl32.Mat4 {
	return c.projection
}

// View returns the view matrix.
func (c *Perspective) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// OnViewportResize implements viewport.ResizeListener.
func (c *Perspective) OnViewportResize(width, height int, _ float32) {
	if width <= 0 || height <= 0 {
		return
	}
	c.SetAspect(float32(width) / float32(height))
}
