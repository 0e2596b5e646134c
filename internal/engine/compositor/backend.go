// Package compositor runs the ordered post-processing chain that turns the
// scene into the presented frame: base render, bloom, film grain.
package compositor

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/modelviewer/internal/engine/scene"
)

// Target is an offscreen colour buffer.
type Target interface {
	Size() (width, height int)
	Resize(width, height int) error
	Destroy()
}

// Backend performs the GPU work for each pass.
type Backend interface {
	NewTarget(width, height int) (Target, error)
	// DrawScene renders the scene into dst.
	DrawScene(dst Target, f *Frame) error
	// DrawBloom writes src plus its blurred highlights into dst.
	DrawBloom(src, dst Target, chain *BloomChain, p BloomParams) error
	// DrawFilm writes src with noise and scanlines into dst.
	DrawFilm(src, dst Target, p FilmParams, time float32) error
	// Present copies src to the screen.
	Present(src Target) error
}

// Frame is the per-frame input shared by every pass.
type Frame struct {
	Scene      scene.View
	View       mgl32.Mat4
	Projection mgl32.Mat4
	CameraPos  mgl32.Vec3
	Time       float32 // seconds since start
	Delta      float32 // seconds since previous frame
}
