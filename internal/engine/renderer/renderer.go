// Package renderer is the OpenGL 4.1 backend of the compositor.
package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/modelviewer/internal/engine/compositor"
	"github.com/Faultbox/modelviewer/internal/engine/framebuffer"
	"github.com/Faultbox/modelviewer/internal/engine/renderer/shaders"
	"github.com/Faultbox/modelviewer/internal/engine/shader"
	"github.com/Faultbox/modelviewer/internal/engine/shadow"
	"github.com/Faultbox/modelviewer/internal/logger"
)

// ErrForeignTarget is returned when a target was not created by this backend.
var ErrForeignTarget = errors.New("target not created by the GL backend")

// Config holds renderer configuration.
type Config struct {
	ShadowMapSize int32
}

// GL implements compositor.Backend.
// IMPORTANT: New must be called after the OpenGL context is created, and
// every method must run on the thread that owns the context.
type GL struct {
	config Config
	log    *zap.Logger

	sceneProg   *shader.Program
	depthProg   *shader.Program
	brightProg  *shader.Program
	blurProg    *shader.Program
	bloomProg   *shader.Program
	filmProg    *shader.Program
	presentProg *shader.Program

	// Empty VAO for the attribute-less fullscreen triangle
	quadVAO uint32

	shadowMap *shadow.Map
	meshes    *meshCache

	screenW, screenH int32
	presented        *target
}

// New initializes OpenGL and compiles every program.
func New(cfg Config) (*GL, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	if cfg.ShadowMapSize <= 0 {
		cfg.ShadowMapSize = shadow.DefaultResolution
	}

	r := &GL{
		config: cfg,
		log:    logger.Named("renderer"),
		meshes: newMeshCache(),
	}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	programs := []struct {
		dst        **shader.Program
		name       string
		vert, frag string
	}{
		{&r.sceneProg, "scene", shaders.SceneVertexShader, shaders.SceneFragmentShader},
		{&r.depthProg, "depth", shaders.DepthVertexShader, shaders.DepthFragmentShader},
		{&r.brightProg, "bright", shaders.FullscreenVertexShader, shaders.BrightFragmentShader},
		{&r.blurProg, "blur", shaders.FullscreenVertexShader, shaders.BlurFragmentShader},
		{&r.bloomProg, "bloom", shaders.FullscreenVertexShader, shaders.BloomCompositeFragmentShader},
		{&r.filmProg, "film", shaders.FullscreenVertexShader, shaders.FilmFragmentShader},
		{&r.presentProg, "present", shaders.FullscreenVertexShader, shaders.PresentFragmentShader},
	}
	for _, p := range programs {
		prog, err := shader.NewProgram(p.name, p.vert, p.frag)
		if err != nil {
			r.Close()
			return nil, err
		}
		*p.dst = prog
	}

	sm, err := shadow.NewMap(cfg.ShadowMapSize)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.shadowMap = sm

	gl.GenVertexArrays(1, &r.quadVAO)
	gl.Enable(gl.MULTISAMPLE)

	return r, nil
}

// SetScreenSize sets the default framebuffer size in device pixels.
func (r *GL) SetScreenSize(width, height int) {
	r.screenW, r.screenH = int32(width), int32(height)
}

// OnViewportResize implements viewport.ResizeListener.
func (r *GL) OnViewportResize(width, height int, ratio float32) {
	w, h := drawableSize(width, height, ratio)
	r.SetScreenSize(w, h)
}

// Close releases every GPU resource.
func (r *GL) Close() {
	r.log.Info("closing renderer")
	for _, p := range []*shader.Program{
		r.sceneProg, r.depthProg, r.brightProg, r.blurProg,
		r.bloomProg, r.filmProg, r.presentProg,
	} {
		if p != nil {
			p.Delete()
		}
	}
	if r.shadowMap != nil {
		r.shadowMap.Destroy()
		r.shadowMap = nil
	}
	if r.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &r.quadVAO)
		r.quadVAO = 0
	}
	r.meshes.clear()
}

// target adapts a framebuffer to compositor.Target.
type target struct {
	*framebuffer.Framebuffer
}

// NewTarget allocates an HDR offscreen buffer with depth.
func (r *GL) NewTarget(width, height int) (compositor.Target, error) {
	fb, err := framebuffer.New(width, height, framebuffer.FormatHDR, true)
	if err != nil {
		return nil, err
	}
	return &target{fb}, nil
}

func asTarget(t compositor.Target) (*target, error) {
	tg, ok := t.(*target)
	if !ok || tg == nil {
		return nil, ErrForeignTarget
	}
	return tg, nil
}

// drawFullscreen draws one screen-covering triangle with the current program.
func (r *GL) drawFullscreen() {
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(r.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
}

func bindTexture(unit uint32, tex uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, tex)
}
