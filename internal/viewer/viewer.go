// Package viewer wires the surface, scene, loader, camera and compositor into
// the running model viewer.
package viewer

import (
	"context"
	"errors"
	"fmt"
	gomath "math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/modelviewer/internal/config"
	"github.com/Faultbox/modelviewer/internal/engine/camera"
	"github.com/Faultbox/modelviewer/internal/engine/compositor"
	"github.com/Faultbox/modelviewer/internal/engine/debug"
	"github.com/Faultbox/modelviewer/internal/engine/frame"
	"github.com/Faultbox/modelviewer/internal/engine/input"
	"github.com/Faultbox/modelviewer/internal/engine/lighting"
	"github.com/Faultbox/modelviewer/internal/engine/loader"
	"github.com/Faultbox/modelviewer/internal/engine/material"
	"github.com/Faultbox/modelviewer/internal/engine/scene"
	"github.com/Faultbox/modelviewer/internal/engine/viewport"
	"github.com/Faultbox/modelviewer/internal/logger"
)

// Deps are the platform pieces the viewer runs on.
type Deps struct {
	Host    viewport.Host
	Backend compositor.Backend
	Decoder loader.Decoder
	Source  frame.Source

	// Paths overrides cfg.Viewer.Models. The load index is the position.
	Paths []string
	// ContainerID overrides cfg.Viewer.ContainerID.
	ContainerID string

	// Poll returns pending input events. Called at the start of each update.
	Poll func() []input.Event
	// Swap presents the default framebuffer after each render.
	Swap func()
	// Pixels reads the presented frame for screenshots. Defaults to Backend
	// when it implements debug.PixelReader.
	Pixels debug.PixelReader
}

// Viewer owns every component for the lifetime of one mounted surface.
type Viewer struct {
	cfg   *config.Config
	paths []string
	log   *zap.Logger

	surface   *viewport.Surface
	scene     *scene.Scene
	camera    *camera.Perspective
	controls  *camera.OrbitControls
	composer  *compositor.Composer
	loader    *loader.Loader
	scheduler *frame.Scheduler
	capturer  *debug.Capturer

	poll   func() []input.Event
	swap   func()
	pixels debug.PixelReader

	detach     []func()
	elapsed    float32
	screenshot bool

	// FPS counter
	frames   int
	fpsTimer time.Time

	closeOnce sync.Once
}

// New builds the viewer in dependency order: surface, scene, camera,
// compositor, loader. A missing container is returned as a
// *viewport.FatalInitError.
func New(cfg *config.Config, deps Deps) (*Viewer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if deps.Backend == nil || deps.Decoder == nil || deps.Source == nil {
		return nil, errors.New("viewer: backend, decoder and source are required")
	}

	id := deps.ContainerID
	if id == "" {
		id = cfg.Viewer.ContainerID
	}
	paths := deps.Paths
	if paths == nil {
		paths = cfg.Viewer.Models
	}

	v := &Viewer{
		cfg:      cfg,
		paths:    append([]string(nil), paths...),
		log:      logger.Named("viewer"),
		poll:     deps.Poll,
		swap:     deps.Swap,
		pixels:   deps.Pixels,
		capturer: debug.NewCapturer(cfg.Viewer.ScreenshotDir, "viewer"),
		fpsTimer: time.Now(),
	}
	if v.pixels == nil {
		v.pixels, _ = deps.Backend.(debug.PixelReader)
	}

	var err error
	v.surface, err = viewport.NewWithMaxRatio(deps.Host, id, cfg.Graphics.MaxPixelRatio)
	if err != nil {
		return nil, err
	}

	v.scene = scene.New()
	v.scene.SetBackground(scene.DefaultBackground)
	v.scene.AddGround()
	if err := v.scene.AddLights(lighting.DefaultSet()); err != nil {
		return nil, fmt.Errorf("adding lights: %w", err)
	}

	v.camera = camera.NewPerspective(cfg.Camera.FOV, v.surface.Aspect(), cfg.Camera.Near, cfg.Camera.Far)
	v.camera.Position = mgl32.Vec3(cfg.Camera.Position)
	orbit := camera.DefaultOrbitConfig()
	orbit.DampingFactor = cfg.Camera.Damping
	if cfg.Camera.MaxPolarDeg > 0 {
		orbit.MaxPolar = mgl32.DegToRad(cfg.Camera.MaxPolarDeg)
	}
	v.controls = camera.NewOrbitControls(v.camera, orbit)

	dw, dh := v.surface.DrawableSize()
	v.composer, err = compositor.New(deps.Backend, dw, dh,
		compositor.DefaultChain(bloomParams(cfg.PostFX), filmParams(cfg.PostFX))...)
	if err != nil {
		v.surface.Close()
		return nil, fmt.Errorf("creating compositor: %w", err)
	}

	// Camera before buffers, so a frame never sees new buffers with a stale aspect.
	v.detach = append(v.detach, v.surface.OnResize(v.controls))
	if l, ok := deps.Backend.(viewport.ResizeListener); ok {
		w, h := v.surface.Size()
		l.OnViewportResize(w, h, v.surface.PixelRatio())
		v.detach = append(v.detach, v.surface.OnResize(l))
	}
	v.detach = append(v.detach, v.surface.OnResize(v.composer))

	queue := &frame.Queue{}
	v.loader = loader.New(deps.Decoder, v.scene, loader.Options{
		Slots:      len(v.paths),
		Timeout:    cfg.Loader.Timeout,
		Material:   material.Showcase(),
		Dispatcher: queue,
	})
	v.scheduler = frame.NewScheduler(deps.Source, queue, frame.Steps{
		Update: v.update,
		Render: v.render,
	})

	w, h := v.surface.Size()
	v.log.Info("viewer initialized",
		zap.String("container", id),
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Float32("pixelRatio", v.surface.PixelRatio()),
		zap.Int("models", len(v.paths)),
	)
	return v, nil
}

func bloomParams(c config.PostFXConfig) compositor.BloomParams {
	return compositor.BloomParams{
		Strength:  c.BloomStrength,
		Radius:    c.BloomRadius,
		Threshold: c.BloomThreshold,
	}
}

func filmParams(c config.PostFXConfig) compositor.FilmParams {
	return compositor.FilmParams{
		NoiseIntensity:    c.FilmNoise,
		ScanlineIntensity: c.FilmScanlines,
		ScanlineCount:     c.FilmScanlineCount,
		Grayscale:         c.FilmGrayscale,
	}
}

// Start requests every model. Requests return at once; models appear as
// their decodes finish. Failed requests are logged and do not stop the rest.
func (v *Viewer) Start() error {
	err := v.loader.LoadAll(v.paths)
	if err != nil {
		v.log.Warn("some model requests were rejected", zap.Error(err))
	}
	return err
}

// Run drives frames on the calling goroutine until ctx is done, Stop is
// called or a quit event arrives.
func (v *Viewer) Run(ctx context.Context) error {
	v.log.Info("starting render loop")
	return v.scheduler.Run(ctx)
}

// Stop ends the render loop after the current frame.
func (v *Viewer) Stop() {
	v.scheduler.RequestStop()
}

// Close stops loading and releases everything in reverse creation order.
func (v *Viewer) Close() {
	v.closeOnce.Do(func() {
		v.log.Info("closing viewer")
		v.scheduler.Stop()
		v.loader.Close()
		for i := len(v.detach) - 1; i >= 0; i-- {
			v.detach[i]()
		}
		v.composer.Destroy()
		v.surface.Close()
	})
}

// Post schedules fn on the render goroutine before the next update.
// Safe to call from any goroutine.
func (v *Viewer) Post(fn func()) {
	v.scheduler.Queue().Post(fn)
}

// RequestResize applies a host resize on the render goroutine.
func (v *Viewer) RequestResize(width, height int, ratio float32) {
	v.Post(func() { v.surface.Resize(width, height, ratio) })
}

// HandleEvent routes one input event. Call it from the render goroutine.
func (v *Viewer) HandleEvent(e input.Event) {
	switch e.Type {
	case input.EventQuit:
		v.scheduler.RequestStop()

	case input.EventWindowResize:
		ratio := e.PixelRatio
		if ratio == 0 {
			ratio = v.surface.PixelRatio()
		}
		v.surface.Resize(e.Width, e.Height, ratio)

	case input.EventMouseMove:
		if e.Dragged == input.ButtonLeft {
			_, h := v.surface.Size()
			v.controls.HandleDrag(e.DeltaX, e.DeltaY, h)
		}

	case input.EventMouseWheel:
		v.controls.HandleWheel(e.WheelY)

	case input.EventKeyDown:
		switch e.Key {
		case input.KeyEscape:
			v.scheduler.RequestStop()
		case input.KeyF12:
			v.screenshot = true
		}
	}
}

func (v *Viewer) update(dt float32) {
	if v.poll != nil {
		for _, e := range v.poll() {
			v.HandleEvent(e)
		}
	}
	v.elapsed += dt
	v.controls.Update(dt)
}

func (v *Viewer) render(dt float32) error {
	f := v.Frame(dt)
	if err := v.composer.RenderFrame(&f); err != nil {
		return err
	}

	if v.screenshot {
		v.screenshot = false
		v.captureScreenshot()
	}
	if v.swap != nil {
		v.swap()
	}

	v.frames++
	if time.Since(v.fpsTimer) >= time.Second {
		v.log.Debug("fps",
			zap.Int("count", v.frames),
			zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)),
			zap.Int("models", v.scene.Len()),
		)
		v.frames = 0
		v.fpsTimer = time.Now()
	}
	return nil
}

// Frame builds the per-frame input from the current scene and camera.
func (v *Viewer) Frame(dt float32) compositor.Frame {
	return compositor.Frame{
		Scene:      v.scene.Snapshot(),
		View:       v.camera.View(),
		Projection: v.camera.Projection(),
		CameraPos:  v.camera.Position,
		Time:       float32(gomath.Mod(float64(v.elapsed), 3600)),
		Delta:      dt,
	}
}

func (v *Viewer) captureScreenshot() {
	if v.pixels == nil {
		v.log.Warn("screenshot unavailable: backend cannot read pixels")
		return
	}
	path, err := v.capturer.Capture(v.pixels)
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

// Surface returns the mounted viewport surface.
func (v *Viewer) Surface() *viewport.Surface { return v.surface }

// Scene returns the scene graph.
func (v *Viewer) Scene() *scene.Scene { return v.scene }

// Camera returns the perspective camera.
func (v *Viewer) Camera() *camera.Perspective { return v.camera }

// Controls returns the orbit controls.
func (v *Viewer) Controls() *camera.OrbitControls { return v.controls }

// Composer returns the pass chain.
func (v *Viewer) Composer() *compositor.Composer { return v.composer }

// Loader returns the asset loader.
func (v *Viewer) Loader() *loader.Loader { return v.loader }

// Scheduler returns the frame scheduler.
func (v *Viewer) Scheduler() *frame.Scheduler { return v.scheduler }
