package viewer

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/modelviewer/internal/config"
	"github.com/Faultbox/modelviewer/internal/engine/compositor"
	"github.com/Faultbox/modelviewer/internal/engine/input"
	"github.com/Faultbox/modelviewer/internal/engine/model"
	"github.com/Faultbox/modelviewer/internal/engine/viewport"
	"github.com/Faultbox/modelviewer/internal/logger"
)

func init() {
	logger.InitNop()
}

var testPaths = []string{"p0.glb", "p1.glb", "p2.glb", "p3.glb"}

// Fakes

type fakeContainer struct{ w, h int }

func (c *fakeContainer) Size() (int, int)    { return c.w, c.h }
func (c *fakeContainer) PixelRatio() float32 { return 1 }

type fakeHost struct {
	id string
	c  *fakeContainer
}

func (h fakeHost) Lookup(id string) (viewport.Container, error) {
	if id != h.id {
		return nil, viewport.ErrContainerNotFound
	}
	return h.c, nil
}

type fakeTarget struct{ w, h int }

func (t *fakeTarget) Size() (int, int) { return t.w, t.h }
func (t *fakeTarget) Resize(w, h int) error {
	t.w, t.h = w, h
	return nil
}
func (t *fakeTarget) Destroy() {}

// sceneCall is what the backend saw when drawing the scene.
type sceneCall struct {
	aspect  float32
	w, h    int
	models  int
	version uint64
}

type fakeBackend struct {
	presented chan struct{}
	failScene int // number of DrawScene calls that fail

	mu    sync.Mutex
	calls []sceneCall
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{presented: make(chan struct{}, 64)}
}

func (b *fakeBackend) NewTarget(w, h int) (compositor.Target, error) {
	return &fakeTarget{w: w, h: h}, nil
}

func (b *fakeBackend) DrawScene(dst compositor.Target, f *compositor.Frame) error {
	w, h := dst.Size()
	b.mu.Lock()
	b.calls = append(b.calls, sceneCall{
		aspect:  f.Projection[5] / f.Projection[0],
		w:       w,
		h:       h,
		models:  len(f.Scene.Models),
		version: f.Scene.Version,
	})
	fail := b.failScene > 0
	if fail {
		b.failScene--
	}
	b.mu.Unlock()
	if fail {
		b.presented <- struct{}{}
		return errors.New("device lost")
	}
	return nil
}

func (b *fakeBackend) DrawBloom(_, _ compositor.Target, _ *compositor.BloomChain, _ compositor.BloomParams) error {
	return nil
}

func (b *fakeBackend) DrawFilm(_, _ compositor.Target, _ compositor.FilmParams, _ float32) error {
	return nil
}

func (b *fakeBackend) Present(compositor.Target) error {
	b.presented <- struct{}{}
	return nil
}

func (b *fakeBackend) ReadPixels() ([]byte, int, int, error) {
	return make([]byte, 2*2*4), 2, 2, nil
}

func (b *fakeBackend) last() sceneCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[len(b.calls)-1]
}

// gatedDecoder blocks each path until released.
type gatedDecoder struct {
	gates map[string]chan struct{}
	fail  map[string]error
}

func newGatedDecoder(paths []string) *gatedDecoder {
	d := &gatedDecoder{gates: make(map[string]chan struct{}), fail: make(map[string]error)}
	for _, p := range paths {
		d.gates[p] = make(chan struct{})
	}
	return d
}

func (d *gatedDecoder) Decode(ctx context.Context, path string) ([]model.Mesh, error) {
	select {
	case <-d.gates[path]:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := d.fail[path]; err != nil {
		return nil, err
	}
	return []model.Mesh{{
		Name: path,
		Vertices: []model.Vertex{
			{Position: [3]float32{0, 0, 0}},
			{Position: [3]float32{1, 0, 0}},
			{Position: [3]float32{0, 1, 0}},
		},
		Indices: []uint32{0, 1, 2},
	}}, nil
}

func (d *gatedDecoder) release(path string) { close(d.gates[path]) }

// tickSource hands out one frame per value sent on ch.
type tickSource struct{ ch chan time.Time }

func (s tickSource) Next(ctx context.Context) (time.Time, error) {
	select {
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	case t := <-s.ch:
		return t, nil
	}
}

type harness struct {
	t       *testing.T
	v       *Viewer
	backend *fakeBackend
	decoder *gatedDecoder
	source  tickSource
	now     time.Time
	events  chan input.Event
	done    chan error
	cancel  context.CancelFunc
}

func newHarness(t *testing.T, w, h int) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.Viewer.ScreenshotDir = t.TempDir()

	hs := &harness{
		t:       t,
		backend: newFakeBackend(),
		decoder: newGatedDecoder(testPaths),
		source:  tickSource{ch: make(chan time.Time)},
		now:     time.Unix(1000, 0),
		events:  make(chan input.Event, 16),
	}

	v, err := New(cfg, Deps{
		Host:    fakeHost{id: cfg.Viewer.ContainerID, c: &fakeContainer{w: w, h: h}},
		Backend: hs.backend,
		Decoder: hs.decoder,
		Source:  hs.source,
		Paths:   testPaths,
		Poll:    hs.poll,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	hs.v = v

	ctx, cancel := context.WithCancel(context.Background())
	hs.cancel = cancel
	hs.done = make(chan error, 1)
	go func() { hs.done <- v.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		for _, gate := range hs.decoder.gates {
			select {
			case <-gate:
			default:
				close(gate)
			}
		}
		<-hs.done
		v.Close()
	})
	return hs
}

func (hs *harness) poll() []input.Event {
	var out []input.Event
	for {
		select {
		case e := <-hs.events:
			out = append(out, e)
		default:
			return out
		}
	}
}

// step runs one frame and waits for it to be presented.
func (hs *harness) step() {
	hs.t.Helper()
	hs.now = hs.now.Add(16 * time.Millisecond)
	select {
	case hs.source.ch <- hs.now:
	case <-time.After(2 * time.Second):
		hs.t.Fatal("scheduler did not take a tick")
	}
	select {
	case <-hs.backend.presented:
	case <-time.After(2 * time.Second):
		hs.t.Fatal("frame was not presented")
	}
}

// waitQueued waits until n callbacks are pending on the render queue.
func (hs *harness) waitQueued(n int) {
	hs.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hs.v.Scheduler().Queue().Len() < n {
		if time.Now().After(deadline) {
			hs.t.Fatalf("expected %d queued callbacks, got %d", n, hs.v.Scheduler().Queue().Len())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewMissingContainer(t *testing.T) {
	cfg := config.Default()
	_, err := New(cfg, Deps{
		Host:    fakeHost{id: "elsewhere", c: &fakeContainer{w: 800, h: 600}},
		Backend: newFakeBackend(),
		Decoder: newGatedDecoder(testPaths),
		Source:  tickSource{},
	})

	var fatal *viewport.FatalInitError
	if !errors.As(err, &fatal) {
		t.Fatalf("expected FatalInitError, got %v", err)
	}
	if fatal.ContainerID != cfg.Viewer.ContainerID {
		t.Errorf("expected container %q, got %q", cfg.Viewer.ContainerID, fatal.ContainerID)
	}
}

func TestNewRequiresDeps(t *testing.T) {
	if _, err := New(config.Default(), Deps{}); err == nil {
		t.Error("expected error without backend, decoder and source")
	}
}

func TestInitialSceneAndCamera(t *testing.T) {
	hs := newHarness(t, 800, 600)
	hs.step()

	call := hs.backend.last()
	if call.models != 0 {
		t.Errorf("expected no models before loading, got %d", call.models)
	}
	if call.w != 800 || call.h != 600 {
		t.Errorf("expected 800x600 buffers, got %dx%d", call.w, call.h)
	}
	if want := float32(800) / 600; !mgl32.FloatEqualThreshold(call.aspect, want, 1e-4) {
		t.Errorf("expected aspect %v, got %v", want, call.aspect)
	}
	if !hs.v.Camera().Position.ApproxEqualThreshold(mgl32.Vec3{50, 80, 80}, 1e-3) {
		t.Errorf("expected camera at (50,80,80), got %v", hs.v.Camera().Position)
	}
}

func TestEndToEndOutOfOrderCompletion(t *testing.T) {
	hs := newHarness(t, 800, 600)
	if err := hs.v.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for n, idx := range []int{2, 0, 3, 1} {
		hs.decoder.release(testPaths[idx])
		hs.waitQueued(1)
		hs.step()

		if !hs.v.Scene().Has(idx) {
			t.Fatalf("expected model %d in scene after its frame", idx)
		}
		if got := hs.backend.last().models; got != n+1 {
			t.Errorf("frame after completion %d: expected %d models drawn, got %d", n, n+1, got)
		}
	}

	want := []float32{-30, -10, 10, 30}
	models := hs.v.Scene().Models()
	if len(models) != 4 {
		t.Fatalf("expected 4 models, got %d", len(models))
	}
	for i, m := range models {
		if m.LoadIndex != i {
			t.Errorf("model %d: expected load index %d, got %d", i, i, m.LoadIndex)
		}
		if m.Transform.Position != (mgl32.Vec3{want[i], 0, 0}) {
			t.Errorf("model %d: expected x=%v, got %v", i, want[i], m.Transform.Position)
		}
		if m.SourcePath != testPaths[i] {
			t.Errorf("model %d: expected %s, got %s", i, testPaths[i], m.SourcePath)
		}
	}

	hs.v.RequestResize(1920, 1080, 1)
	hs.step()

	call := hs.backend.last()
	if want := float32(1920) / 1080; !mgl32.FloatEqualThreshold(call.aspect, want, 1e-4) {
		t.Errorf("expected aspect %v in the first frame after resize, got %v", want, call.aspect)
	}
	if call.w != 1920 || call.h != 1080 {
		t.Errorf("expected 1920x1080 target in the first frame after resize, got %dx%d", call.w, call.h)
	}
	for i, buf := range hs.v.Composer().Buffers()[:2] {
		if w, h := buf.Size(); w != 1920 || h != 1080 {
			t.Errorf("buffer %d: expected 1920x1080, got %dx%d", i, w, h)
		}
	}
	for _, p := range hs.v.Composer().Passes() {
		if w, h := p.Size(); w != 1920 || h != 1080 {
			t.Errorf("%v pass: expected 1920x1080, got %dx%d", p.Kind(), w, h)
		}
	}
}

func TestFailedAssetIsContained(t *testing.T) {
	hs := newHarness(t, 800, 600)
	hs.decoder.fail["p1.glb"] = errors.New("corrupt buffer")
	if err := hs.v.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for _, p := range testPaths {
		hs.decoder.release(p)
	}
	hs.waitQueued(3)
	hs.v.Loader().Wait()
	hs.step()

	if n := hs.v.Scene().Len(); n != 3 {
		t.Errorf("expected 3 models, got %d", n)
	}
	if hs.v.Scene().Has(1) {
		t.Error("failed model must not be in the scene")
	}
	failures := hs.v.Loader().Failures()
	if len(failures) != 1 || failures[0].Index != 1 {
		t.Errorf("expected one failure for index 1, got %v", failures)
	}

	hs.step()
	if hs.v.Scheduler().Errors() != 0 {
		t.Errorf("expected no frame errors, got %d", hs.v.Scheduler().Errors())
	}
}

func TestRenderErrorDoesNotStopLoop(t *testing.T) {
	hs := newHarness(t, 800, 600)
	hs.backend.mu.Lock()
	hs.backend.failScene = 1
	hs.backend.mu.Unlock()

	hs.step()
	hs.step()

	if got := hs.v.Scheduler().Errors(); got != 1 {
		t.Errorf("expected 1 frame error, got %d", got)
	}
	hs.backend.mu.Lock()
	n := len(hs.backend.calls)
	hs.backend.mu.Unlock()
	if n != 2 {
		t.Errorf("expected 2 scene draws, got %d", n)
	}
}

func TestInputEvents(t *testing.T) {
	hs := newHarness(t, 800, 600)
	hs.step()

	azimuth := hs.v.Controls().Azimuth()
	distance := hs.v.Controls().Distance()

	hs.events <- input.Event{Type: input.EventMouseMove, DeltaX: 100, Dragged: input.ButtonLeft}
	hs.events <- input.Event{Type: input.EventMouseMove, DeltaX: 100}
	hs.events <- input.Event{Type: input.EventMouseWheel, WheelY: 1}
	hs.step()

	if hs.v.Controls().Azimuth() == azimuth {
		t.Error("expected left drag to rotate the camera")
	}
	if hs.v.Controls().Distance() >= distance {
		t.Errorf("expected wheel to zoom in from %v, got %v", distance, hs.v.Controls().Distance())
	}

	hs.events <- input.Event{Type: input.EventWindowResize, Width: 1024, Height: 512, PixelRatio: 1}
	hs.step()
	if a := hs.backend.last().aspect; !mgl32.FloatEqualThreshold(a, 2, 1e-4) {
		t.Errorf("expected aspect 2 after window resize, got %v", a)
	}
}

func TestScreenshotKey(t *testing.T) {
	hs := newHarness(t, 800, 600)
	hs.events <- input.Event{Type: input.EventKeyDown, Key: input.KeyF12}
	hs.step()

	entries, err := os.ReadDir(hs.v.cfg.Viewer.ScreenshotDir)
	if err != nil {
		t.Fatalf("reading screenshot dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 screenshot, got %d", len(entries))
	}
}

func TestEscapeStopsRun(t *testing.T) {
	hs := newHarness(t, 800, 600)
	hs.events <- input.Event{Type: input.EventKeyDown, Key: input.KeyEscape}
	hs.step()

	select {
	case err := <-hs.done:
		if err != nil {
			t.Errorf("expected clean stop, got %v", err)
		}
		hs.done <- err
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Escape")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	hs := newHarness(t, 800, 600)
	hs.cancel()
	err := <-hs.done
	hs.done <- err

	hs.v.Close()
	hs.v.Close()
	if hs.v.Surface().Resize(100, 100, 1) {
		t.Error("expected surface to ignore resizes after Close")
	}
	if err := hs.v.Loader().RequestLoad("late.glb", 0); err == nil {
		t.Error("expected load after Close to fail")
	}
}
