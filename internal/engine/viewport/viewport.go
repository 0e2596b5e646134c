// Package viewport owns the drawing surface size and device pixel ratio and
// fans host resize notifications out to the camera and compositor.
package viewport

import (
	"errors"
	"fmt"
	gomath "math"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/modelviewer/internal/logger"
)

// MaxPixelRatio is the upper clamp applied to the device pixel ratio.
const MaxPixelRatio = 2.0

// ErrContainerNotFound is returned by a Host when no container has the id.
var ErrContainerNotFound = errors.New("container not found")

// FatalInitError means the viewer cannot start. It is the only error class
// that reaches the caller as a hard failure.
type FatalInitError struct {
	ContainerID string
	Err         error
}

func (e *FatalInitError) Error() string {
	return fmt.Sprintf("viewport init %q: %v", e.ContainerID, e.Err)
}

func (e *FatalInitError) Unwrap() error { return e.Err }

// Container is the native drawing area the surface is mounted in.
type Container interface {
	Size() (width, height int)
	PixelRatio() float32
}

// Host resolves container handles by id.
type Host interface {
	Lookup(id string) (Container, error)
}

// ResizeListener is notified synchronously from Surface.Resize.
// width and height are logical pixels; ratio is already clamped.
type ResizeListener interface {
	OnViewportResize(width, height int, ratio float32)
}

// ListenerFunc adapts a function to ResizeListener.
type ListenerFunc func(width, height int, ratio float32)

// OnViewportResize calls f.
func (f ListenerFunc) OnViewportResize(width, height int, ratio float32) { f(width, height, ratio) }

// Surface tracks the current viewport dimensions.
type Surface struct {
	mu        sync.Mutex
	id        string
	container Container
	width     int
	height    int
	ratio     float32
	maxRatio  float32

	nextID    int
	listeners []listenerEntry
	closed    bool
}

type listenerEntry struct {
	id int
	l  ResizeListener
}

// New mounts a surface in the container identified by id.
// A missing container or a container with no area is a FatalInitError.
func New(host Host, id string) (*Surface, error) {
	return NewWithMaxRatio(host, id, MaxPixelRatio)
}

// NewWithMaxRatio is New with a custom pixel ratio clamp (values below 1 use MaxPixelRatio).
func NewWithMaxRatio(host Host, id string, maxRatio float32) (*Surface, error) {
	if host == nil {
		return nil, &FatalInitError{ContainerID: id, Err: errors.New("no host")}
	}
	c, err := host.Lookup(id)
	if err != nil {
		return nil, &FatalInitError{ContainerID: id, Err: err}
	}
	if c == nil {
		return nil, &FatalInitError{ContainerID: id, Err: ErrContainerNotFound}
	}
	w, h := c.Size()
	if w <= 0 || h <= 0 {
		return nil, &FatalInitError{ContainerID: id, Err: fmt.Errorf("container has no area (%dx%d)", w, h)}
	}
	if maxRatio < 1 {
		maxRatio = MaxPixelRatio
	}

	s := &Surface{
		id:        id,
		container: c,
		width:     w,
		height:    h,
		maxRatio:  maxRatio,
	}
	s.ratio = s.clampRatio(c.PixelRatio())

	logger.Debug("viewport mounted",
		zap.String("container", id),
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Float32("pixelRatio", s.ratio),
	)
	return s, nil
}

func (s *Surface) clampRatio(r float32) float32 {
	if r < 1 || r != r {
		return 1
	}
	if r > s.maxRatio {
		return s.maxRatio
	}
	return r
}

// Container returns the mounted container.
func (s *Surface) Container() Container {
	return s.container
}

// Size returns the logical size.
func (s *Surface) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// PixelRatio returns the clamped device pixel ratio.
func (s *Surface) PixelRatio() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ratio
}

// DrawableSize returns the size in device pixels.
func (s *Surface) DrawableSize() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return drawable(s.width, s.ratio), drawable(s.height, s.ratio)
}

// Aspect returns width/height.
func (s *Surface) Aspect() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float32(s.width) / float32(s.height)
}

func drawable(v int, ratio float32) int {
	return int(gomath.Round(float64(float32(v) * ratio)))
}

// DrawableSizeOf converts a logical size into device pixels.
func DrawableSizeOf(width, height int, ratio float32) (int, int) {
	return drawable(width, ratio), drawable(height, ratio)
}

// OnResize registers a listener. Listeners run in registration order.
// The returned func detaches it.
func (s *Surface) OnResize(l ResizeListener) (detach func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, l: l})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.listeners {
			if e.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Resize commits a new logical size and pixel ratio, then notifies every
// listener before returning. Non-positive sizes are ignored.
// It reports whether the size was applied.
func (s *Surface) Resize(width, height int, ratio float32) bool {
	if width <= 0 || height <= 0 {
		logger.Warn("ignoring non-positive viewport size",
			zap.Int("width", width),
			zap.Int("height", height),
		)
		return false
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.width = width
	s.height = height
	s.ratio = s.clampRatio(ratio)
	r := s.ratio
	listeners := make([]ResizeListener, len(s.listeners))
	for i, e := range s.listeners {
		listeners[i] = e.l
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l.OnViewportResize(width, height, r)
	}

	logger.Debug("viewport resized",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Float32("pixelRatio", r),
	)
	return true
}

// Close detaches every listener. Further resizes are ignored.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = nil
	s.closed = true
}
