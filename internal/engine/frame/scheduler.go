package frame

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/modelviewer/internal/logger"
)

// ErrRunning is returned when Run or Start is called on a running scheduler.
var ErrRunning = errors.New("scheduler already running")

// Steps is the per-tick work. Update always runs before Render.
type Steps struct {
	Update func(dt float32)
	Render func(dt float32) error
}

// Scheduler runs ticks until stopped. Errors and panics inside a tick are
// logged and do not end the loop.
type Scheduler struct {
	source Source
	queue  *Queue
	steps  Steps
	log    *zap.Logger

	ticks  atomic.Uint64
	errors atomic.Uint64

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewScheduler creates a scheduler. queue may be nil.
func NewScheduler(source Source, queue *Queue, steps Steps) *Scheduler {
	if queue == nil {
		queue = &Queue{}
	}
	return &Scheduler{
		source: source,
		queue:  queue,
		steps:  steps,
		log:    logger.Named("frame"),
	}
}

// Queue returns the queue drained at the start of each tick.
func (s *Scheduler) Queue() *Queue { return s.queue }

// Run ticks on the calling goroutine until ctx is done or Stop is called.
// A tick in progress always completes. Run returns nil on a normal stop.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx, done, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer s.end(done)
	return s.loop(ctx)
}

// Start runs the loop on a new goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, done, err := s.begin(ctx)
	if err != nil {
		return err
	}
	go func() {
		defer s.end(done)
		if err := s.loop(ctx); err != nil {
			s.log.Error("frame source failed", zap.Error(err))
		}
	}()
	return nil
}

// Stop prevents further ticks and waits for the current one to finish.
// Steps must use RequestStop instead, since Stop would wait on itself.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// RequestStop prevents further ticks without waiting.
func (s *Scheduler) RequestStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Ticks returns the number of completed ticks.
func (s *Scheduler) Ticks() uint64 { return s.ticks.Load() }

// Errors returns the number of ticks that failed.
func (s *Scheduler) Errors() uint64 { return s.errors.Load() }

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) begin(parent context.Context) (context.Context, chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, nil, ErrRunning
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	return ctx, s.done, nil
}

func (s *Scheduler) end(done chan struct{}) {
	s.mu.Lock()
	s.cancel()
	s.running = false
	s.mu.Unlock()
	close(done)
}

func (s *Scheduler) loop(ctx context.Context) error {
	last := time.Time{}
	for {
		now, err := s.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("frame source: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}

		var dt float32
		if !last.IsZero() {
			dt = float32(now.Sub(last).Seconds())
		}
		last = now

		s.tick(dt)
	}
}

func (s *Scheduler) tick(dt float32) {
	defer func() {
		if r := recover(); r != nil {
			s.fail(fmt.Errorf("tick panic: %v", r))
		}
		s.ticks.Add(1)
	}()

	s.queue.Drain()
	if s.steps.Update != nil {
		s.steps.Update(dt)
	}
	if s.steps.Render != nil {
		if err := s.steps.Render(dt); err != nil {
			s.fail(err)
		}
	}
}

// fail logs the first error and then every 600th to avoid flooding at 60 fps.
func (s *Scheduler) fail(err error) {
	n := s.errors.Add(1)
	if n == 1 || n%600 == 0 {
		s.log.Error("frame failed", zap.Uint64("failures", n), zap.Error(err))
	}
}
