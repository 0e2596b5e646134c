package frame

import "sync"

// Queue is a FIFO of work posted from any goroutine and run on the render
// thread at the start of the next tick.
type Queue struct {
	mu      sync.Mutex
	pending []func()
}

// Post schedules fn. It never blocks on the render thread.
func (q *Queue) Post(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Len returns the number of pending functions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain runs every function posted before the call, in order, and returns
// how many ran. Functions posted while draining run on the next drain.
func (q *Queue) Drain() int {
	q.mu.Lock()
	fns := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}
