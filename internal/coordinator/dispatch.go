package coordinator

import (
	"context"
	"sync"
	"sync/atomic"
)

// Dispatcher runs functions on the interactive context. Functions passed to
// Dispatch must run one at a time, in the order they were dispatched.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatchFunc adapts a function to the Dispatcher interface.
type DispatchFunc func(fn func())

// Dispatch calls f(fn).
func (f DispatchFunc) Dispatch(fn func()) { f(fn) }

// Loop is a single-goroutine interactive context. Functions dispatched to it
// run in FIFO order on the goroutine that calls Run.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	active atomic.Bool
}

// NewLoop creates an idle Loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Dispatch queues fn. It never blocks, so it is safe to call from fn itself.
func (l *Loop) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	l.push(fn)
}

// Stop makes Run return after the functions queued before it have run.
func (l *Loop) Stop() {
	l.push(nil)
}

// Run processes queued functions until Stop is reached or ctx ends.
func (l *Loop) Run(ctx context.Context) error {
	for {
		fn, ok := l.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.wake:
				continue
			}
		}
		if fn == nil {
			return nil
		}

		l.active.Store(true)
		fn()
		l.active.Store(false)
	}
}

func (l *Loop) push(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}
