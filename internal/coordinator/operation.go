package coordinator

import (
	"context"
	"sync"
)

// State is the lifecycle position of a submitted operation.
type State int

const (
	// StateSubmitted means the operation is queued for a background worker.
	StateSubmitted State = iota
	// StateRunning means the operation's work is executing.
	StateRunning
	// StateCompleted means the work finished successfully and awaits delivery.
	StateCompleted
	// StateFailed means the work returned an error and awaits delivery.
	StateFailed
	// StateDelivered means the result was handed to the interactive context. Terminal.
	StateDelivered
)

func (s State) String() string {
	switch s {
	case StateSubmitted:
		return "submitted"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateDelivered:
		return "delivered"
	default:
		return "unknown"
	}
}

// Operation tracks one submitted unit of work. It is never retried; callers
// resubmit to try again.
type Operation struct {
	id   uint64
	name string

	mu    sync.Mutex
	state State
	err   error
	done  chan struct{}
}

func newOperation(id uint64, name string) *Operation {
	return &Operation{
		id:    id,
		name:  name,
		state: StateSubmitted,
		done:  make(chan struct{}),
	}
}

// ID returns the coordinator-unique sequence number of the operation.
func (o *Operation) ID() uint64 { return o.id }

// Name returns the operation name used in logs.
func (o *Operation) Name() string { return o.name }

// State returns the current lifecycle state.
func (o *Operation) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Err returns the failure of the operation, if any.
func (o *Operation) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Done is closed once the result has been delivered.
func (o *Operation) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the operation is delivered or ctx ends. It returns the
// operation's error, or ctx.Err() if ctx ended first.
// Calling Wait from the interactive context itself deadlocks.
func (o *Operation) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish moves the operation to Completed or Failed.
func (o *Operation) finish(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.err = err
	if err != nil {
		o.state = StateFailed
		return
	}
	o.state = StateCompleted
}

func (o *Operation) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Operation) markDelivered() {
	o.mu.Lock()
	o.state = StateDelivered
	o.mu.Unlock()
	close(o.done)
}
