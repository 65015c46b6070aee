package worker

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// State is the lifecycle state of a job.
type State int

const (
	// StatePending means the job is queued for a slot.
	StatePending State = iota
	// StateRunning means the job function is executing.
	StateRunning
	// StateDone means the job function returned without error.
	StateDone
	// StateFailed means the job function returned an error or panicked.
	StateFailed
	// StateCancelled means Cancel was called before the job finished.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Final reports whether s is a terminal state.
func (s State) Final() bool {
	return s >= StateDone
}

// Job is the handle of a submitted computation.
type Job[T any] struct {
	id string

	mu    sync.Mutex
	state State
	value T
	err   error
	done  chan struct{}
}

func newJob[T any]() *Job[T] {
	return &Job[T]{
		id:   uuid.NewString(),
		done: make(chan struct{}),
	}
}

// ID returns the job's unique identifier.
func (j *Job[T]) ID() string { return j.id }

// State returns the current state.
func (j *Job[T]) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Done is closed once the job reaches a final state.
func (j *Job[T]) Done() <-chan struct{} { return j.done }

// Wait blocks until the job reaches a final state or ctx is done.
// A failed job returns whatever value its task produced alongside the
// error. A cancelled job returns ErrCancelled.
func (j *Job[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-j.done:
		j.mu.Lock()
		defer j.mu.Unlock()
		return j.value, j.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel abandons the job. A pending job never runs; a running job
// finishes in the background and its result is discarded. Cancel reports
// whether the job was still unfinished.
func (j *Job[T]) Cancel() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Final() {
		return false
	}
	j.state = StateCancelled
	j.err = ErrCancelled
	close(j.done)
	return true
}

// start moves a pending job to running unless it was cancelled.
func (j *Job[T]) start() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StatePending {
		return false
	}
	j.state = StateRunning
	return true
}

// finish records the outcome unless the job was cancelled meanwhile.
// The value is kept even on failure so partial results survive.
// It reports whether the outcome was kept.
func (j *Job[T]) finish(value T, err error) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Final() {
		return false
	}
	j.value, j.err = value, err
	if err != nil {
		j.state = StateFailed
	} else {
		j.state = StateDone
	}
	close(j.done)
	return true
}
