package worker

import "errors"

// Sentinel errors for worker operations.
var (
	// ErrPoolFull is returned by Submit when every slot and queue position
	// is taken.
	ErrPoolFull = errors.New("worker: pool at capacity")

	// ErrPoolClosed is returned by Submit after Close.
	ErrPoolClosed = errors.New("worker: pool is closed")

	// ErrNilPool is returned by Submit on a nil pool.
	ErrNilPool = errors.New("worker: pool is nil")

	// ErrCancelled is returned by Wait for a cancelled job.
	ErrCancelled = errors.New("worker: job cancelled")

	// ErrPanic wraps a panic raised by a job function.
	ErrPanic = errors.New("worker: job panicked")
)
