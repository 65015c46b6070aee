package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/jonwraymond/surcharge/observe"
)

// Config configures a Pool.
type Config struct {
	// MaxConcurrent is the maximum number of jobs running at once.
	// Default: runtime.NumCPU()
	MaxConcurrent int

	// MaxQueue is the maximum number of jobs waiting for a slot.
	// Default: 0 (Submit fails with ErrPoolFull when all slots are busy)
	MaxQueue int
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Running       int
	Queued        int
	MaxActive     int
	MaxConcurrent int
	Completed     int64
	Failed        int64
	Cancelled     int64
	Rejected      int64
}

// Pool runs jobs on goroutines, bounded by a semaphore.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Ownership: job functions receive a context that keeps the values of the
//   Submit context but is never cancelled.
type Pool struct {
	config Config
	sem    chan struct{}
	wg     conc.WaitGroup
	logger observe.Logger

	mu        sync.Mutex
	closed    bool
	running   int
	queued    int
	maxActive int
	completed int64
	failed    int64
	cancelled int64
	rejected  int64
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger for job lifecycle events.
func WithLogger(l observe.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPool creates a pool.
func NewPool(config Config, opts ...Option) *Pool {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = runtime.NumCPU()
	}
	if config.MaxQueue < 0 {
		config.MaxQueue = 0
	}

	p := &Pool{
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrent),
		logger: observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit schedules fn and returns its job handle. It fails with
// ErrPoolFull when MaxConcurrent jobs are running and MaxQueue are waiting.
func Submit[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (*Job[T], error) {
	if p == nil {
		return nil, ErrNilPool
	}
	if fn == nil {
		return nil, errors.New("worker: nil job function")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	job := newJob[T]()
	runCtx := context.WithoutCancel(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	if p.running+p.queued >= p.config.MaxConcurrent+p.config.MaxQueue {
		p.rejected++
		return nil, ErrPoolFull
	}
	p.queued++
	p.wg.Go(func() { runJob(runCtx, p, job, fn) })
	return job, nil
}

func runJob[T any](ctx context.Context, p *Pool, job *Job[T], fn func(context.Context) (T, error)) {
	select {
	case p.sem <- struct{}{}:
	case <-job.done:
		p.settle(false, StateCancelled)
		return
	}
	defer func() { <-p.sem }()

	if !job.start() {
		p.settle(false, StateCancelled)
		return
	}
	p.markRunning()

	logger := p.logger.With(observe.Field{Key: "job.id", Value: job.ID()})
	logger.Debug(ctx, "job started")
	start := time.Now()

	var (
		value T
		err   error
		pc    panics.Catcher
	)
	pc.Try(func() { value, err = fn(ctx) })
	if r := pc.Recovered(); r != nil {
		err = fmt.Errorf("%w: %w", ErrPanic, r.AsError())
		logger.Error(ctx, "job panicked", observe.Field{Key: "panic", Value: fmt.Sprint(r.Value)})
	}

	outcome := StateDone
	if err != nil {
		outcome = StateFailed
	}
	if !job.finish(value, err) {
		outcome = StateCancelled
	}
	p.settle(true, outcome)

	logger.Debug(ctx, "job finished",
		observe.Field{Key: "state", Value: outcome.String()},
		observe.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()},
	)
}

func (p *Pool) markRunning() {
	p.mu.Lock()
	p.queued--
	p.running++
	if p.running > p.maxActive {
		p.maxActive = p.running
	}
	p.mu.Unlock()
}

// settle releases the job's admission and counts its outcome.
func (p *Pool) settle(ran bool, outcome State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ran {
		p.running--
	} else {
		p.queued--
	}
	switch outcome {
	case StateDone:
		p.completed++
	case StateFailed:
		p.failed++
	case StateCancelled:
		p.cancelled++
	}
}

// Close stops accepting jobs and waits for admitted jobs to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Running:       p.running,
		Queued:        p.queued,
		MaxActive:     p.maxActive,
		MaxConcurrent: p.config.MaxConcurrent,
		Completed:     p.completed,
		Failed:        p.failed,
		Cancelled:     p.cancelled,
		Rejected:      p.rejected,
	}
}
