package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gate blocks job functions until released.
type gate struct {
	started chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *gate) fn(v int) func(context.Context) (int, error) {
	return func(context.Context) (int, error) {
		g.started <- struct{}{}
		<-g.release
		return v, nil
	}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNewPool_Defaults(t *testing.T) {
	p := NewPool(Config{MaxQueue: -1})
	assert.Positive(t, p.config.MaxConcurrent)
	assert.Zero(t, p.config.MaxQueue)
}

func TestSubmit_RunsJob(t *testing.T) {
	p := NewPool(Config{MaxConcurrent: 2})
	defer p.Close()

	job, err := Submit(context.Background(), p, func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	_, perr := uuid.Parse(job.ID())
	assert.NoError(t, perr)

	got, err := job.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, StateDone, job.State())
	assert.False(t, job.Cancel(), "finished jobs cannot be cancelled")
}

func TestSubmit_Failure(t *testing.T) {
	p := NewPool(Config{MaxConcurrent: 1})
	defer p.Close()
	boom := errors.New("boom")

	job, err := Submit(context.Background(), p, func(context.Context) (int, error) {
		return 0, boom
	})
	require.NoError(t, err)

	_, err = job.Wait(waitCtx(t))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, job.State())
}

func TestSubmit_FailureKeepsValue(t *testing.T) {
	p := NewPool(Config{MaxConcurrent: 1})
	defer p.Close()
	partial := errors.New("partial")

	job, err := Submit(context.Background(), p, func(context.Context) ([]float64, error) {
		return []float64{1, 2}, partial
	})
	require.NoError(t, err)

	got, err := job.Wait(waitCtx(t))
	assert.ErrorIs(t, err, partial)
	assert.Equal(t, []float64{1, 2}, got)
	assert.Equal(t, StateFailed, job.State())
}

func TestSubmit_PanicBecomesError(t *testing.T) {
	p := NewPool(Config{MaxConcurrent: 1})

	job, err := Submit(context.Background(), p, func(context.Context) (int, error) {
		panic("kaboom")
	})
	require.NoError(t, err)

	_, err = job.Wait(waitCtx(t))
	assert.ErrorIs(t, err, ErrPanic)
	assert.ErrorContains(t, err, "kaboom")
	assert.Equal(t, StateFailed, job.State())

	p.Close()
	assert.EqualValues(t, 1, p.Stats().Failed)
}

func TestSubmit_PoolFull(t *testing.T) {
	p := NewPool(Config{MaxConcurrent: 1, MaxQueue: 1})
	g := newGate()

	running, err := Submit(context.Background(), p, g.fn(1))
	require.NoError(t, err)
	<-g.started

	queued, err := Submit(context.Background(), p, g.fn(2))
	require.NoError(t, err)
	assert.Equal(t, StatePending, queued.State())

	_, err = Submit(context.Background(), p, g.fn(3))
	assert.ErrorIs(t, err, ErrPoolFull)

	stats := p.Stats()
	assert.Equal(t, 1, stats.Running)
	assert.Equal(t, 1, stats.Queued)
	assert.EqualValues(t, 1, stats.Rejected)

	close(g.release)
	v, err := running.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, err = queued.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	p.Close()
	stats = p.Stats()
	assert.Equal(t, 1, stats.MaxActive)
	assert.EqualValues(t, 2, stats.Completed)
}

func TestJob_CancelPendingNeverRuns(t *testing.T) {
	p := NewPool(Config{MaxConcurrent: 1, MaxQueue: 1})
	g := newGate()

	_, err := Submit(context.Background(), p, g.fn(1))
	require.NoError(t, err)
	<-g.started

	var ran atomic.Bool
	pending, err := Submit(context.Background(), p, func(context.Context) (int, error) {
		ran.Store(true)
		return 2, nil
	})
	require.NoError(t, err)

	assert.True(t, pending.Cancel())
	assert.False(t, pending.Cancel(), "second cancel is a no-op")
	_, err = pending.Wait(waitCtx(t))
	assert.ErrorIs(t, err, ErrCancelled)

	close(g.release)
	p.Close()
	assert.False(t, ran.Load())
	assert.Equal(t, StateCancelled, pending.State())
	assert.EqualValues(t, 1, p.Stats().Cancelled)
}

func TestJob_CancelRunningDiscardsResult(t *testing.T) {
	p := NewPool(Config{MaxConcurrent: 1})
	g := newGate()

	job, err := Submit(context.Background(), p, g.fn(7))
	require.NoError(t, err)
	<-g.started
	assert.Equal(t, StateRunning, job.State())

	require.True(t, job.Cancel())
	v, err := job.Wait(waitCtx(t))
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Zero(t, v)

	// The computation keeps its slot until it completes.
	_, err = Submit(context.Background(), p, g.fn(8))
	assert.ErrorIs(t, err, ErrPoolFull)

	close(g.release)
	p.Close()
	assert.Equal(t, StateCancelled, job.State())
	assert.Zero(t, p.Stats().Running)
}

func TestJob_WaitHonorsContext(t *testing.T) {
	p := NewPool(Config{MaxConcurrent: 1})
	g := newGate()

	job, err := Submit(context.Background(), p, g.fn(1))
	require.NoError(t, err)
	<-g.started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = job.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateRunning, job.State())

	close(g.release)
	p.Close()
}

func TestSubmit_JobContextIsNotCancelled(t *testing.T) {
	p := NewPool(Config{MaxConcurrent: 1})
	defer p.Close()

	type ctxKey struct{}
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "v"))
	started := make(chan struct{})
	proceed := make(chan struct{})

	job, err := Submit(ctx, p, func(jctx context.Context) (any, error) {
		close(started)
		<-proceed
		if err := jctx.Err(); err != nil {
			return nil, err
		}
		return jctx.Value(ctxKey{}), nil
	})
	require.NoError(t, err)
	<-started
	cancel()
	close(proceed)

	v, err := job.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestSubmit_Rejections(t *testing.T) {
	_, err := Submit(context.Background(), (*Pool)(nil), func(context.Context) (int, error) { return 0, nil })
	assert.ErrorIs(t, err, ErrNilPool)

	p := NewPool(Config{MaxConcurrent: 1})
	_, err = Submit[int](context.Background(), p, nil)
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Submit(cancelled, p, func(context.Context) (int, error) { return 0, nil })
	assert.ErrorIs(t, err, context.Canceled)

	p.Close()
	_, err = Submit(context.Background(), p, func(context.Context) (int, error) { return 0, nil })
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestSubmit_BoundsConcurrency(t *testing.T) {
	p := NewPool(Config{MaxConcurrent: 3, MaxQueue: 20})

	var active, peak atomic.Int32
	jobs := make([]*Job[int], 0, 20)
	for i := 0; i < 20; i++ {
		job, err := Submit(context.Background(), p, func(context.Context) (int, error) {
			n := active.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			active.Add(-1)
			return i, nil
		})
		require.NoError(t, err)
		jobs = append(jobs, job)
	}
	for i, job := range jobs {
		v, err := job.Wait(waitCtx(t))
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	p.Close()

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.LessOrEqual(t, p.Stats().MaxActive, 3)
	assert.EqualValues(t, 20, p.Stats().Completed)
}

func TestState_String(t *testing.T) {
	for s, want := range map[State]string{
		StatePending:   "pending",
		StateRunning:   "running",
		StateDone:      "done",
		StateFailed:    "failed",
		StateCancelled: "cancelled",
		State(99):      "unknown",
	} {
		assert.Equal(t, want, s.String())
	}
	assert.False(t, StateRunning.Final())
	assert.True(t, StateCancelled.Final())
}
