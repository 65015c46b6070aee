package cache

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"
)

// breakerState represents the disk guard's circuit state.
type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// diskGuard protects the disk tier with bounded retries and a circuit
// breaker. While open, disk operations fail fast with ErrDiskUnavailable and
// the manager degrades to memory only. After the cooldown a single probe
// operation is let through; its outcome closes or reopens the circuit.
type diskGuard struct {
	threshold int
	cooldown  time.Duration
	retries   int
	delay     time.Duration
	now       func() time.Time

	// onChange is called after each transition, outside the lock.
	onChange func(from, to breakerState)

	mu          sync.Mutex
	state       breakerState
	failures    int
	lastFailure time.Time
	probing     bool
}

func newDiskGuard(p Policy) *diskGuard {
	return &diskGuard{
		threshold: p.BreakerThreshold,
		cooldown:  p.BreakerCooldown,
		retries:   max(0, p.WriteRetries),
		delay:     p.RetryDelay,
		now:       time.Now,
	}
}

// do runs op once through the breaker.
func (g *diskGuard) do(ctx context.Context, op func(context.Context) error) error {
	if err := g.before(); err != nil {
		return err
	}
	err := op(ctx)
	g.after(err)
	return err
}

// doWithRetry runs op through the breaker, retrying failed attempts with
// exponential backoff and jitter.
func (g *diskGuard) doWithRetry(ctx context.Context, op func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= g.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(g.backoff(attempt)):
			}
		}
		err := g.do(ctx, op)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrDiskUnavailable) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (g *diskGuard) backoff(attempt int) time.Duration {
	d := g.delay << (attempt - 1)
	if d <= 0 {
		return 0
	}
	// #nosec G404 -- jitter is non-cryptographic timing variance.
	return d + time.Duration(rand.Int64N(int64(d/4)+1))
}

// State returns the current circuit state.
func (g *diskGuard) State() breakerState {
	g.mu.Lock()
	s, changed := g.currentLocked()
	g.mu.Unlock()
	if changed {
		g.notify(stateOpen, stateHalfOpen)
	}
	return s
}

func (g *diskGuard) before() error {
	if g.threshold <= 0 {
		return nil
	}

	g.mu.Lock()
	state, changed := g.currentLocked()
	var err error
	switch state {
	case stateOpen:
		err = ErrDiskUnavailable
	case stateHalfOpen:
		if g.probing {
			err = ErrDiskUnavailable
		} else {
			g.probing = true
		}
	}
	g.mu.Unlock()

	if changed {
		g.notify(stateOpen, stateHalfOpen)
	}
	return err
}

func (g *diskGuard) after(err error) {
	if g.threshold <= 0 {
		return
	}

	g.mu.Lock()
	from := g.state
	switch g.state {
	case stateClosed:
		if err != nil {
			g.failures++
			g.lastFailure = g.now()
			if g.failures >= g.threshold {
				g.state = stateOpen
			}
		} else {
			g.failures = 0
		}
	case stateHalfOpen:
		g.probing = false
		if err != nil {
			g.lastFailure = g.now()
			g.state = stateOpen
		} else {
			g.state = stateClosed
			g.failures = 0
		}
	}
	to := g.state
	g.mu.Unlock()

	if from != to {
		g.notify(from, to)
	}
}

// currentLocked moves an open circuit to half-open once the cooldown has
// elapsed and reports whether it did.
func (g *diskGuard) currentLocked() (breakerState, bool) {
	if g.state == stateOpen && g.now().Sub(g.lastFailure) >= g.cooldown {
		g.state = stateHalfOpen
		g.probing = false
		return g.state, true
	}
	return g.state, false
}

func (g *diskGuard) notify(from, to breakerState) {
	if g.onChange != nil {
		g.onChange(from, to)
	}
}
