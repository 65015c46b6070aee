package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/surcharge/observe"
	"github.com/jonwraymond/surcharge/stress"
)

// ComputeFunc produces the field for a key on a cache miss.
type ComputeFunc func(ctx context.Context) (*stress.Field, error)

// Stats is a snapshot of manager counters.
type Stats struct {
	MemoryHits   uint64 // served from the memory tier
	DiskHits     uint64 // served from the disk tier and promoted to memory
	Misses       uint64 // not found in any tier
	Computations uint64 // successful compute calls
	DiskErrors   uint64 // disk reads or writes that failed
}

// HitRatio returns the fraction of lookups answered by a tier.
func (s Stats) HitRatio() float64 {
	hits := s.MemoryHits + s.DiskHits
	if total := hits + s.Misses; total > 0 {
		return float64(hits) / float64(total)
	}
	return 0
}

// Manager fronts a computation with a memory tier and an optional disk tier.
//
// Contract:
// - Concurrency: safe for concurrent use. For one key at most one compute
//   call is in flight within the process; concurrent callers share its result.
// - Errors: disk read failures are logged and treated as misses. A disk
//   write failure after a successful compute returns the field together
//   with an error wrapping ErrPersist.
// - Ownership: returned fields are shared; callers must not mutate them.
type Manager struct {
	memory  *MemoryTier
	disk    *DiskTier
	policy  Policy
	guard   *diskGuard
	group   singleflight.Group
	logger  observe.Logger
	metrics observe.Metrics

	memoryHits   atomic.Uint64
	diskHits     atomic.Uint64
	misses       atomic.Uint64
	computations atomic.Uint64
	diskErrors   atomic.Uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithDisk attaches a disk tier.
func WithDisk(d *DiskTier) Option {
	return func(m *Manager) { m.disk = d }
}

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(m *Manager) { m.policy = p }
}

// WithLogger sets the logger for degraded-mode diagnostics.
func WithLogger(l observe.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics sets the recorder for tier lookups.
func WithMetrics(mt observe.Metrics) Option {
	return func(m *Manager) {
		if mt != nil {
			m.metrics = mt
		}
	}
}

// NewManager creates a cache manager. Without WithDisk it is memory only.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		memory:  NewMemoryTier(),
		policy:  DefaultPolicy(),
		logger:  observe.NopLogger(),
		metrics: observe.NopMetrics(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.guard = newDiskGuard(m.policy)
	m.guard.onChange = func(from, to breakerState) {
		m.logger.Warn(context.Background(), "disk cache tier state changed",
			observe.Field{Key: "from", Value: from.String()},
			observe.Field{Key: "to", Value: to.String()},
		)
	}
	return m
}

// Memory returns the memory tier.
func (m *Manager) Memory() *MemoryTier { return m.memory }

// Disk returns the disk tier, or nil.
func (m *Manager) Disk() *DiskTier { return m.disk }

// Policy returns the active policy.
func (m *Manager) Policy() Policy { return m.policy }

// DiskState reports the disk guard state: closed, open or half-open.
func (m *Manager) DiskState() string { return m.guard.State().String() }

// GetOrCompute returns the field for key from memory, then disk, and
// otherwise computes it, storing the result in memory and, when
// Policy.AutoPersist is set, on disk.
func (m *Manager) GetOrCompute(ctx context.Context, key Key, compute ComputeFunc) (*stress.Field, error) {
	if m == nil {
		return nil, ErrNilCache
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	if field, ok := m.Lookup(ctx, key); ok {
		return field, nil
	}

	// The shared flight must not be cancelled by whichever caller started it.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := m.group.Do(string(key), func() (any, error) {
		if field, err := m.memory.Get(flightCtx, key); err == nil {
			return field, nil
		}

		if m.disk != nil && m.policy.ReadThrough {
			if field := m.readDisk(flightCtx, key); field != nil {
				_ = m.memory.Set(flightCtx, key, field)
				return field, nil
			}
		}

		m.misses.Add(1)
		field, err := compute(flightCtx)
		if err != nil {
			return nil, err
		}
		if field == nil {
			return nil, errors.New("cache: compute returned a nil field")
		}
		m.computations.Add(1)
		_ = m.memory.Set(flightCtx, key, field)

		if m.disk != nil && m.policy.AutoPersist {
			if err := m.writeDisk(flightCtx, key, field); err != nil {
				return field, err
			}
		}
		return field, nil
	})

	field, _ := v.(*stress.Field)
	return field, err
}

// Lookup returns the field for key from the memory tier only.
func (m *Manager) Lookup(ctx context.Context, key Key) (*stress.Field, bool) {
	field, err := m.memory.Get(ctx, key)
	if err != nil {
		m.metrics.RecordCacheLookup(ctx, m.memory.Name(), observe.LookupMiss)
		return nil, false
	}
	m.memoryHits.Add(1)
	m.metrics.RecordCacheLookup(ctx, m.memory.Name(), observe.LookupHit)
	return field, true
}

// Remember stores field in the memory tier only.
func (m *Manager) Remember(ctx context.Context, key Key, field *stress.Field) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return m.memory.Set(ctx, key, field)
}

// Load reads key from the disk tier only and promotes a hit to memory.
// Unlike GetOrCompute it reports disk errors to the caller.
func (m *Manager) Load(ctx context.Context, key Key) (*stress.Field, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if m.disk == nil {
		return nil, fmt.Errorf("%w: no disk tier configured", ErrDiskUnavailable)
	}

	var field *stress.Field
	err := m.guard.do(ctx, func(ctx context.Context) error {
		f, err := m.disk.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		field = f
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrDiskUnavailable) {
			m.diskErrors.Add(1)
		}
		m.metrics.RecordCacheLookup(ctx, m.disk.Name(), observe.LookupError)
		return nil, err
	}
	if field == nil {
		m.metrics.RecordCacheLookup(ctx, m.disk.Name(), observe.LookupMiss)
		return nil, ErrNotFound
	}

	m.diskHits.Add(1)
	m.metrics.RecordCacheLookup(ctx, m.disk.Name(), observe.LookupHit)
	_ = m.memory.Set(ctx, key, field)
	return field, nil
}

// Save writes field to the disk tier only.
func (m *Manager) Save(ctx context.Context, key Key, field *stress.Field) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if m.disk == nil {
		return fmt.Errorf("%w: %w: no disk tier configured", ErrPersist, ErrDiskUnavailable)
	}
	return m.writeDisk(ctx, key, field)
}

// Forget removes key from both tiers.
func (m *Manager) Forget(ctx context.Context, key Key) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	_ = m.memory.Delete(ctx, key)
	if m.disk != nil {
		return m.disk.Delete(ctx, key)
	}
	return nil
}

// Stats returns a snapshot of the manager counters.
func (m *Manager) Stats() Stats {
	return Stats{
		MemoryHits:   m.memoryHits.Load(),
		DiskHits:     m.diskHits.Load(),
		Misses:       m.misses.Load(),
		Computations: m.computations.Load(),
		DiskErrors:   m.diskErrors.Load(),
	}
}

// readDisk returns the disk tier's field or nil. Failures are logged and
// count as misses.
func (m *Manager) readDisk(ctx context.Context, key Key) *stress.Field {
	field, err := m.Load(ctx, key)
	switch {
	case err == nil:
		return field
	case errors.Is(err, ErrNotFound):
	case errors.Is(err, ErrDiskUnavailable):
		m.logger.Debug(ctx, "disk cache tier skipped",
			observe.Field{Key: "key", Value: key.String()},
		)
	default:
		m.logger.Warn(ctx, "disk cache read failed, recomputing",
			observe.Field{Key: "key", Value: key.String()},
			observe.Field{Key: "error", Value: err},
		)
	}
	return nil
}

func (m *Manager) writeDisk(ctx context.Context, key Key, field *stress.Field) error {
	err := m.guard.doWithRetry(ctx, func(ctx context.Context) error {
		return m.disk.Set(ctx, key, field)
	})
	if err == nil {
		return nil
	}

	m.diskErrors.Add(1)
	m.logger.Warn(ctx, "disk cache write failed",
		observe.Field{Key: "key", Value: key.String()},
		observe.Field{Key: "error", Value: err},
	)
	return fmt.Errorf("%w: %s: %w", ErrPersist, key, err)
}
