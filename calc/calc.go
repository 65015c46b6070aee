// Package calc is the entry point for stress computations. A Calculator
// validates inputs, derives the cache key, answers from the cache when it
// can and otherwise runs the engine under tracing, metrics and logging.
package calc

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/surcharge/cache"
	"github.com/jonwraymond/surcharge/observe"
	"github.com/jonwraymond/surcharge/stress"
	"github.com/jonwraymond/surcharge/worker"
)

// Operation names recorded in telemetry.
const (
	OpGrid    = "grid"
	OpProfile = "profile"
	OpPoints  = "points"
)

// Calculator fronts a stress.Engine with a cache.Manager.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: invalid input fails with an error matching
//     stress.ErrInvalidInput before any lookup. When a result was computed
//     but could not be persisted, the result is returned together with an
//     error matching cache.ErrPersist.
//   - Ownership: returned fields are shared with the cache and must not be
//     modified.
type Calculator struct {
	engine *stress.Engine
	keyer  *cache.Keyer
	cache  *cache.Manager
	mw     *observe.Middleware
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithEngine sets the engine. Default: stress.NewEngine().
func WithEngine(e *stress.Engine) Option {
	return func(c *Calculator) {
		if e != nil {
			c.engine = e
		}
	}
}

// WithKeyer sets the keyer. Default: a keyer that includes the engine's
// quadrature order in every key.
func WithKeyer(k *cache.Keyer) Option {
	return func(c *Calculator) {
		if k != nil {
			c.keyer = k
		}
	}
}

// WithCache sets the cache manager. Default: a memory-only manager.
func WithCache(m *cache.Manager) Option {
	return func(c *Calculator) {
		if m != nil {
			c.cache = m
		}
	}
}

// WithMiddleware sets the telemetry middleware. Default: no-op.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(c *Calculator) {
		if mw != nil {
			c.mw = mw
		}
	}
}

// New creates a Calculator.
func New(opts ...Option) *Calculator {
	c := &Calculator{}
	for _, opt := range opts {
		opt(c)
	}
	if c.engine == nil {
		c.engine = stress.NewEngine()
	}
	if c.keyer == nil {
		c.keyer = cache.NewKeyer(cache.WithParam("gauss_order", c.engine.GaussOrder()))
	}
	if c.mw == nil {
		c.mw = observe.NopMiddleware()
	}
	if c.cache == nil {
		c.cache = cache.NewManager(
			cache.WithLogger(c.mw.Logger()),
			cache.WithMetrics(c.mw.Metrics()),
		)
	}
	return c
}

// Engine returns the underlying engine.
func (c *Calculator) Engine() *stress.Engine { return c.engine }

// Cache returns the cache manager.
func (c *Calculator) Cache() *cache.Manager { return c.cache }

// Rectangular computes σz over grid for a q × (lx × ly) surcharge.
func (c *Calculator) Rectangular(ctx context.Context, q, lx, ly float64, grid stress.Grid) (*stress.Field, error) {
	return c.Field(ctx, stress.Load{Q: q, Geometry: stress.Rectangle(lx, ly)}, grid)
}

// Circular computes the depth profile at (x, y) beneath a circular
// surcharge. Depths are returned in ascending order.
func (c *Calculator) Circular(ctx context.Context, q, radius, x, y float64, zs []float64) (stress.Profile, error) {
	return c.Profile(ctx, stress.Load{Q: q, Geometry: stress.Circle(radius)}, x, y, zs)
}

// Field computes σz at every lattice point of grid.
func (c *Calculator) Field(ctx context.Context, load stress.Load, grid stress.Grid) (*stress.Field, error) {
	if err := stress.ValidateLoad(load); err != nil {
		return nil, err
	}
	if err := stress.ValidateGrid(grid); err != nil {
		return nil, err
	}

	key, err := c.keyer.ForGrid(load, grid)
	if err != nil {
		return nil, fmt.Errorf("calc: derive cache key: %w", err)
	}

	meta := observe.ComputationMeta{
		Kind:      load.Geometry.Kind.String(),
		Operation: OpGrid,
		Key:       key.String(),
		Points:    grid.Len(),
	}
	return c.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*stress.Field, error) {
		return observe.Run(ctx, c.mw, meta, func(context.Context) (*stress.Field, error) {
			return c.engine.Compute(load, grid)
		})
	})
}

// Profile computes σz at (x, y) for each depth in zs. The profile is cached
// as a field with single-point horizontal axes.
func (c *Calculator) Profile(ctx context.Context, load stress.Load, x, y float64, zs []float64) (stress.Profile, error) {
	if err := stress.ValidateLoad(load); err != nil {
		return stress.Profile{}, err
	}
	if err := stress.ValidateLocation(x, y); err != nil {
		return stress.Profile{}, err
	}
	if err := stress.ValidateDepths(zs); err != nil {
		return stress.Profile{}, err
	}

	key, err := c.keyer.ForProfile(load, x, y, zs)
	if err != nil {
		return stress.Profile{}, fmt.Errorf("calc: derive cache key: %w", err)
	}

	meta := observe.ComputationMeta{
		Kind:      load.Geometry.Kind.String(),
		Operation: OpProfile,
		Key:       key.String(),
		Points:    len(zs),
	}
	field, err := c.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*stress.Field, error) {
		return observe.Run(ctx, c.mw, meta, func(context.Context) (*stress.Field, error) {
			p, err := c.engine.DepthProfile(load, x, y, zs)
			if err != nil {
				return nil, err
			}
			return stress.NewField([]float64{x}, []float64{y}, p.Z, p.Sigma)
		})
	})
	if field == nil {
		return stress.Profile{}, err
	}
	return stress.Profile{Z: field.Z, Sigma: field.Sigma}, err
}

// Evaluate computes σz at arbitrary points without caching, using the
// discretization of a len(pts)-point sweep.
func (c *Calculator) Evaluate(ctx context.Context, load stress.Load, pts []stress.Point) ([]float64, error) {
	meta := observe.ComputationMeta{
		Kind:      load.Geometry.Kind.String(),
		Operation: OpPoints,
		Points:    len(pts),
	}
	return observe.Run(ctx, c.mw, meta, func(context.Context) ([]float64, error) {
		return c.engine.Evaluate(load, pts, stress.ForSweep(len(pts)))
	})
}

// FieldAsync submits Field to pool and returns the job handle.
func (c *Calculator) FieldAsync(ctx context.Context, pool *worker.Pool, load stress.Load, grid stress.Grid) (*worker.Job[*stress.Field], error) {
	if err := stress.ValidateLoad(load); err != nil {
		return nil, err
	}
	if err := stress.ValidateGrid(grid); err != nil {
		return nil, err
	}
	return worker.Submit(ctx, pool, func(ctx context.Context) (*stress.Field, error) {
		return c.Field(ctx, load, grid)
	})
}

// PersistFailed reports whether err only signals that a computed result
// could not be written to the disk tier.
func PersistFailed(err error) bool {
	return errors.Is(err, cache.ErrPersist)
}
