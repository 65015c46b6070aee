package stress

import (
	"math"
	"slices"
)

// Engine evaluates σz for rectangular and circular surcharges.
//
// Contract:
//   - Determinism: identical inputs produce bit-identical results.
//   - Concurrency: an Engine is immutable after construction and safe for
//     concurrent use; each call runs to completion on the calling goroutine.
//   - Errors: invalid input returns a *ValidationError before any work.
type Engine struct {
	order int
	rule  gaussRule
}

// Option configures an Engine.
type Option func(*Engine)

// WithGaussOrder sets the Gauss–Legendre order of each circular quadrature
// panel. Values < 1 are ignored.
func WithGaussOrder(order int) Option {
	return func(e *Engine) {
		if order >= 1 {
			e.order = order
		}
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{order: GaussOrder}
	for _, opt := range opts {
		opt(e)
	}
	e.rule = newGaussRule(e.order)
	return e
}

// GaussOrder returns the per-panel quadrature order.
func (e *Engine) GaussOrder() int {
	return e.order
}

// ComputeRectangular computes σz over grid for a q × (lx × ly) surcharge.
func (e *Engine) ComputeRectangular(q, lx, ly float64, grid Grid) (*Field, error) {
	return e.Compute(Load{Q: q, Geometry: Rectangle(lx, ly)}, grid)
}

// ComputeCircular computes the depth profile at (x, y) beneath a circular
// surcharge. The returned depths are zs sorted ascending, paired by index
// with σz.
func (e *Engine) ComputeCircular(q, radius, x, y float64, zs []float64) (Profile, error) {
	return e.DepthProfile(Load{Q: q, Geometry: Circle(radius)}, x, y, zs)
}

// Compute computes σz at every lattice point of grid.
func (e *Engine) Compute(load Load, grid Grid) (*Field, error) {
	if err := ValidateLoad(load); err != nil {
		return nil, err
	}
	if err := ValidateGrid(grid); err != nil {
		return nil, err
	}

	eval := e.evaluator(load, ForGrid(grid))
	xs, ys, zs := grid.Axes()
	sigma := make([]float64, 0, grid.Len())
	for _, z := range zs {
		for _, y := range ys {
			for _, x := range xs {
				sigma = append(sigma, eval(x, y, z))
			}
		}
	}
	return NewField(xs, ys, zs, sigma)
}

// DepthProfile computes σz at (x, y) for each depth in zs using the
// discretization for a len(zs)-point sweep.
func (e *Engine) DepthProfile(load Load, x, y float64, zs []float64) (Profile, error) {
	if err := ValidateLoad(load); err != nil {
		return Profile{}, err
	}
	if err := ValidateLocation(x, y); err != nil {
		return Profile{}, err
	}
	if err := ValidateDepths(zs); err != nil {
		return Profile{}, err
	}

	depths := slices.Clone(zs)
	slices.Sort(depths)

	eval := e.evaluator(load, ForSweep(len(depths)))
	sigma := make([]float64, len(depths))
	for i, z := range depths {
		sigma[i] = eval(x, y, z)
	}
	return Profile{Z: depths, Sigma: sigma}, nil
}

// Evaluate computes σz at arbitrary points with an explicit discretization.
func (e *Engine) Evaluate(load Load, pts []Point, d Discretization) ([]float64, error) {
	if err := ValidateLoad(load); err != nil {
		return nil, err
	}
	if err := ValidatePoints(pts); err != nil {
		return nil, err
	}
	if err := d.validate(); err != nil {
		return nil, err
	}

	eval := e.evaluator(load, d)
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = eval(p.X, p.Y, p.Z)
	}
	return out, nil
}

// evaluator dispatches once on the footprint kind. load must be valid.
func (e *Engine) evaluator(load Load, d Discretization) func(x, y, z float64) float64 {
	g := load.Geometry
	switch g.Kind {
	case KindCircular:
		disc := e.rule.composite(d.Panels)
		return func(x, y, z float64) float64 {
			return disc.sigma(load.Q, g.Radius, math.Hypot(x, y), z)
		}
	default:
		fp := newFootprint(load.Q, g.Lx, g.Ly, d.Mx, d.My)
		return fp.sigma
	}
}
