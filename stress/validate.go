package stress

import (
	"fmt"
	"math"
)

// ValidateLoad checks the surcharge intensity and footprint dimensions.
func ValidateLoad(load Load) error {
	if err := checkFinite("q", load.Q); err != nil {
		return err
	}
	if load.Q < 0 {
		return invalid("q", load.Q, "must be >= 0")
	}

	g := load.Geometry
	switch g.Kind {
	case KindRectangular:
		if err := checkPositive("Lx", g.Lx); err != nil {
			return err
		}
		return checkPositive("Ly", g.Ly)
	case KindCircular:
		return checkPositive("radius", g.Radius)
	default:
		return invalid("geometry", g.Kind, "unknown footprint kind")
	}
}

// ValidateGrid checks grid bounds and resolution.
func ValidateGrid(g Grid) error {
	for _, c := range []struct {
		name string
		n    int
	}{{"Nx", g.Nx}, {"Ny", g.Ny}, {"Nz", g.Nz}} {
		if c.n <= 0 {
			return invalid(c.name, c.n, "must be >= 1")
		}
	}
	for _, c := range []struct {
		name string
		v    float64
	}{{"Xmin", g.XMin}, {"Xmax", g.XMax}, {"Ymin", g.YMin}, {"Ymax", g.YMax}, {"Zmax", g.ZMax}} {
		if err := checkFinite(c.name, c.v); err != nil {
			return err
		}
	}
	if g.XMax <= g.XMin {
		return invalid("Xmax", g.XMax, fmt.Sprintf("must be > Xmin (%v)", g.XMin))
	}
	if g.YMax <= g.YMin {
		return invalid("Ymax", g.YMax, fmt.Sprintf("must be > Ymin (%v)", g.YMin))
	}
	if g.ZMax <= SurfaceOffset {
		return invalid("Zmax", g.ZMax, fmt.Sprintf("must be > %v", SurfaceOffset))
	}
	return nil
}

// ValidateDepths checks that every requested depth is finite and positive.
func ValidateDepths(zs []float64) error {
	if len(zs) == 0 {
		return invalid("N", 0, "must be >= 1")
	}
	for i, z := range zs {
		name := fmt.Sprintf("z[%d]", i)
		if err := checkFinite(name, z); err != nil {
			return err
		}
		if z <= 0 {
			return invalid(name, z, "depth must be > 0")
		}
	}
	return nil
}

// ValidateLocation checks the horizontal coordinates of a depth profile.
func ValidateLocation(x, y float64) error {
	if err := checkFinite("x", x); err != nil {
		return err
	}
	return checkFinite("y", y)
}

// ValidatePoints checks horizontal coordinates and depth of each point.
func ValidatePoints(pts []Point) error {
	if len(pts) == 0 {
		return invalid("points", 0, "at least one point is required")
	}
	for i, p := range pts {
		if err := checkFinite(fmt.Sprintf("x[%d]", i), p.X); err != nil {
			return err
		}
		if err := checkFinite(fmt.Sprintf("y[%d]", i), p.Y); err != nil {
			return err
		}
		if err := checkFinite(fmt.Sprintf("z[%d]", i), p.Z); err != nil {
			return err
		}
		if p.Z <= 0 {
			return invalid(fmt.Sprintf("z[%d]", i), p.Z, "depth must be > 0")
		}
	}
	return nil
}

func checkPositive(name string, v float64) error {
	if err := checkFinite(name, v); err != nil {
		return err
	}
	if v <= 0 {
		return invalid(name, v, "must be > 0")
	}
	return nil
}

func checkFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid(name, v, "must be finite")
	}
	return nil
}
