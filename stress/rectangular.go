package stress

import "math"

// pointLoad returns σz at depth z and horizontal offset (dx, dy) from a
// point load p: 3·p·z³ / (2π·R⁵).
func pointLoad(p, dx, dy, z float64) float64 {
	r2 := dx*dx + dy*dy + z*z
	r := math.Sqrt(r2)
	return 3 * p * z * z * z / (2 * math.Pi * r2 * r2 * r)
}

// footprint is a rectangular load split into point loads at subelement
// centroids.
type footprint struct {
	p  float64 // load per subelement
	xc []float64
	yc []float64
}

func newFootprint(q, lx, ly float64, mx, my int) footprint {
	dx := lx / float64(mx)
	dy := ly / float64(my)

	xc := make([]float64, mx)
	for i := range xc {
		xc[i] = -lx/2 + (float64(i)+0.5)*dx
	}
	yc := make([]float64, my)
	for j := range yc {
		yc[j] = -ly/2 + (float64(j)+0.5)*dy
	}

	return footprint{p: q * dx * dy, xc: xc, yc: yc}
}

// sigma sums the subelement contributions at (x, y, z).
func (f footprint) sigma(x, y, z float64) float64 {
	if f.p == 0 {
		return 0
	}
	var sum float64
	for _, xc := range f.xc {
		dx := x - xc
		for _, yc := range f.yc {
			sum += pointLoad(f.p, dx, y-yc, z)
		}
	}
	return sum
}

// RectangularPoint returns σz at one point for a rectangular load using an
// explicit mx × my subdivision. Inputs are validated.
func RectangularPoint(q, lx, ly float64, p Point, mx, my int) (float64, error) {
	if err := ValidateLoad(Load{Q: q, Geometry: Rectangle(lx, ly)}); err != nil {
		return 0, err
	}
	if err := ValidatePoints([]Point{p}); err != nil {
		return 0, err
	}
	if err := (Discretization{Mx: mx, My: my, Panels: 1}).validate(); err != nil {
		return 0, err
	}
	return newFootprint(q, lx, ly, mx, my).sigma(p.X, p.Y, p.Z), nil
}
