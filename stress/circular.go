package stress

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// OnAxisTolerance is the horizontal distance (m) below which a point is
// treated as lying on the axis of a circular load and the closed form is used.
const OnAxisTolerance = 1e-9

// GaussOrder is the default Gauss–Legendre order of each quadrature panel.
const GaussOrder = 8

// circularOnAxis is the exact σz beneath the centre of a circular load.
func circularOnAxis(q, radius, z float64) float64 {
	z3 := z * z * z
	return q * (1 - z3/math.Pow(z*z+radius*radius, 1.5))
}

// gaussRule holds Gauss–Legendre nodes and weights on [0, 1].
type gaussRule struct {
	x, w []float64
}

func newGaussRule(order int) gaussRule {
	x := make([]float64, order)
	w := make([]float64, order)
	quad.Legendre{}.FixedLocations(x, w, 0, 1)
	return gaussRule{x: x, w: w}
}

// composite tiles the rule over p equal panels of t ∈ [0, 1] and maps the
// nodes through u = sin²(πt/2). The map clusters nodes at both ends of
// [0, 1] and its Jacobian is folded into the weights.
func (g gaussRule) composite(p int) discQuadrature {
	n := len(g.x)
	u := make([]float64, 0, p*n)
	w := make([]float64, 0, p*n)
	width := 1 / float64(p)
	for k := 0; k < p; k++ {
		for i := range g.x {
			t := (float64(k) + g.x[i]) * width
			half := math.Sin(math.Pi * t / 2)
			u = append(u, half*half)
			w = append(w, g.w[i]*width*math.Pi/2*math.Sin(math.Pi*t))
		}
	}
	return discQuadrature{u: u, w: w}
}

// discQuadrature integrates the Boussinesq kernel over a disc in polar
// coordinates centred on the evaluation point.
//
// Along a ray of horizontal length S from the point the kernel integrates
// exactly: ∫₀^S 3z³s/(s²+z²)^(5/2) ds = 1 − z³/(S²+z²)^(3/2). Only the
// angular integral over the ray directions is numerical, so shallow points
// near the load edge need no radial refinement.
type discQuadrature struct {
	u, w []float64
}

// sigma returns σz at horizontal distance r and depth z from the centre of a
// circular load of intensity q and radius a.
func (c discQuadrature) sigma(q, a, r, z float64) float64 {
	if q == 0 {
		return 0
	}
	if r <= OnAxisTolerance {
		return circularOnAxis(q, a, z)
	}

	var sum float64
	if r < a {
		// Every ray leaves the disc once. φ is measured from the direction
		// away from the centre and runs over [0, π] by symmetry.
		for i, u := range c.u {
			sin, cos := math.Sincos(math.Pi * u)
			edge := math.Sqrt(a*a-r*r*sin*sin) - r*cos
			sum += c.w[i] * (1 - cubeRatio(edge, z))
		}
		return q * sum
	}

	// Outside the disc only rays within ψmax of the centre direction cross
	// it, entering at near and leaving at far.
	psiMax := math.Asin(min(1, a/r))
	for i, u := range c.u {
		sin, cos := math.Sincos(psiMax * u)
		root := math.Sqrt(max(0, a*a-r*r*sin*sin))
		near, far := r*cos-root, r*cos+root
		sum += c.w[i] * (cubeRatio(near, z) - cubeRatio(far, z))
	}
	return q * psiMax / math.Pi * sum
}

// cubeRatio returns z³/(s²+z²)^(3/2); z > 0 keeps the denominator positive.
func cubeRatio(s, z float64) float64 {
	t := z / math.Hypot(s, z)
	return t * t * t
}
