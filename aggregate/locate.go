package aggregate

import (
	"math"
	"sort"
)

// snapTolerance absorbs rounding in lattice coordinates so that a request
// for an exact bound is never rejected.
const snapTolerance = 1e-9

// bracket is the position of a coordinate between two lattice lines:
// value = (1-t)*axis[i] + t*axis[i+1]. For a single-point axis i is 0 and t 0.
type bracket struct {
	i int
	t float64
}

// weights returns the lattice indices and weights for the bracket.
func (b bracket) weights() (lo, hi int, wlo, whi float64) {
	if b.t == 0 {
		return b.i, b.i, 1, 0
	}
	return b.i, b.i + 1, 1 - b.t, b.t
}

// locate finds v on an ascending axis.
func locate(name string, axis []float64, v float64) (bracket, error) {
	n := len(axis)
	lo, hi := axis[0], axis[n-1]
	tol := snapTolerance * max(1, math.Abs(lo), math.Abs(hi))

	if math.IsNaN(v) || v < lo-tol || v > hi+tol {
		return bracket{}, &RangeError{Axis: name, Value: v, Min: lo, Max: hi}
	}
	if n == 1 || v <= lo {
		return bracket{i: 0}, nil
	}
	if v >= hi {
		return bracket{i: n - 1}, nil
	}

	// First index with axis[j] > v; v lies in [axis[j-1], axis[j]).
	j := sort.Search(n, func(k int) bool { return axis[k] > v })
	i := j - 1
	t := (v - axis[i]) / (axis[j] - axis[i])
	return bracket{i: i, t: t}, nil
}
