package aggregate

import (
	"fmt"

	"github.com/jonwraymond/surcharge/stress"
)

// Plane names a vertical slice orientation.
type Plane string

const (
	PlaneXZ Plane = "xz"
	PlaneYZ Plane = "yz"
)

// Slice is a vertical 2D view of a field. H holds the varying horizontal
// coordinate (X for PlaneXZ, Y for PlaneYZ) and Sigma has shape (len(Z), len(H)).
type Slice struct {
	Plane Plane
	Fixed float64
	H     []float64
	Z     []float64
	Sigma []float64
}

// At returns σz at depth index iz and horizontal index ih.
func (s *Slice) At(iz, ih int) float64 {
	return s.Sigma[iz*len(s.H)+ih]
}

// ID identifies the slice in report summaries, e.g. "xz@y=1.5".
func (s *Slice) ID() string {
	axis := "y"
	if s.Plane == PlaneYZ {
		axis = "x"
	}
	return fmt.Sprintf("%s@%s=%g", s.Plane, axis, s.Fixed)
}

// XZSlice returns the X-Z plane at y, interpolated linearly between the
// bracketing Y lattice lines.
func XZSlice(field *stress.Field, y float64) (*Slice, error) {
	if field == nil {
		return nil, ErrNilField
	}
	b, err := locate("y", field.Y, y)
	if err != nil {
		return nil, err
	}
	lo, hi, wlo, whi := b.weights()

	nz, _, nx := field.Shape()
	sigma := make([]float64, 0, nz*nx)
	for iz := 0; iz < nz; iz++ {
		for ix := 0; ix < nx; ix++ {
			sigma = append(sigma, wlo*field.At(iz, lo, ix)+whi*field.At(iz, hi, ix))
		}
	}
	return &Slice{Plane: PlaneXZ, Fixed: y, H: field.X, Z: field.Z, Sigma: sigma}, nil
}

// YZSlice returns the Y-Z plane at x, interpolated linearly between the
// bracketing X lattice lines.
func YZSlice(field *stress.Field, x float64) (*Slice, error) {
	if field == nil {
		return nil, ErrNilField
	}
	b, err := locate("x", field.X, x)
	if err != nil {
		return nil, err
	}
	lo, hi, wlo, whi := b.weights()

	nz, ny, _ := field.Shape()
	sigma := make([]float64, 0, nz*ny)
	for iz := 0; iz < nz; iz++ {
		for iy := 0; iy < ny; iy++ {
			sigma = append(sigma, wlo*field.At(iz, iy, lo)+whi*field.At(iz, iy, hi))
		}
	}
	return &Slice{Plane: PlaneYZ, Fixed: x, H: field.Y, Z: field.Z, Sigma: sigma}, nil
}
