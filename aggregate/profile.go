package aggregate

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/interp"

	"github.com/jonwraymond/surcharge/stress"
)

// ProfileView is a depth profile extracted from a field at (X, Y).
type ProfileView struct {
	X, Y float64
	stress.Profile
}

// ID identifies the profile in report summaries, e.g. "profile@x=0,y=1".
func (p *ProfileView) ID() string {
	return fmt.Sprintf("profile@x=%g,y=%g", p.X, p.Y)
}

// DepthProfile returns σz at (x, y) for every lattice depth, interpolated
// bilinearly in the horizontal plane.
func DepthProfile(field *stress.Field, x, y float64) (*ProfileView, error) {
	if field == nil {
		return nil, ErrNilField
	}
	bx, err := locate("x", field.X, x)
	if err != nil {
		return nil, err
	}
	by, err := locate("y", field.Y, y)
	if err != nil {
		return nil, err
	}

	nz, _, _ := field.Shape()
	sigma := make([]float64, nz)
	for iz := range sigma {
		sigma[iz] = bilinear(field, iz, bx, by)
	}
	return &ProfileView{
		X:       x,
		Y:       y,
		Profile: stress.Profile{Z: slices.Clone(field.Z), Sigma: sigma},
	}, nil
}

// ValueAt returns σz at (x, y, z) by trilinear interpolation.
func ValueAt(field *stress.Field, x, y, z float64) (float64, error) {
	if field == nil {
		return 0, ErrNilField
	}
	bx, err := locate("x", field.X, x)
	if err != nil {
		return 0, err
	}
	by, err := locate("y", field.Y, y)
	if err != nil {
		return 0, err
	}
	bz, err := locate("z", field.Z, z)
	if err != nil {
		return 0, err
	}

	lo, hi, wlo, whi := bz.weights()
	v := wlo * bilinear(field, lo, bx, by)
	if whi != 0 {
		v += whi * bilinear(field, hi, bx, by)
	}
	return v, nil
}

func bilinear(field *stress.Field, iz int, bx, by bracket) float64 {
	x0, x1, wx0, wx1 := bx.weights()
	y0, y1, wy0, wy1 := by.weights()
	return wy0*(wx0*field.At(iz, y0, x0)+wx1*field.At(iz, y0, x1)) +
		wy1*(wx0*field.At(iz, y1, x0)+wx1*field.At(iz, y1, x1))
}

// Resample evaluates p at the depths zs by piecewise-linear interpolation.
// The result is in ascending depth order. Depths outside p's range fail
// with a *RangeError.
func Resample(p stress.Profile, zs []float64) (stress.Profile, error) {
	if p.Len() == 0 || len(p.Sigma) != p.Len() {
		return stress.Profile{}, fmt.Errorf("aggregate: profile has %d depths and %d values", p.Len(), len(p.Sigma))
	}
	for i := 1; i < p.Len(); i++ {
		if p.Z[i] <= p.Z[i-1] {
			return stress.Profile{}, fmt.Errorf("aggregate: profile depths not strictly increasing at index %d", i)
		}
	}
	depths := slices.Clone(zs)
	slices.Sort(depths)
	for _, z := range depths {
		if _, err := locate("z", p.Z, z); err != nil {
			return stress.Profile{}, err
		}
	}

	sigma := make([]float64, len(depths))
	if p.Len() == 1 {
		for i := range sigma {
			sigma[i] = p.Sigma[0]
		}
		return stress.Profile{Z: depths, Sigma: sigma}, nil
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(p.Z, p.Sigma); err != nil {
		return stress.Profile{}, fmt.Errorf("aggregate: fit profile: %w", err)
	}
	for i, z := range depths {
		sigma[i] = pl.Predict(z)
	}
	return stress.Profile{Z: depths, Sigma: sigma}, nil
}
