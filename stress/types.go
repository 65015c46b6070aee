package stress

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// SurfaceOffset is the depth of the shallowest lattice level. The kernel is
// singular at z = 0, so grids start just below the surface.
const SurfaceOffset = 0.01

// Kind tags the footprint variant of a Geometry.
type Kind int

const (
	// KindRectangular is an Lx × Ly footprint centred at the origin.
	KindRectangular Kind = iota + 1
	// KindCircular is a disc of the given radius centred at the origin.
	KindCircular
)

// String returns the kind name used in cache keys and telemetry.
func (k Kind) String() string {
	switch k {
	case KindRectangular:
		return "rectangular"
	case KindCircular:
		return "circular"
	default:
		return "unknown"
	}
}

// Geometry is the footprint of a surcharge. Only the fields relevant to Kind
// are meaningful.
type Geometry struct {
	Kind   Kind
	Lx     float64
	Ly     float64
	Radius float64
}

// Rectangle returns a rectangular footprint.
func Rectangle(lx, ly float64) Geometry {
	return Geometry{Kind: KindRectangular, Lx: lx, Ly: ly}
}

// Circle returns a circular footprint.
func Circle(radius float64) Geometry {
	return Geometry{Kind: KindCircular, Radius: radius}
}

// Load is a uniform surcharge of intensity Q (kPa) over a footprint centred
// at the origin.
type Load struct {
	Q        float64
	Geometry Geometry
}

// Point is an evaluation point; Z is depth below the surface and must be > 0.
type Point struct {
	X, Y, Z float64
}

// Grid defines a regular lattice of evaluation points.
type Grid struct {
	XMin, XMax float64
	YMin, YMax float64
	ZMax       float64
	Nx, Ny, Nz int
}

// Axes returns the X, Y and Z lattice coordinates of the grid.
func (g Grid) Axes() (x, y, z []float64) {
	return axis(g.XMin, g.XMax, g.Nx), axis(g.YMin, g.YMax, g.Ny), axis(SurfaceOffset, g.ZMax, g.Nz)
}

// Len returns the number of lattice points.
func (g Grid) Len() int {
	return g.Nx * g.Ny * g.Nz
}

// axis returns n evenly spaced values from lo to hi inclusive. A single
// point sits at lo.
func axis(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	out := floats.Span(make([]float64, n), lo, hi)
	out[n-1] = hi
	return out
}

// DepthSweep returns n evenly spaced depths from zmin to zmax inclusive.
// A non-positive n is reported as a *ValidationError on N.
func DepthSweep(zmin, zmax float64, n int) ([]float64, error) {
	if n <= 0 {
		return nil, invalid("N", n, "must be >= 1")
	}
	return axis(zmin, zmax, n), nil
}

// Field is a computed stress field over a lattice. Sigma is stored row-major
// with shape (len(Z), len(Y), len(X)). A Field must not be modified once it
// has been returned by the engine or a cache.
type Field struct {
	X, Y, Z []float64
	Sigma   []float64
}

// NewField assembles a Field, checking that sigma matches the axes.
func NewField(x, y, z, sigma []float64) (*Field, error) {
	if len(x) == 0 || len(y) == 0 || len(z) == 0 {
		return nil, fmt.Errorf("stress: empty axis (x=%d, y=%d, z=%d)", len(x), len(y), len(z))
	}
	if want := len(x) * len(y) * len(z); len(sigma) != want {
		return nil, fmt.Errorf("stress: sigma has %d values, want %d", len(sigma), want)
	}
	return &Field{X: x, Y: y, Z: z, Sigma: sigma}, nil
}

// Shape returns (Nz, Ny, Nx).
func (f *Field) Shape() (nz, ny, nx int) {
	return len(f.Z), len(f.Y), len(f.X)
}

// Index returns the flat index of lattice point (iz, iy, ix).
func (f *Field) Index(iz, iy, ix int) int {
	return (iz*len(f.Y)+iy)*len(f.X) + ix
}

// At returns σz at lattice point (iz, iy, ix).
func (f *Field) At(iz, iy, ix int) float64 {
	return f.Sigma[f.Index(iz, iy, ix)]
}

// Max returns the largest σz in the field.
func (f *Field) Max() float64 {
	return floats.Max(f.Sigma)
}

// Min returns the smallest σz in the field.
func (f *Field) Min() float64 {
	return floats.Min(f.Sigma)
}

// Profile is a depth profile: Sigma[i] is σz at depth Z[i], ascending in Z.
type Profile struct {
	Z     []float64
	Sigma []float64
}

// Len returns the number of depths.
func (p Profile) Len() int {
	return len(p.Z)
}
