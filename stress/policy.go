package stress

// Subdivision bounds applied by Subdivisions.
const (
	MinSubdivisions = 4
	MaxSubdivisions = 40
)

// Subdivisions maps a requested resolution along one axis to the number of
// footprint subelements (rectangular) or quadrature panels (circular):
// min(40, max(4, n/2)).
//
// The cap bounds worst-case cost at O(Nx·Ny·Nz·mx·my) however fine the
// output grid; the floor bounds superposition error on coarse grids.
func Subdivisions(n int) int {
	return min(MaxSubdivisions, max(MinSubdivisions, n/2))
}

// Discretization holds the resolved subdivision counts for one computation.
type Discretization struct {
	// Mx and My are rectangular subelement counts along X and Y.
	Mx, My int

	// Panels is the composite quadrature panel count over ray directions
	// for circular loads.
	Panels int
}

// ForGrid derives the discretization for a grid computation.
func ForGrid(g Grid) Discretization {
	return Discretization{
		Mx:     Subdivisions(g.Nx),
		My:     Subdivisions(g.Ny),
		Panels: Subdivisions(max(g.Nx, g.Ny, g.Nz)),
	}
}

// ForSweep derives the discretization for an n-point depth sweep.
func ForSweep(n int) Discretization {
	m := Subdivisions(n)
	return Discretization{Mx: m, My: m, Panels: m}
}

func (d Discretization) validate() error {
	if d.Mx <= 0 {
		return invalid("mx", d.Mx, "must be >= 1")
	}
	if d.My <= 0 {
		return invalid("my", d.My, "must be >= 1")
	}
	if d.Panels <= 0 {
		return invalid("panels", d.Panels, "must be >= 1")
	}
	return nil
}
