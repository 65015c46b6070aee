package aggregate

import (
	"encoding/json"
	"io"

	"github.com/jonwraymond/surcharge/stress"
)

// View is a derived view that can be listed in a report summary.
type View interface {
	ID() string
}

// LoadSummary describes the surcharge. Only the dimensions of the load kind
// are set.
type LoadSummary struct {
	Kind   string  `json:"kind"`
	Q      float64 `json:"q_kpa"`
	Lx     float64 `json:"lx_m,omitempty"`
	Ly     float64 `json:"ly_m,omitempty"`
	Radius float64 `json:"radius_m,omitempty"`
}

// GridSummary describes the calculation grid.
type GridSummary struct {
	XMin float64 `json:"xmin_m"`
	XMax float64 `json:"xmax_m"`
	YMin float64 `json:"ymin_m"`
	YMax float64 `json:"ymax_m"`
	ZMax float64 `json:"zmax_m"`
	Nx   int     `json:"nx"`
	Ny   int     `json:"ny"`
	Nz   int     `json:"nz"`
}

// Summary is the structured input handed to report renderers: the
// calculation inputs, the generated views and headline results.
type Summary struct {
	Load     LoadSummary `json:"load"`
	Grid     GridSummary `json:"grid"`
	Views    []string    `json:"views"`
	SigmaMax float64     `json:"sigma_max_kpa"`
	SigmaMin float64     `json:"sigma_min_kpa"`
	Points   int         `json:"points"`
}

// Summarize builds the report summary for field computed from load over grid.
func Summarize(load stress.Load, grid stress.Grid, field *stress.Field, views ...View) Summary {
	s := Summary{
		Load: summarizeLoad(load),
		Grid: GridSummary{
			XMin: grid.XMin, XMax: grid.XMax,
			YMin: grid.YMin, YMax: grid.YMax,
			ZMax: grid.ZMax,
			Nx:   grid.Nx, Ny: grid.Ny, Nz: grid.Nz,
		},
		Views: make([]string, 0, len(views)),
	}
	for _, v := range views {
		s.Views = append(s.Views, v.ID())
	}
	if field != nil && len(field.Sigma) > 0 {
		s.SigmaMax = field.Max()
		s.SigmaMin = field.Min()
		s.Points = len(field.Sigma)
	}
	return s
}

func summarizeLoad(load stress.Load) LoadSummary {
	g := load.Geometry
	ls := LoadSummary{Kind: g.Kind.String(), Q: load.Q}
	switch g.Kind {
	case stress.KindCircular:
		ls.Radius = g.Radius
	default:
		ls.Lx, ls.Ly = g.Lx, g.Ly
	}
	return ls
}

// WriteJSON writes the summary as indented JSON.
func (s Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
