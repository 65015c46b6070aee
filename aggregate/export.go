package aggregate

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jonwraymond/surcharge/stress"
)

// ProfileHeader is the header row written by WriteProfileCSV.
var ProfileHeader = []string{"z", "sigma_z"}

// WriteProfileCSV writes p as comma-separated (z, sigma_z) rows after a
// header. Values use the shortest representation that round-trips.
func WriteProfileCSV(w io.Writer, p stress.Profile) error {
	if len(p.Sigma) != p.Len() {
		return fmt.Errorf("aggregate: profile has %d depths and %d values", p.Len(), len(p.Sigma))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ProfileHeader); err != nil {
		return fmt.Errorf("aggregate: write header: %w", err)
	}
	for i, z := range p.Z {
		row := []string{formatFloat(z), formatFloat(p.Sigma[i])}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("aggregate: write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
