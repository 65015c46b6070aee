package main

import (
	"context"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/jonwraymond/surcharge/aggregate"
	"github.com/jonwraymond/surcharge/stress"
)

func circleCommand(s *services) *cli.Command {
	return &cli.Command{
		Name:      "circle",
		Usage:     "depth profile beneath a circular surcharge",
		UsageText: "surcharge circle --q 100 --radius 2 [--x 1] [--depths 1,2,4 | --zmin 0.5 --zmax 8 --nz 20]",
		Flags: []cli.Flag{
			&cli.FloatFlag{Name: "q", Usage: "surcharge intensity (kPa)", Required: true},
			&cli.FloatFlag{Name: "radius", Usage: "footprint radius (m)", Required: true},
			&cli.FloatFlag{Name: "x", Usage: "profile location (m)"},
			&cli.FloatFlag{Name: "y", Usage: "profile location (m)"},
			&cli.FloatSliceFlag{Name: "depths", Usage: "explicit depths (m), comma separated"},
			&cli.FloatFlag{Name: "zmin", Value: 0.5, Usage: "shallowest depth of the sweep (m)"},
			&cli.FloatFlag{Name: "zmax", Usage: "deepest depth of the sweep (m), default 4 × radius"},
			&cli.IntFlag{Name: "nz", Value: 20, Usage: "depths in the sweep"},
			&cli.StringFlag{Name: "out", Value: "-", Usage: "write the CSV here (- for stdout)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return s.circle(ctx, cmd)
		},
	}
}

func circleDepths(cmd *cli.Command) ([]float64, error) {
	if zs := cmd.FloatSlice("depths"); len(zs) > 0 {
		return zs, nil
	}
	zmax := 4 * cmd.Float("radius")
	if cmd.IsSet("zmax") {
		zmax = cmd.Float("zmax")
	}
	return stress.DepthSweep(cmd.Float("zmin"), zmax, cmd.Int("nz"))
}

func (s *services) circle(ctx context.Context, cmd *cli.Command) error {
	zs, err := circleDepths(cmd)
	if err != nil {
		return err
	}
	profile, err := s.calc.Circular(ctx,
		cmd.Float("q"), cmd.Float("radius"),
		cmd.Float("x"), cmd.Float("y"),
		zs,
	)
	if err != nil && !s.warnPersist(ctx, err) {
		return err
	}
	return writeTo(cmd, cmd.String("out"), func(w io.Writer) error {
		return aggregate.WriteProfileCSV(w, profile)
	})
}
