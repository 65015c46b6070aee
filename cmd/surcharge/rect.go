package main

import (
	"context"
	"errors"
	"io"
	"math"

	"github.com/urfave/cli/v3"

	"github.com/jonwraymond/surcharge/aggregate"
	"github.com/jonwraymond/surcharge/observe"
	"github.com/jonwraymond/surcharge/stress"
)

func rectCommand(s *services) *cli.Command {
	return &cli.Command{
		Name:      "rect",
		Usage:     "stress field beneath a rectangular surcharge",
		UsageText: "surcharge rect --q 100 --lx 2 --ly 3 [options]",
		Flags: []cli.Flag{
			&cli.FloatFlag{Name: "q", Usage: "surcharge intensity (kPa)", Required: true},
			&cli.FloatFlag{Name: "lx", Usage: "footprint length along x (m)", Required: true},
			&cli.FloatFlag{Name: "ly", Usage: "footprint length along y (m)", Required: true},
			&cli.FloatFlag{Name: "xmin", Usage: "grid extent (m), default -lx"},
			&cli.FloatFlag{Name: "xmax", Usage: "grid extent (m), default lx"},
			&cli.FloatFlag{Name: "ymin", Usage: "grid extent (m), default -ly"},
			&cli.FloatFlag{Name: "ymax", Usage: "grid extent (m), default ly"},
			&cli.FloatFlag{Name: "zmax", Usage: "deepest level (m), default 2 × max(lx, ly)"},
			&cli.IntFlag{Name: "nx", Value: 21, Usage: "lattice points along x"},
			&cli.IntFlag{Name: "ny", Value: 21, Usage: "lattice points along y"},
			&cli.IntFlag{Name: "nz", Value: 20, Usage: "lattice levels"},
			&cli.FloatFlag{Name: "profile-x", Usage: "extract a depth profile at this x"},
			&cli.FloatFlag{Name: "profile-y", Usage: "extract a depth profile at this y"},
			&cli.FloatFlag{Name: "slice-y", Usage: "extract an x-z slice at this y"},
			&cli.FloatFlag{Name: "slice-x", Usage: "extract a y-z slice at this x"},
			&cli.StringFlag{Name: "csv", Usage: "write the depth profile as CSV to this path"},
			&cli.StringFlag{Name: "summary", Value: "-", Usage: "write the JSON summary here (- for stdout)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return s.rect(ctx, cmd)
		},
	}
}

func rectGrid(cmd *cli.Command) stress.Grid {
	lx, ly := cmd.Float("lx"), cmd.Float("ly")
	extent := func(name string, def float64) float64 {
		if cmd.IsSet(name) {
			return cmd.Float(name)
		}
		return def
	}
	return stress.Grid{
		XMin: extent("xmin", -lx), XMax: extent("xmax", lx),
		YMin: extent("ymin", -ly), YMax: extent("ymax", ly),
		ZMax: extent("zmax", 2*math.Max(lx, ly)),
		Nx:   cmd.Int("nx"), Ny: cmd.Int("ny"), Nz: cmd.Int("nz"),
	}
}

func (s *services) rect(ctx context.Context, cmd *cli.Command) error {
	load := stress.Load{Q: cmd.Float("q"), Geometry: stress.Rectangle(cmd.Float("lx"), cmd.Float("ly"))}
	grid := rectGrid(cmd)

	job, err := s.calc.FieldAsync(ctx, s.pool, load, grid)
	if err != nil {
		return err
	}
	s.logger.Debug(ctx, "rectangular field submitted",
		observe.Field{Key: "job", Value: job.ID()},
		observe.Field{Key: "points", Value: grid.Len()},
	)
	field, err := job.Wait(ctx)
	if err != nil && !s.warnPersist(ctx, err) {
		return err
	}

	var views []aggregate.View
	var profile *aggregate.ProfileView
	if cmd.IsSet("profile-x") || cmd.IsSet("profile-y") {
		profile, err = aggregate.DepthProfile(field, cmd.Float("profile-x"), cmd.Float("profile-y"))
		if err != nil {
			return err
		}
		views = append(views, profile)
	}
	if cmd.IsSet("slice-y") {
		slice, err := aggregate.XZSlice(field, cmd.Float("slice-y"))
		if err != nil {
			return err
		}
		views = append(views, slice)
	}
	if cmd.IsSet("slice-x") {
		slice, err := aggregate.YZSlice(field, cmd.Float("slice-x"))
		if err != nil {
			return err
		}
		views = append(views, slice)
	}

	if path := cmd.String("csv"); path != "" {
		if profile == nil {
			return errors.New("--csv needs --profile-x or --profile-y")
		}
		if err := writeTo(cmd, path, func(w io.Writer) error {
			return aggregate.WriteProfileCSV(w, profile.Profile)
		}); err != nil {
			return err
		}
	}

	summary := aggregate.Summarize(load, grid, field, views...)
	return writeTo(cmd, cmd.String("summary"), summary.WriteJSON)
}
