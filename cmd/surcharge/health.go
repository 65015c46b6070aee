package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"

	"github.com/jonwraymond/surcharge/health"
)

var errUnhealthy = errors.New("surcharge: unhealthy")

func healthCommand(s *services) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "check the cache directory, cache tiers and heap",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "strict", Usage: "fail when any check is degraded"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return s.health(ctx, cmd)
		},
	}
}

func (s *services) aggregator() *health.Aggregator {
	agg := health.NewAggregator(s.cfg.AggregatorConfig())
	if s.cfg.Cache.Disk {
		disk := health.NewDiskChecker(s.disk)
		disk.WarnBytes = s.cfg.Health.DiskWarnBytes
		agg.Register(disk.Name(), disk)
	}
	agg.Register("cache", health.NewCacheChecker(s.cache))
	agg.Register("memory", health.NewMemoryChecker(s.cfg.MemoryCheckerConfig()))
	return agg
}

func (s *services) health(ctx context.Context, cmd *cli.Command) error {
	report := s.aggregator().Report(ctx)
	if err := report.WriteJSON(cmd.Root().Writer); err != nil {
		return err
	}
	switch {
	case report.Status == health.StatusUnhealthy:
		return errUnhealthy
	case report.Status == health.StatusDegraded && cmd.Bool("strict"):
		return errUnhealthy
	}
	return nil
}
