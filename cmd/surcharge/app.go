package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/jonwraymond/surcharge/cache"
	"github.com/jonwraymond/surcharge/calc"
	"github.com/jonwraymond/surcharge/config"
	"github.com/jonwraymond/surcharge/observe"
	"github.com/jonwraymond/surcharge/stress"
	"github.com/jonwraymond/surcharge/worker"
)

// services holds everything a command needs. It is populated by the root
// Before hook and released by the root After hook.
type services struct {
	cfg    *config.Config
	obs    observe.Observer
	logger observe.Logger
	disk   *cache.DiskTier
	cache  *cache.Manager
	calc   *calc.Calculator
	pool   *worker.Pool
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	s := &services{}

	return &cli.Command{
		Name:      "surcharge",
		Usage:     "vertical stress beneath uniform surface surcharges",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				Sources: cli.EnvVars(config.EnvPrefix + "_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "cache-dir",
				Usage: "disk cache directory (overrides cache.dir)",
			},
			&cli.BoolFlag{
				Name:  "memory-only",
				Usage: "do not read or write the disk cache",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides telemetry.log_level)",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, s.open(ctx, cmd, stderr)
		},
		After: func(ctx context.Context, _ *cli.Command) error {
			return s.close(ctx)
		},
		Commands: []*cli.Command{
			rectCommand(s),
			circleCommand(s),
			healthCommand(s),
		},
	}
}

// open loads the configuration, applies flag overrides and builds the
// telemetry, cache, calculator and worker pool.
func (s *services) open(ctx context.Context, cmd *cli.Command, logOut io.Writer) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	if dir := cmd.String("cache-dir"); dir != "" {
		cfg.Cache.Dir = dir
	}
	if cmd.Bool("memory-only") {
		cfg.Cache.Disk = false
	}
	if level := cmd.String("log-level"); level != "" {
		cfg.Telemetry.LogLevel = level
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg

	obsCfg := cfg.ObserveConfig()
	obsCfg.Version = version
	obsCfg.Logging.Writer = logOut
	obs, err := observe.NewObserver(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	s.obs = obs
	s.logger = obs.Logger()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	if cfg.Cache.Disk {
		disk, err := cache.NewDiskTier(cfg.Cache.Dir, cache.WithDiskLogger(s.logger))
		if err != nil {
			s.logger.Warn(ctx, "disk cache unavailable, continuing memory only",
				observe.Field{Key: "dir", Value: cfg.Cache.Dir},
				observe.Field{Key: "error", Value: err},
			)
		} else {
			s.disk = disk
		}
	}

	s.cache = cache.NewManager(
		cache.WithDisk(s.disk),
		cache.WithPolicy(cfg.CachePolicy()),
		cache.WithLogger(s.logger),
		cache.WithMetrics(mw.Metrics()),
	)

	engine := stress.NewEngine(stress.WithGaussOrder(cfg.Engine.GaussOrder))
	s.calc = calc.New(
		calc.WithEngine(engine),
		calc.WithKeyer(cache.NewKeyer(
			cache.WithPrecision(cfg.Cache.Precision),
			cache.WithParam("gauss_order", engine.GaussOrder()),
		)),
		calc.WithCache(s.cache),
		calc.WithMiddleware(mw),
	)
	s.pool = worker.NewPool(cfg.WorkerConfig(), worker.WithLogger(s.logger))
	return nil
}

func (s *services) close(ctx context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.obs == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return s.obs.Shutdown(ctx)
}

// warnPersist logs a result that was computed but not written to disk and
// reports whether err was only that.
func (s *services) warnPersist(ctx context.Context, err error) bool {
	if err == nil || !calc.PersistFailed(err) {
		return false
	}
	s.logger.Warn(ctx, "result not cached on disk", observe.Field{Key: "error", Value: err})
	return true
}

// output opens path for writing; "-" or "" is the command's stdout.
func output(cmd *cli.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.Root().Writer, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func writeTo(cmd *cli.Command, path string, write func(io.Writer) error) (err error) {
	w, closeFn, err := output(cmd, path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeFn()) }()
	return write(w)
}
