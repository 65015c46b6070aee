package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonwraymond/surcharge/cache"
	"github.com/jonwraymond/surcharge/health"
	"github.com/jonwraymond/surcharge/observe"
	"github.com/jonwraymond/surcharge/stress"
	"github.com/jonwraymond/surcharge/worker"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SURCHARGE"

// AppName names the default cache subdirectory and the telemetry service.
const AppName = "surcharge"

// Config is the complete surcharge configuration.
type Config struct {
	Cache     CacheConfig     `mapstructure:"cache"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// CacheConfig configures the memory and disk cache tiers.
type CacheConfig struct {
	Dir              string        `mapstructure:"dir"`
	Disk             bool          `mapstructure:"disk"`
	AutoPersist      bool          `mapstructure:"auto_persist"`
	ReadThrough      bool          `mapstructure:"read_through"`
	Precision        int           `mapstructure:"precision"`
	WriteRetries     int           `mapstructure:"write_retries"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
	BreakerThreshold int           `mapstructure:"breaker_threshold"`
	BreakerCooldown  time.Duration `mapstructure:"breaker_cooldown"`
}

// EngineConfig configures the stress engine.
type EngineConfig struct {
	GaussOrder int `mapstructure:"gauss_order"`
}

// WorkerConfig configures the background computation pool.
type WorkerConfig struct {
	MaxConcurrent int `mapstructure:"max_concurrent"`
	MaxQueue      int `mapstructure:"max_queue"`
}

// TelemetryConfig configures logging, tracing and metrics.
type TelemetryConfig struct {
	ServiceName     string  `mapstructure:"service_name"`
	LogLevel        string  `mapstructure:"log_level"`
	LogPretty       bool    `mapstructure:"log_pretty"`
	Tracing         bool    `mapstructure:"tracing"`
	TracingExporter string  `mapstructure:"tracing_exporter"`
	SamplePct       float64 `mapstructure:"sample_pct"`
	Metrics         bool    `mapstructure:"metrics"`
	MetricsExporter string  `mapstructure:"metrics_exporter"`
}

// HealthConfig configures the health checks.
type HealthConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	DiskWarnBytes int64         `mapstructure:"disk_warn_bytes"`
	HeapWarnBytes uint64        `mapstructure:"heap_warn_bytes"`
	HeapCritBytes uint64        `mapstructure:"heap_critical_bytes"`
}

// DefaultCacheDir returns <user cache dir>/surcharge, falling back to the
// system temp directory when the user cache directory is unknown.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, AppName)
}

func setDefaults(v *viper.Viper) {
	policy := cache.DefaultPolicy()
	v.SetDefault("cache.dir", DefaultCacheDir())
	v.SetDefault("cache.disk", true)
	v.SetDefault("cache.auto_persist", policy.AutoPersist)
	v.SetDefault("cache.read_through", policy.ReadThrough)
	v.SetDefault("cache.precision", cache.DefaultPrecision)
	v.SetDefault("cache.write_retries", policy.WriteRetries)
	v.SetDefault("cache.retry_delay", policy.RetryDelay)
	v.SetDefault("cache.breaker_threshold", policy.BreakerThreshold)
	v.SetDefault("cache.breaker_cooldown", policy.BreakerCooldown)

	v.SetDefault("engine.gauss_order", stress.GaussOrder)

	v.SetDefault("worker.max_concurrent", runtime.NumCPU())
	v.SetDefault("worker.max_queue", 0)

	v.SetDefault("telemetry.service_name", AppName)
	v.SetDefault("telemetry.log_level", "info")
	v.SetDefault("telemetry.log_pretty", false)
	v.SetDefault("telemetry.tracing", false)
	v.SetDefault("telemetry.tracing_exporter", "none")
	v.SetDefault("telemetry.sample_pct", 1.0)
	v.SetDefault("telemetry.metrics", false)
	v.SetDefault("telemetry.metrics_exporter", "none")

	v.SetDefault("health.timeout", 10*time.Second)
	v.SetDefault("health.disk_warn_bytes", 0)
	v.SetDefault("health.heap_warn_bytes", uint64(1<<30))
	v.SetDefault("health.heap_critical_bytes", uint64(4<<30))
}

// Load reads the configuration. An empty path skips the file and uses
// defaults plus environment overrides; a non-empty path must exist.
// The returned configuration has been validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if ext := filepath.Ext(path); ext == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	dir, err := expandPath(cfg.Cache.Dir)
	if err != nil {
		return nil, err
	}
	cfg.Cache.Dir = dir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Cache.Disk && strings.TrimSpace(c.Cache.Dir) == "" {
		bad("cache.dir is required when cache.disk is enabled")
	}
	if c.Cache.Precision < 0 || c.Cache.Precision > 12 {
		bad("cache.precision must be in [0, 12], got %d", c.Cache.Precision)
	}
	if c.Cache.WriteRetries < 0 {
		bad("cache.write_retries must not be negative, got %d", c.Cache.WriteRetries)
	}
	if c.Cache.RetryDelay < 0 || c.Cache.BreakerCooldown < 0 {
		bad("cache durations must not be negative")
	}
	if c.Cache.BreakerThreshold < 0 {
		bad("cache.breaker_threshold must not be negative, got %d", c.Cache.BreakerThreshold)
	}
	if c.Engine.GaussOrder < 1 {
		bad("engine.gauss_order must be at least 1, got %d", c.Engine.GaussOrder)
	}
	if c.Worker.MaxConcurrent < 1 {
		bad("worker.max_concurrent must be at least 1, got %d", c.Worker.MaxConcurrent)
	}
	if c.Worker.MaxQueue < 0 {
		bad("worker.max_queue must not be negative, got %d", c.Worker.MaxQueue)
	}
	if c.Health.Timeout <= 0 {
		bad("health.timeout must be positive, got %s", c.Health.Timeout)
	}
	if c.Health.HeapCritBytes < c.Health.HeapWarnBytes {
		bad("health.heap_critical_bytes must not be below health.heap_warn_bytes")
	}

	obs := c.ObserveConfig()
	if err := obs.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: telemetry: %w", ErrInvalidConfig, err))
	}
	return errors.Join(errs...)
}

// ObserveConfig converts the telemetry settings for observe.NewObserver.
// Logging is always enabled.
func (c *Config) ObserveConfig() observe.Config {
	t := c.Telemetry
	return observe.Config{
		ServiceName: t.ServiceName,
		Tracing: observe.TracingConfig{
			Enabled:   t.Tracing,
			Exporter:  t.TracingExporter,
			SamplePct: t.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  t.Metrics,
			Exporter: t.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   t.LogLevel,
			Pretty:  t.LogPretty,
		},
	}
}

// CachePolicy converts the cache settings to a cache.Policy.
func (c *Config) CachePolicy() cache.Policy {
	return cache.Policy{
		AutoPersist:      c.Cache.AutoPersist,
		ReadThrough:      c.Cache.ReadThrough,
		WriteRetries:     c.Cache.WriteRetries,
		RetryDelay:       c.Cache.RetryDelay,
		BreakerThreshold: c.Cache.BreakerThreshold,
		BreakerCooldown:  c.Cache.BreakerCooldown,
	}
}

// WorkerConfig converts the worker settings to a worker.Config.
func (c *Config) WorkerConfig() worker.Config {
	return worker.Config{
		MaxConcurrent: c.Worker.MaxConcurrent,
		MaxQueue:      c.Worker.MaxQueue,
	}
}

// AggregatorConfig converts the health settings for health.NewAggregator.
func (c *Config) AggregatorConfig() health.AggregatorConfig {
	return health.AggregatorConfig{Timeout: c.Health.Timeout}
}

// MemoryCheckerConfig converts the heap thresholds for health.NewMemoryChecker.
func (c *Config) MemoryCheckerConfig() health.MemoryCheckerConfig {
	return health.MemoryCheckerConfig{
		WarnHeap:     c.Health.HeapWarnBytes,
		CriticalHeap: c.Health.HeapCritBytes,
	}
}
