package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Cache lookup results recorded by RecordCacheLookup.
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupError = "error"
)

// Metrics records computation and cache metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordComputation records one engine run with duration and error status.
	RecordComputation(ctx context.Context, meta ComputationMeta, duration time.Duration, err error)

	// RecordCacheLookup records one tier lookup; result is LookupHit,
	// LookupMiss or LookupError.
	RecordCacheLookup(ctx context.Context, tier, result string)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	lookups      metric.Int64Counter
}

// NewMetrics creates the stress.* instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"stress.compute.total",
		metric.WithDescription("Total number of stress computations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"stress.compute.errors",
		metric.WithDescription("Total number of failed stress computations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"stress.compute.duration_ms",
		metric.WithDescription("Stress computation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	lookups, err := meter.Int64Counter(
		"stress.cache.lookups",
		metric.WithDescription("Cache tier lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		lookups:      lookups,
	}, nil
}

func (m *metricsImpl) RecordComputation(ctx context.Context, meta ComputationMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *metricsImpl) RecordCacheLookup(ctx context.Context, tier, result string) {
	m.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.tier", tier),
		attribute.String("cache.result", result),
	))
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) RecordComputation(context.Context, ComputationMeta, time.Duration, error) {}
func (noopMetrics) RecordCacheLookup(context.Context, string, string)                      {}
