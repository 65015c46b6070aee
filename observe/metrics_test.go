package observe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

// TestMetrics_ComputationCounters verifies total, errors and duration.
func TestMetrics_ComputationCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	meta := ComputationMeta{Kind: "rectangular", Operation: "grid"}

	m.RecordComputation(context.Background(), meta, 120*time.Millisecond, nil)
	m.RecordComputation(context.Background(), meta, 80*time.Millisecond, errors.New("boom"))

	rm := collect(t, reader)

	total := findMetric(rm, "stress.compute.total")
	if total == nil {
		t.Fatal("stress.compute.total metric not found")
	}
	sum, ok := total.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 2 {
		t.Fatalf("expected total=2, got %+v", total.Data)
	}
	if v, ok := sum.DataPoints[0].Attributes.Value("stress.kind"); !ok || v.AsString() != "rectangular" {
		t.Errorf("expected stress.kind=rectangular, got %v", v)
	}

	errs := findMetric(rm, "stress.compute.errors")
	if errs == nil {
		t.Fatal("stress.compute.errors metric not found")
	}
	if sum := errs.Data.(metricdata.Sum[int64]); sum.DataPoints[0].Value != 1 {
		t.Errorf("expected errors=1, got %d", sum.DataPoints[0].Value)
	}

	dur := findMetric(rm, "stress.compute.duration_ms")
	if dur == nil {
		t.Fatal("stress.compute.duration_ms metric not found")
	}
	hist, ok := dur.Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 {
		t.Fatalf("expected one histogram data point, got %+v", dur.Data)
	}
	if hist.DataPoints[0].Count != 2 || hist.DataPoints[0].Sum != 200 {
		t.Errorf("expected count=2 sum=200, got count=%d sum=%v", hist.DataPoints[0].Count, hist.DataPoints[0].Sum)
	}
}

// TestMetrics_CacheLookups verifies lookups are split by tier and result.
func TestMetrics_CacheLookups(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordCacheLookup(ctx, "memory", LookupMiss)
	m.RecordCacheLookup(ctx, "disk", LookupHit)
	m.RecordCacheLookup(ctx, "memory", LookupMiss)

	found := findMetric(collect(t, reader), "stress.cache.lookups")
	if found == nil {
		t.Fatal("stress.cache.lookups metric not found")
	}
	sum := found.Data.(metricdata.Sum[int64])

	counts := map[attribute.Distinct]int64{}
	for _, dp := range sum.DataPoints {
		counts[dp.Attributes.Equivalent()] = dp.Value
	}
	memMiss := attribute.NewSet(attribute.String("cache.tier", "memory"), attribute.String("cache.result", LookupMiss))
	diskHit := attribute.NewSet(attribute.String("cache.tier", "disk"), attribute.String("cache.result", LookupHit))
	if counts[memMiss.Equivalent()] != 2 {
		t.Errorf("expected 2 memory misses, got %d", counts[memMiss.Equivalent()])
	}
	if counts[diskHit.Equivalent()] != 1 {
		t.Errorf("expected 1 disk hit, got %d", counts[diskHit.Equivalent()])
	}
}

// TestMetrics_ConcurrentRecording verifies the recorder is safe for concurrent use.
func TestMetrics_ConcurrentRecording(t *testing.T) {
	m, reader := newTestMetrics(t)
	const numGoroutines = 50

	var wg sync.WaitGroup
	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordComputation(context.Background(), ComputationMeta{Kind: "circular"}, time.Millisecond, nil)
		}()
	}
	wg.Wait()

	found := findMetric(collect(t, reader), "stress.compute.total")
	if found == nil {
		t.Fatal("stress.compute.total metric not found")
	}
	if v := found.Data.(metricdata.Sum[int64]).DataPoints[0].Value; v != numGoroutines {
		t.Errorf("expected count %d, got %d", numGoroutines, v)
	}
}

func TestNopMetrics_NoPanic(t *testing.T) {
	m := NopMetrics()
	m.RecordComputation(context.Background(), ComputationMeta{}, time.Second, errors.New("x"))
	m.RecordCacheLookup(context.Background(), "disk", LookupError)
}

// findMetric searches for a metric by name in ResourceMetrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}
