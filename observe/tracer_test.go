package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return NewTracer(tp.Tracer("test")), recorder
}

func attrMap(s sdktrace.ReadOnlySpan) map[string]attribute.Value {
	m := make(map[string]attribute.Value)
	for _, a := range s.Attributes() {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestComputationMeta_SpanName(t *testing.T) {
	meta := ComputationMeta{Kind: "circular", Operation: "profile"}
	if got := meta.SpanName(); got != "stress.compute.circular" {
		t.Errorf("expected %q, got %q", "stress.compute.circular", got)
	}
	if err := (ComputationMeta{}).Validate(); !errors.Is(err, ErrMissingKind) {
		t.Errorf("expected ErrMissingKind, got %v", err)
	}
	if err := meta.Validate(); err != nil {
		t.Errorf("expected valid meta, got %v", err)
	}
}

// TestTracer_SpanAttributes verifies all attributes are present on span.
func TestTracer_SpanAttributes(t *testing.T) {
	tr, recorder := newRecordingTracer()
	meta := ComputationMeta{
		Kind:      "rectangular",
		Operation: "grid",
		Key:       "rectangular:00112233aabbccdd",
		Points:    605,
	}

	_, span := tr.StartSpan(context.Background(), meta)
	tr.EndSpan(span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != "stress.compute.rectangular" {
		t.Errorf("unexpected span name %q", s.Name())
	}

	attrs := attrMap(s)
	if v := attrs["stress.kind"]; v.AsString() != "rectangular" {
		t.Errorf("expected stress.kind=rectangular, got %v", v)
	}
	if v := attrs["stress.op"]; v.AsString() != "grid" {
		t.Errorf("expected stress.op=grid, got %v", v)
	}
	if v := attrs["cache.key"]; v.AsString() != "rectangular:00112233aabbccdd" {
		t.Errorf("unexpected cache.key %v", v)
	}
	if v := attrs["stress.points"]; v.AsInt64() != 605 {
		t.Errorf("expected stress.points=605, got %v", v)
	}
	if v, ok := attrs["stress.error"]; !ok || v.AsBool() {
		t.Errorf("expected stress.error=false, got %v", v)
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("expected ok status, got %v", s.Status().Code)
	}
}

// TestTracer_SpanAttributesMinimal verifies optional attributes are omitted.
func TestTracer_SpanAttributesMinimal(t *testing.T) {
	tr, recorder := newRecordingTracer()

	_, span := tr.StartSpan(context.Background(), ComputationMeta{Kind: "circular"})
	tr.EndSpan(span, nil)

	attrs := attrMap(recorder.Ended()[0])
	for _, k := range []string{"stress.op", "cache.key", "stress.points"} {
		if _, ok := attrs[k]; ok {
			t.Errorf("expected no %s attribute", k)
		}
	}
}

// TestTracer_ContextPropagation verifies parent span is propagated.
func TestTracer_ContextPropagation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")
	tr := NewTracer(tracer)

	parentCtx, parentSpan := tracer.Start(context.Background(), "parent")
	_, childSpan := tr.StartSpan(parentCtx, ComputationMeta{Kind: "circular"})
	tr.EndSpan(childSpan, nil)
	parentSpan.End()

	var child sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.Name() == "stress.compute.circular" {
			child = s
		}
	}
	if child == nil {
		t.Fatal("child span not found")
	}
	if child.Parent().TraceID() != parentSpan.SpanContext().TraceID() {
		t.Error("child span should have same trace ID as parent")
	}
	if child.Parent().SpanID() != parentSpan.SpanContext().SpanID() {
		t.Error("child span should reference the parent span")
	}
}

// TestTracer_ErrorRecording verifies error sets span status and attribute.
func TestTracer_ErrorRecording(t *testing.T) {
	tr, recorder := newRecordingTracer()

	_, span := tr.StartSpan(context.Background(), ComputationMeta{Kind: "circular"})
	tr.EndSpan(span, errors.New("stress: invalid radius=0: must be > 0"))

	s := recorder.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status().Code)
	}
	if v := attrMap(s)["stress.error"]; !v.AsBool() {
		t.Error("expected stress.error=true")
	}
	if len(s.Events()) == 0 {
		t.Error("expected the error to be recorded as a span event")
	}
}

func TestNoopTracer_NoPanic(t *testing.T) {
	tr := newNoopTracer()
	_, span := tr.StartSpan(context.Background(), ComputationMeta{Kind: "x"})
	tr.EndSpan(span, errors.New("ignored"))
}
