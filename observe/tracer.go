package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ComputationMeta describes one stress computation for telemetry purposes.
type ComputationMeta struct {
	Kind      string // footprint kind: rectangular|circular (required)
	Operation string // grid|profile|points
	Key       string // cache key, when the computation is cached
	Points    int    // number of evaluation points
}

// SpanName returns the deterministic span name for this computation.
// Format: stress.compute.<kind>
func (m ComputationMeta) SpanName() string {
	return "stress.compute." + m.Kind
}

// Validate checks the metadata required for span and metric naming.
func (m ComputationMeta) Validate() error {
	if m.Kind == "" {
		return ErrMissingKind
	}
	return nil
}

func (m ComputationMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("stress.kind", m.Kind),
	}
	if m.Operation != "" {
		attrs = append(attrs, attribute.String("stress.op", m.Operation))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with computation span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a computation.
	StartSpan(ctx context.Context, meta ComputationMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta ComputationMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("stress.error", false))
	if meta.Key != "" {
		attrs = append(attrs, attribute.String("cache.key", meta.Key))
	}
	if meta.Points > 0 {
		attrs = append(attrs, attribute.Int("stress.points", meta.Points))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("stress.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta ComputationMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ error) {
	span.End()
}
