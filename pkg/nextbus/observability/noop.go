package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
// Use when metrics are disabled to avoid overhead.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordEmit does nothing.
func (NoopMetrics) RecordEmit(_ context.Context, _ string, _ int, _ bool) {}

// RecordInvocation does nothing.
func (NoopMetrics) RecordInvocation(_ context.Context, _, _ string, _ time.Duration, _ error) {}

// RecordOverride does nothing.
func (NoopMetrics) RecordOverride(_ context.Context, _ string, _ int) {}

// RecordFault does nothing.
func (NoopMetrics) RecordFault(_ context.Context, _ string) {}

// NoopSpanManager is a SpanManager that creates no-op spans.
// Use when tracing is disabled to avoid overhead.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

// noopTracer is a tracer that creates no-op spans.
var noopTracer = noop.NewTracerProvider().Tracer("noop")

// StartEmitSpan returns a no-op span.
func (NoopSpanManager) StartEmitSpan(ctx context.Context, _ string, _ bool) (context.Context, trace.Span) {
	return noopTracer.Start(ctx, "noop")
}

// StartInvokeSpan returns a no-op span.
func (NoopSpanManager) StartInvokeSpan(ctx context.Context, _, _ string, _ []string, _ string) (context.Context, trace.Span) {
	return noopTracer.Start(ctx, "noop")
}

// EndSpanWithError ends the span.
func (NoopSpanManager) EndSpanWithError(span trace.Span, _ error) {
	if span != nil {
		span.End()
	}
}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
