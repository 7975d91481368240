package observability

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("nextbus")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartEmitSpan starts a span covering one emission.
	StartEmitSpan(ctx context.Context, event string, immediate bool) (context.Context, trace.Span)

	// StartInvokeSpan starts a span for a handler invocation.
	// It is a child of the emit span when ctx carries one.
	StartInvokeSpan(ctx context.Context, handler, descriptorID string, events []string, kind string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartEmitSpan starts a span for an emission.
func (m *otelSpanManager) StartEmitSpan(ctx context.Context, event string, immediate bool) (context.Context, trace.Span) {
	return tracer.Start(ctx, "nextbus.emit",
		trace.WithAttributes(
			attribute.String("event.name", event),
			attribute.Bool("emit.immediate", immediate),
		),
		trace.WithSpanKind(trace.SpanKindProducer),
	)
}

// StartInvokeSpan starts a span for a handler invocation.
func (m *otelSpanManager) StartInvokeSpan(ctx context.Context, handler, descriptorID string, events []string, kind string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "nextbus.handle."+handler,
		trace.WithAttributes(
			attribute.String("handler.name", handler),
			attribute.String("handler.id", descriptorID),
			attribute.String("handler.events", strings.Join(events, ",")),
			attribute.String("handler.context", kind),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
