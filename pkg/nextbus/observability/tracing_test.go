package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest installs an in-memory span exporter for the test.
func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("nextbus")

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		tracer = otel.Tracer("nextbus")
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	})
	return exporter
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestStartEmitSpan(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	_, span := sm.StartEmitSpan(context.Background(), "price", true)
	sm.EndSpanWithError(span, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "nextbus.emit", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	v, ok := attrValue(spans[0].Attributes, "event.name")
	require.True(t, ok)
	assert.Equal(t, "price", v.AsString())
	v, ok = attrValue(spans[0].Attributes, "emit.immediate")
	require.True(t, ok)
	assert.True(t, v.AsBool())
}

func TestStartInvokeSpan(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	ctx, emit := sm.StartEmitSpan(context.Background(), "a", false)
	_, invoke := sm.StartInvokeSpan(ctx, "pair", "id-1", []string{"a", "b"}, "pooled")
	sm.EndSpanWithError(invoke, errors.New("boom"))
	sm.EndSpanWithError(emit, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	child := spans[0]
	assert.Equal(t, "nextbus.handle.pair", child.Name)
	assert.Equal(t, codes.Error, child.Status.Code)
	assert.Equal(t, "boom", child.Status.Description)
	assert.Equal(t, spans[1].SpanContext.SpanID(), child.Parent.SpanID())

	v, ok := attrValue(child.Attributes, "handler.events")
	require.True(t, ok)
	assert.Equal(t, "a,b", v.AsString())
}

func TestAddSpanEvent(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	ctx, span := sm.StartEmitSpan(context.Background(), "x", false)
	sm.AddSpanEvent(ctx, "dead_event", attribute.String("event", "x"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "dead_event", spans[0].Events[0].Name)
}

func TestEndSpanWithErrorNil(t *testing.T) {
	assert.NotPanics(t, func() {
		NewSpanManager().EndSpanWithError(nil, errors.New("x"))
	})
}
