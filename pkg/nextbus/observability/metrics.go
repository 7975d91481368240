package observability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records bus metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEmit records an emission and how many triggers it produced.
	RecordEmit(ctx context.Context, event string, triggers int, dead bool)

	// RecordInvocation records a handler invocation with its duration and error status.
	RecordInvocation(ctx context.Context, handler, kind string, duration time.Duration, err error)

	// RecordOverride records pending values replaced by an emission.
	RecordOverride(ctx context.Context, event string, n int)

	// RecordFault records a task failure no listener consumed.
	RecordFault(ctx context.Context, kind string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	emits       metric.Int64Counter
	deadEvents  metric.Int64Counter
	triggers    metric.Int64Counter
	invocations metric.Int64Counter
	latency     metric.Float64Histogram
	failures    metric.Int64Counter
	overrides   metric.Int64Counter
	faults      metric.Int64Counter
}

// newOtelMetrics creates instruments on the global meter provider.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("nextbus")

	emits, err := meter.Int64Counter("nextbus.emit.count",
		metric.WithDescription("Number of emissions"),
	)
	if err != nil {
		return nil, err
	}

	deadEvents, err := meter.Int64Counter("nextbus.emit.dead",
		metric.WithDescription("Number of emissions no handler accepted"),
	)
	if err != nil {
		return nil, err
	}

	triggers, err := meter.Int64Counter("nextbus.emit.triggers",
		metric.WithDescription("Number of triggers produced by emissions"),
	)
	if err != nil {
		return nil, err
	}

	invocations, err := meter.Int64Counter("nextbus.handler.invocations",
		metric.WithDescription("Number of handler invocations"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram("nextbus.handler.latency_ms",
		metric.WithDescription("Handler invocation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter("nextbus.handler.errors",
		metric.WithDescription("Number of failed handler invocations"),
	)
	if err != nil {
		return nil, err
	}

	overrides, err := meter.Int64Counter("nextbus.pending.overrides",
		metric.WithDescription("Number of pending slot values replaced before completion"),
	)
	if err != nil {
		return nil, err
	}

	faults, err := meter.Int64Counter("nextbus.task.faults",
		metric.WithDescription("Number of task failures reported to the fault handler"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		emits:       emits,
		deadEvents:  deadEvents,
		triggers:    triggers,
		invocations: invocations,
		latency:     latency,
		failures:    failures,
		overrides:   overrides,
		faults:      faults,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := newOtelMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordEmit records an emission.
func (m *otelMetrics) RecordEmit(ctx context.Context, event string, triggers int, dead bool) {
	attrs := metric.WithAttributes(attribute.String("event", event))
	m.emits.Add(ctx, 1, attrs)
	if triggers > 0 {
		m.triggers.Add(ctx, int64(triggers), attrs)
	}
	if dead {
		m.deadEvents.Add(ctx, 1, attrs)
	}
}

// RecordInvocation records a handler invocation.
func (m *otelMetrics) RecordInvocation(ctx context.Context, handler, kind string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("handler", handler),
		attribute.String("context", kind),
	)

	m.invocations.Add(ctx, 1, attrs)
	m.latency.Record(ctx, Milliseconds(duration), attrs)

	if err != nil {
		m.failures.Add(ctx, 1, attrs)
	}
}

// RecordOverride records replaced pending values.
func (m *otelMetrics) RecordOverride(ctx context.Context, event string, n int) {
	if n <= 0 {
		return
	}
	m.overrides.Add(ctx, int64(n), metric.WithAttributes(attribute.String("event", event)))
}

// RecordFault records an unhandled task failure.
func (m *otelMetrics) RecordFault(ctx context.Context, kind string) {
	m.faults.Add(ctx, 1, metric.WithAttributes(attribute.String("context", kind)))
}
