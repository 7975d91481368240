package event

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/nextbus/pkg/nextbus/observability"
)

// LoggingMiddleware logs each invocation at debug level and failures at error level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next Invoker) Invoker {
		if logger == nil {
			return next
		}
		return func(ctx context.Context, t Trigger) error {
			d := t.Descriptor
			log := observability.EnrichLogger(logger, d.name, d.id, d.kind.String())
			observability.LogInvokeStart(log, d.Events())
			elapsed := observability.TimedOperation()
			err := next(ctx, t)
			ms := observability.Milliseconds(elapsed())
			if err != nil {
				observability.LogInvokeError(log, err, ms)
			} else {
				observability.LogInvokeComplete(log, ms)
			}
			return err
		}
	}
}

// MetricsMiddleware records invocation count, latency, and failures.
func MetricsMiddleware(metrics observability.MetricsRecorder) Middleware {
	return func(next Invoker) Invoker {
		if metrics == nil {
			return next
		}
		return func(ctx context.Context, t Trigger) error {
			elapsed := observability.TimedOperation()
			err := next(ctx, t)
			metrics.RecordInvocation(ctx, t.Descriptor.name, t.Descriptor.kind.String(), elapsed(), err)
			return err
		}
	}
}

// TracingMiddleware wraps each invocation in a span.
func TracingMiddleware(spans observability.SpanManager) Middleware {
	return func(next Invoker) Invoker {
		if spans == nil {
			return next
		}
		return func(ctx context.Context, t Trigger) error {
			d := t.Descriptor
			ctx, span := spans.StartInvokeSpan(ctx, d.name, d.id, d.Events(), d.kind.String())
			err := next(ctx, t)
			spans.EndSpanWithError(span, err)
			return err
		}
	}
}
