// Package observability provides logging, metrics, and tracing hooks
// for the bus.
//
// Features:
//   - Structured logging via slog
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
// Every Log helper accepts a nil logger and does nothing with it.
package observability

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// EnrichLogger adds handler context to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, "orders", "4f1c...", "pooled")
//	enriched.Info("handling") // includes handler, descriptor_id, context
func EnrichLogger(logger *slog.Logger, handler, descriptorID, kind string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("handler", handler),
		slog.String("descriptor_id", descriptorID),
		slog.String("context", kind),
	)
}

// LogEmit logs an emission and the number of triggers it produced.
func LogEmit(logger *slog.Logger, event string, triggers int) {
	if logger == nil {
		return
	}
	logger.Debug("event emitted",
		slog.String("event", event),
		slog.Int("triggers", triggers),
	)
}

// LogDeadEvent logs an emission no handler accepted.
func LogDeadEvent(logger *slog.Logger, event, valueType string, lenient bool) {
	if logger == nil {
		return
	}
	level := slog.LevelWarn
	if lenient {
		level = slog.LevelDebug
	}
	logger.Log(context.Background(), level, "dead event",
		slog.String("event", event),
		slog.String("value_type", valueType),
		slog.Bool("lenient", lenient),
	)
}

// The LogInvoke helpers expect a logger from EnrichLogger, which
// carries the handler fields.

// LogInvokeStart logs the start of a handler invocation.
func LogInvokeStart(logger *slog.Logger, events []string) {
	if logger == nil {
		return
	}
	logger.Debug("handler starting",
		slog.String("events", strings.Join(events, ",")),
	)
}

// LogInvokeComplete logs successful handler completion.
func LogInvokeComplete(logger *slog.Logger, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("handler completed",
		slog.Float64("duration_ms", durationMs),
	)
}

// LogInvokeError logs a failed handler invocation.
func LogInvokeError(logger *slog.Logger, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("handler failed",
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogSlowPhase logs a bus phase that took longer than threshold.
// A zero or negative threshold disables the check.
func LogSlowPhase(logger *slog.Logger, phase, event string, elapsed, threshold time.Duration) {
	if logger == nil || threshold <= 0 || elapsed <= threshold {
		return
	}
	logger.Debug("slow phase",
		slog.String("phase", phase),
		slog.String("event", event),
		slog.Float64("duration_ms", float64(elapsed.Microseconds())/1000),
		slog.Float64("threshold_ms", float64(threshold.Microseconds())/1000),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	elapsed := done()
func TimedOperation() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

// Milliseconds converts d to fractional milliseconds.
func Milliseconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
