package nextbus

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/nextbus/pkg/nextbus/config"
	"github.com/randalmurphal/nextbus/pkg/nextbus/event"
	"github.com/randalmurphal/nextbus/pkg/nextbus/exec"
	"github.com/randalmurphal/nextbus/pkg/nextbus/faultlog"
	"github.com/randalmurphal/nextbus/pkg/nextbus/observability"
)

// DefaultSlowThreshold is the phase duration above which a debug line is logged.
const DefaultSlowThreshold = 5 * time.Millisecond

// Option configures a Bus.
type Option func(*busConfig)

type busConfig struct {
	logger        *slog.Logger
	metrics       observability.MetricsRecorder
	spans         observability.SpanManager
	emitKind      exec.Kind
	workers       int
	queueSize     int
	emitWorkers   int
	emitQueueSize int
	serial        exec.Executor
	pooled        exec.Executor
	onFault       exec.FaultHandler
	slow          time.Duration
	middleware    []event.Middleware
	listener      ErrorListener
	journal       faultlog.Journal
	journalAt     string
	journalSize   int
}

func defaultConfig() busConfig {
	return busConfig{
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
		emitKind: exec.Pooled,
		slow:     DefaultSlowThreshold,
	}
}

// WithLogger sets the logger. Without one the bus logs nothing except
// unhandled task faults, which go to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *busConfig) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *busConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSpans sets the span manager.
func WithSpans(sm observability.SpanManager) Option {
	return func(c *busConfig) {
		if sm != nil {
			c.spans = sm
		}
	}
}

// WithEmitContext selects where asynchronous emissions run.
// Default: exec.Pooled, on a pool separate from the handler pool.
func WithEmitContext(kind exec.Kind) Option {
	return func(c *busConfig) {
		if kind.Valid() {
			c.emitKind = kind
		}
	}
}

// WithWorkers sets the handler pool size.
func WithWorkers(n int) Option {
	return func(c *busConfig) {
		c.workers = n
	}
}

// WithQueueSize bounds the handler pool queue.
func WithQueueSize(n int) Option {
	return func(c *busConfig) {
		c.queueSize = n
	}
}

// WithEmitWorkers sets the emit pool size.
func WithEmitWorkers(n int) Option {
	return func(c *busConfig) {
		c.emitWorkers = n
	}
}

// WithEmitQueueSize bounds the emit pool queue.
func WithEmitQueueSize(n int) Option {
	return func(c *busConfig) {
		c.emitQueueSize = n
	}
}

// WithSerial replaces the Serial context. The bus shuts it down.
func WithSerial(e exec.Executor) Option {
	return func(c *busConfig) {
		c.serial = e
	}
}

// WithPooled replaces the Pooled context. The bus shuts it down, and
// WithWorkers and WithQueueSize no longer apply.
func WithPooled(e exec.Executor) Option {
	return func(c *busConfig) {
		c.pooled = e
	}
}

// WithFaultHandler receives errors no listener consumed from Serial,
// Pooled, and emit contexts. Default: log at error level.
func WithFaultHandler(h exec.FaultHandler) Option {
	return func(c *busConfig) {
		c.onFault = h
	}
}

// WithSlowThreshold sets the slow-phase log threshold. Zero disables it.
func WithSlowThreshold(d time.Duration) Option {
	return func(c *busConfig) {
		c.slow = d
	}
}

// WithMiddleware wraps every handler invocation. The first middleware is outermost.
func WithMiddleware(mw ...event.Middleware) Option {
	return func(c *busConfig) {
		c.middleware = append(c.middleware, mw...)
	}
}

// WithErrorListener installs the initial error listener.
func WithErrorListener(fn ErrorListener) Option {
	return func(c *busConfig) {
		c.listener = fn
	}
}

// WithFaultJournal records every reported error in j, alongside any
// error listener. The caller owns j and closes it after Shutdown.
func WithFaultJournal(j faultlog.Journal) Option {
	return func(c *busConfig) {
		c.journal = j
		c.journalAt = ""
	}
}

// WithSettings applies loaded settings. Metrics and Tracing install the
// OpenTelemetry recorder and span manager on the global providers.
// A non-empty FaultJournal is opened by New with faultlog.Open; the bus
// owns that journal and closes it at the end of Shutdown.
func WithSettings(s config.Settings) Option {
	return func(c *busConfig) {
		if s.EmitContext.Valid() {
			c.emitKind = s.EmitContext
		}
		c.workers = s.Workers
		c.queueSize = s.QueueSize
		c.emitWorkers = s.EmitWorkers
		c.emitQueueSize = s.EmitQueueSize
		c.slow = s.SlowThreshold
		if s.Metrics {
			c.metrics = observability.NewMetricsRecorder()
		}
		if s.Tracing {
			c.spans = observability.NewSpanManager()
		}
		if s.FaultJournal != "" {
			c.journal = nil
			c.journalAt = s.FaultJournal
			c.journalSize = s.FaultJournalSize
		}
	}
}
