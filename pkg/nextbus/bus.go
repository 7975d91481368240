package nextbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/nextbus/pkg/nextbus/event"
	"github.com/randalmurphal/nextbus/pkg/nextbus/exec"
	"github.com/randalmurphal/nextbus/pkg/nextbus/faultlog"
	"github.com/randalmurphal/nextbus/pkg/nextbus/observability"
)

// ErrorListener receives handler, dispatch, and asynchronous emit errors.
// It may be called concurrently from any execution context.
type ErrorListener func(err error)

// Bus is an in-process publish/subscribe event bus.
type Bus struct {
	reactor  *event.Reactor
	router   *event.Router
	handlers *exec.Provider
	emitter  exec.Executor
	emitKind exec.Kind

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	slow    time.Duration

	listener atomic.Pointer[ErrorListener]
	closed   atomic.Bool

	journal     faultlog.Journal
	journalFn   func(error)
	ownsJournal bool

	shutdownOnce sync.Once
	shutdownDone chan struct{}
	shutdownErr  error
}

// New creates a bus and starts its execution contexts.
func New(opts ...Option) *Bus {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &Bus{
		reactor:      event.NewReactor(),
		emitKind:     cfg.emitKind,
		logger:       cfg.logger,
		metrics:      cfg.metrics,
		spans:        cfg.spans,
		slow:         cfg.slow,
		shutdownDone: make(chan struct{}),
	}
	if cfg.listener != nil {
		b.SetErrorListener(cfg.listener)
	}
	b.openJournal(cfg)

	faults := b.faultHandler(cfg.onFault)

	serial := cfg.serial
	if serial == nil {
		serial = exec.NewSerialQueue(exec.WithSerialFaultHandler(faults))
	}
	pooled := cfg.pooled
	if pooled == nil {
		pooled = exec.NewPool(
			exec.WithWorkers(cfg.workers),
			exec.WithQueueSize(cfg.queueSize),
			exec.WithPoolFaultHandler(faults),
		)
	}
	b.handlers = exec.NewProvider(serial, pooled)

	switch cfg.emitKind {
	case exec.Inline:
		b.emitter = exec.NewInline()
	case exec.Serial:
		b.emitter = exec.NewSerialQueue(exec.WithSerialFaultHandler(faults))
	default:
		b.emitter = exec.NewPool(
			exec.WithWorkers(cfg.emitWorkers),
			exec.WithQueueSize(cfg.emitQueueSize),
			exec.WithPoolFaultHandler(faults),
		)
	}

	b.router = event.NewRouter(event.RouterConfig{
		Executors: b.handlers,
		Reporter:  event.ReporterFunc(b.report),
		Counters:  b.reactor.Counters(),
	})
	b.router.Use(
		event.TracingMiddleware(b.spans),
		event.MetricsMiddleware(b.metrics),
		event.LoggingMiddleware(b.logger),
	)
	b.router.Use(cfg.middleware...)

	return b
}

// openJournal installs the configured fault journal. A journal that
// fails to open is logged and the bus runs without one.
func (b *Bus) openJournal(cfg busConfig) {
	j := cfg.journal
	if j == nil && cfg.journalAt != "" {
		var err error
		if j, err = faultlog.Open(cfg.journalAt, cfg.journalSize); err != nil {
			logger := b.logger
			if logger == nil {
				logger = slog.Default()
			}
			logger.Error("fault journal unavailable",
				slog.String("location", cfg.journalAt),
				slog.String("error", err.Error()),
			)
			return
		}
		b.ownsJournal = true
	}
	if j != nil {
		b.journal = j
		b.journalFn = faultlog.Listener(j, b.logger)
	}
}

// FaultJournal returns the journal reported errors are recorded in, or
// nil when none is configured.
func (b *Bus) FaultJournal() faultlog.Journal {
	return b.journal
}

// faultHandler records a metric for every fault before handing it on.
func (b *Bus) faultHandler(next exec.FaultHandler) exec.FaultHandler {
	if next == nil {
		next = exec.LogFaults(b.logger)
	}
	return func(kind exec.Kind, err error) {
		b.metrics.RecordFault(context.Background(), kind.String())
		next(kind, err)
	}
}

// Register adds descriptors to the directory. It stops at the first
// error; descriptors before it stay registered.
func (b *Bus) Register(ds ...*event.Descriptor) error {
	for _, d := range ds {
		if err := b.reactor.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// RegisterHost compiles host and registers every resulting descriptor.
// Registration is all or nothing.
func (b *Bus) RegisterHost(host any, compiler event.Compiler) error {
	if compiler == nil {
		compiler = event.DescribeCompiler
	}
	ds, err := compiler.Compile(host)
	if err != nil {
		return fmt.Errorf("compile %T: %w", host, err)
	}

	for i, d := range ds {
		if err := b.reactor.Register(d); err != nil {
			for _, done := range ds[:i] {
				b.reactor.Remove(done.ID())
			}
			return err
		}
	}
	return nil
}

// RegisterAsync runs RegisterHost on the emit context. Its error goes
// to the error listener, or to the fault handler without one.
func (b *Bus) RegisterAsync(host any, compiler event.Compiler) error {
	if b.closed.Load() {
		return exec.ErrShutdown
	}
	return b.emitter.Submit(func() error {
		err := b.RegisterHost(host, compiler)
		if err == nil || b.report(err) {
			return nil
		}
		return err
	})
}

// Unregister removes every descriptor registered under owner, along
// with their pending values, and returns how many were removed.
// Triggers already produced still run.
func (b *Bus) Unregister(owner any) int {
	return b.reactor.Unregister(owner)
}

// Remove unregisters one descriptor by ID.
func (b *Bus) Remove(id string) bool {
	return b.reactor.Remove(id)
}

// Emit posts value under name to the emit context and returns once it
// is queued. An emission nothing accepts is reported as a
// *event.NoSubscriberError to the error listener.
func (b *Bus) Emit(ctx context.Context, name string, value any) error {
	return b.post(ctx, name, value, false)
}

// EmitLeniently is Emit without the NoSubscriber report.
func (b *Bus) EmitLeniently(ctx context.Context, name string, value any) error {
	return b.post(ctx, name, value, true)
}

func (b *Bus) post(ctx context.Context, name string, value any, lenient bool) error {
	if err := validate(name, value); err != nil {
		return err
	}
	if b.closed.Load() {
		return exec.ErrShutdown
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx = context.WithoutCancel(ctx)
	ran := false
	err := b.emitter.Submit(func() error {
		ran = true
		err := b.emit(ctx, name, value, lenient, false)
		if err == nil || b.report(err) {
			return nil
		}
		return err
	})
	if err == nil || ran {
		// Inline emit context: err is the emission's own unreported error.
		return err
	}
	return fmt.Errorf("emit %q: %w", name, err)
}

// EmitImmediately matches and dispatches on the calling goroutine.
// Triggers for Inline handlers run before it returns. A strict emission
// nothing accepts returns *event.NoSubscriberError; handler and dispatch
// errors the listener does not consume are joined into the result.
func (b *Bus) EmitImmediately(ctx context.Context, name string, value any, lenient bool) error {
	if err := validate(name, value); err != nil {
		return err
	}
	if b.closed.Load() {
		return exec.ErrShutdown
	}
	return b.emit(ctx, name, value, lenient, true)
}

func validate(name string, value any) error {
	if name == "" {
		return event.ErrEmptyName
	}
	if value == nil {
		return event.ErrNilValue
	}
	return nil
}

// dispatchKey marks contexts handed to handlers of a bus.
type dispatchKey struct{}

func (b *Bus) emit(ctx context.Context, name string, value any, lenient, immediate bool) error {
	ctx, span := b.spans.StartEmitSpan(ctx, name, immediate)
	ctx = context.WithValue(ctx, dispatchKey{}, b)

	elapsed := observability.TimedOperation()
	m, err := b.reactor.Match(name, value, lenient)
	observability.LogSlowPhase(b.logger, "match", name, elapsed(), b.slow)

	unheard := m.Accepted == 0
	b.metrics.RecordEmit(ctx, name, len(m.Triggers), unheard && lenient)
	b.metrics.RecordOverride(ctx, name, m.Overrides)
	if unheard {
		observability.LogDeadEvent(b.logger, name, fmt.Sprintf("%T", value), lenient)
		b.spans.AddSpanEvent(ctx, "dead_event")
	}
	if err != nil {
		b.spans.EndSpanWithError(span, err)
		return err
	}
	observability.LogEmit(b.logger, name, len(m.Triggers))

	elapsed = observability.TimedOperation()
	err = b.router.Dispatch(ctx, m.Triggers)
	observability.LogSlowPhase(b.logger, "dispatch", name, elapsed(), b.slow)

	b.spans.EndSpanWithError(span, err)
	return err
}

// SetErrorListener replaces the error listener. Nil removes it, after
// which errors go to the fault journal if one is configured, else to the
// emitting caller or the fault handler.
func (b *Bus) SetErrorListener(fn ErrorListener) {
	if fn == nil {
		b.listener.Store(nil)
		return
	}
	b.listener.Store(&fn)
}

// report hands err to the journal and the listener. It reports whether
// either consumed it.
func (b *Bus) report(err error) bool {
	consumed := false
	if b.journalFn != nil {
		b.journalFn(err)
		consumed = true
	}
	if fn := b.listener.Load(); fn != nil {
		(*fn)(err)
		consumed = true
	}
	return consumed
}

// Shutdown stops accepting emissions, drains queued emissions, then
// drains queued handler work, then closes a journal opened from
// settings. It returns early with ctx's error if ctx ends first. Later
// calls wait for the first and return its result.
//
// Called from a handler with the context the handler received, Shutdown
// starts the drain and returns nil without waiting, since the drain
// waits for that handler. Called from a handler with any other context
// it blocks until that context ends.
func (b *Bus) Shutdown(ctx context.Context) error {
	b.shutdownOnce.Do(func() {
		b.closed.Store(true)
		go func() {
			defer close(b.shutdownDone)
			emitErr := b.emitter.Shutdown(context.WithoutCancel(ctx))
			handlerErr := b.handlers.Shutdown(context.WithoutCancel(ctx))
			var journalErr error
			if b.ownsJournal {
				journalErr = b.journal.Close()
			}
			b.shutdownErr = errors.Join(emitErr, handlerErr, journalErr)
			if b.logger != nil {
				b.logger.Info("bus stopped", slog.Any("stats", b.Statistics()))
			}
		}()
	})

	if ctx.Value(dispatchKey{}) == b {
		return nil
	}

	select {
	case <-b.shutdownDone:
		return b.shutdownErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Statistics returns a snapshot of the bus counters.
func (b *Bus) Statistics() event.Statistics {
	return b.reactor.Statistics()
}

// LogStatistics logs the counters at info level, or warn when emissions
// went unheard or handlers failed.
func (b *Bus) LogStatistics() {
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	st := b.Statistics()
	level := slog.LevelInfo
	if st.DeadEvents > 0 || st.Failed > 0 {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "bus statistics",
		slog.Any("stats", st),
		slog.Int("handlers", b.reactor.Len()),
	)
}

// Pending returns the values a multi-slot descriptor is holding.
func (b *Bus) Pending(id string) (event.Values, bool) {
	return b.reactor.Pending(id)
}

// Len returns the number of registered descriptors.
func (b *Bus) Len() int {
	return b.reactor.Len()
}
