package exec

import (
	"errors"
	"log/slog"
	"runtime/debug"
)

// FaultHandler receives errors and panics from tasks that ran on a
// context with no caller to return them to.
type FaultHandler func(kind Kind, err error)

// LogFaults returns a FaultHandler that logs every fault at error level.
// A nil logger uses slog.Default().
func LogFaults(logger *slog.Logger) FaultHandler {
	return func(kind Kind, err error) {
		l := logger
		if l == nil {
			l = slog.Default()
		}
		attrs := []any{
			slog.String("context", kind.String()),
			slog.String("error", err.Error()),
		}
		var pe *PanicError
		if errors.As(err, &pe) {
			attrs = append(attrs, slog.String("stack", pe.Stack))
		}
		l.Error("unhandled task fault", attrs...)
	}
}

type outcome int

const (
	succeeded outcome = iota
	failed
	panicked
)

// run executes a task, converting a panic into a PanicError. Faults are
// handed to onFault; the outcome feeds executor statistics.
func run(kind Kind, task Task, onFault FaultHandler) (result outcome) {
	defer func() {
		if r := recover(); r != nil {
			result = panicked
			report(onFault, kind, &PanicError{
				Kind:  kind,
				Value: r,
				Stack: string(debug.Stack()),
			})
		}
	}()

	if err := task(); err != nil {
		report(onFault, kind, err)
		return failed
	}
	return succeeded
}

func report(onFault FaultHandler, kind Kind, err error) {
	if onFault == nil {
		onFault = LogFaults(nil)
	}
	// A panicking fault handler must not take the worker down with it.
	defer func() { _ = recover() }()
	onFault(kind, err)
}
