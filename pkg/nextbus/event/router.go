package event

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/randalmurphal/nextbus/pkg/nextbus/exec"
)

// Invoker runs a trigger.
type Invoker func(ctx context.Context, t Trigger) error

// Middleware wraps invokers to add cross-cutting concerns.
type Middleware func(next Invoker) Invoker

// ChainMiddleware applies middleware in order, with first middleware outermost.
func ChainMiddleware(inv Invoker, middleware ...Middleware) Invoker {
	for i := len(middleware) - 1; i >= 0; i-- {
		inv = middleware[i](inv)
	}
	return inv
}

// Submitter hands tasks to the execution context of a given kind.
// *exec.Provider implements it.
type Submitter interface {
	Submit(kind exec.Kind, task exec.Task) error
}

// Reporter receives invocation and dispatch errors. Report returns true
// when it consumed the error; otherwise the error propagates to the
// emitting caller (Inline) or the context's fault handler (Serial, Pooled).
type Reporter interface {
	Report(err error) bool
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(err error) bool

// Report calls f(err).
func (f ReporterFunc) Report(err error) bool { return f(err) }

// RouterConfig configures a Router.
type RouterConfig struct {
	// Executors runs tasks by context kind. Required.
	Executors Submitter

	// Reporter receives handler and dispatch errors (optional).
	Reporter Reporter

	// Counters records completed invocations (optional).
	Counters *Counters
}

// Router submits triggers to their descriptors' execution contexts and
// captures handler errors.
type Router struct {
	executors Submitter
	reporter  Reporter
	counters  *Counters

	mu         sync.RWMutex
	middleware []Middleware
	invoke     Invoker
}

// NewRouter creates a router.
func NewRouter(config RouterConfig) *Router {
	if config.Counters == nil {
		config.Counters = &Counters{}
	}
	return &Router{
		executors: config.Executors,
		reporter:  config.Reporter,
		counters:  config.Counters,
		invoke:    invokeRecovered,
	}
}

// Use appends middleware. It applies to triggers dispatched afterwards.
func (r *Router) Use(middleware ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, middleware...)
	r.invoke = ChainMiddleware(invokeRecovered, r.middleware...)
}

func (r *Router) invoker() Invoker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.invoke
}

// Dispatch submits each trigger, in order, to its descriptor's context.
//
// Inline triggers run before Dispatch returns; their unreported errors
// are joined into the result. Serial and Pooled triggers run later; an
// unreported error becomes a fault of that context. A trigger that
// cannot be submitted yields a *DispatchError, reported or returned.
//
// Handlers receive a context detached from ctx's cancellation so that
// queued work is not abandoned when the emitter's context ends.
func (r *Router) Dispatch(ctx context.Context, triggers []Trigger) error {
	if len(triggers) == 0 {
		return nil
	}
	invoke := r.invoker()
	hctx := context.WithoutCancel(ctx)

	var errs []error
	for _, t := range triggers {
		ran := false
		task := func() error {
			ran = true
			return r.run(hctx, invoke, t)
		}

		err := r.executors.Submit(t.Descriptor.kind, task)
		if err == nil {
			continue
		}
		if ran {
			// Inline: the task's own unreported error.
			errs = append(errs, err)
			continue
		}

		derr := &DispatchError{
			DescriptorID: t.Descriptor.id,
			Handler:      t.Descriptor.name,
			Events:       t.Descriptor.Events(),
			Context:      t.Descriptor.kind,
			Err:          err,
		}
		if !r.report(derr) {
			errs = append(errs, derr)
		}
	}
	return errors.Join(errs...)
}

// run invokes t and routes a failure to the reporter.
func (r *Router) run(ctx context.Context, invoke Invoker, t Trigger) error {
	err := invoke(ctx, t)
	r.counters.RecordInvocation(err)
	if err == nil {
		return nil
	}

	var ierr *InvocationError
	if !errors.As(err, &ierr) {
		ierr = newInvocationError(t, err)
	}
	if r.report(ierr) {
		return nil
	}
	return ierr
}

func (r *Router) report(err error) bool {
	if r.reporter == nil {
		return false
	}
	return r.reporter.Report(err)
}

// invokeRecovered runs the handler body and converts a panic into an
// *InvocationError.
func invokeRecovered(ctx context.Context, t Trigger) (err error) {
	defer func() {
		if p := recover(); p != nil {
			ierr := newInvocationError(t, fmt.Errorf("panic: %v", p))
			ierr.Panicked = true
			ierr.Stack = string(debug.Stack())
			err = ierr
		}
	}()

	if err := t.Invoke(ctx); err != nil {
		return newInvocationError(t, err)
	}
	return nil
}

func newInvocationError(t Trigger, err error) *InvocationError {
	return &InvocationError{
		DescriptorID: t.Descriptor.id,
		Handler:      t.Descriptor.name,
		Events:       t.Descriptor.Events(),
		Context:      t.Descriptor.kind,
		Err:          err,
	}
}
