package exec

import (
	"context"
	"sync/atomic"
)

// Task is a unit of work submitted to an execution context.
type Task func() error

// Executor runs tasks on one execution context.
type Executor interface {
	// Submit hands a task to the context. For Inline the task has already
	// run when Submit returns and its error is returned; other contexts
	// return only submission errors.
	Submit(task Task) error

	// Shutdown stops accepting tasks and waits for queued ones to finish
	// or for ctx to end. Calling it more than once is safe.
	Shutdown(ctx context.Context) error
}

// InlineExecutor runs each task synchronously on the caller.
type InlineExecutor struct {
	closed atomic.Bool
}

// NewInline creates an inline executor.
func NewInline() *InlineExecutor {
	return &InlineExecutor{}
}

// Submit runs the task and returns its error. A panic in the task
// propagates to the caller unchanged.
func (e *InlineExecutor) Submit(task Task) error {
	if e.closed.Load() {
		return ErrShutdown
	}
	return task()
}

// Shutdown rejects further tasks. There is never queued work to drain.
func (e *InlineExecutor) Shutdown(context.Context) error {
	e.closed.Store(true)
	return nil
}
