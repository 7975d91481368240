package exec

import (
	"errors"
	"fmt"
)

// Sentinel errors for the exec package.
var (
	// ErrShutdown is returned by Submit once Shutdown has been called.
	ErrShutdown = errors.New("executor is shut down")

	// ErrQueueFull is returned when the pool queue cannot take more tasks.
	ErrQueueFull = errors.New("task queue is full")

	// ErrUnknownKind indicates a string that names no execution context.
	ErrUnknownKind = errors.New("unknown execution context")

	// ErrNoExecutor indicates a Provider has no executor for a kind.
	ErrNoExecutor = errors.New("no executor for kind")
)

// PanicError captures a panic raised by a task.
type PanicError struct {
	// Kind is the context the task ran on.
	Kind Kind
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("%s task panicked: %v", e.Kind, e.Value)
}
