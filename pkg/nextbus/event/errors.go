package event

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/nextbus/pkg/nextbus/exec"
)

// Descriptor validation errors.
var (
	ErrNoSlots            = errors.New("descriptor has no slots")
	ErrEmptySlotName      = errors.New("slot name is empty")
	ErrDuplicateSlot      = errors.New("slot name declared twice")
	ErrNilHandler         = errors.New("handler is nil")
	ErrNilOwner           = errors.New("owner is nil")
	ErrOwnerNotComparable = errors.New("owner is not comparable")
	ErrInvalidContext     = errors.New("invalid execution context")
)

// Directory errors.
var (
	ErrNilDescriptor    = errors.New("descriptor is nil")
	ErrDuplicateHandler = errors.New("handler already registered")
	ErrNoSubscriber     = errors.New("no subscriber for event")
	ErrEmptyName        = errors.New("event name is empty")
	ErrNilValue         = errors.New("event value is nil")
	ErrNotDescriber     = errors.New("host does not implement Describer")
)

// DescriptorError reports an invalid descriptor.
type DescriptorError struct {
	Name string // Descriptor name, if set
	Slot string // Offending slot, if any
	Err  error
}

func (e *DescriptorError) Error() string {
	switch {
	case e.Slot != "":
		return fmt.Sprintf("descriptor %q: slot %q: %v", e.Name, e.Slot, e.Err)
	case e.Name != "":
		return fmt.Sprintf("descriptor %q: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("descriptor: %v", e.Err)
}

func (e *DescriptorError) Unwrap() error {
	return e.Err
}

// DuplicateHandlerError is returned when a descriptor ID is already registered.
type DuplicateHandlerError struct {
	ID   string
	Name string
}

func (e *DuplicateHandlerError) Error() string {
	return fmt.Sprintf("handler %q (%s) already registered", e.Name, e.ID)
}

// Is matches ErrDuplicateHandler.
func (e *DuplicateHandlerError) Is(target error) bool {
	return target == ErrDuplicateHandler
}

// NoSubscriberError is returned by a strict emission nothing accepted.
type NoSubscriberError struct {
	Event     string
	ValueType string
}

func (e *NoSubscriberError) Error() string {
	return fmt.Sprintf("no subscriber for event %q (%s)", e.Event, e.ValueType)
}

// Is matches ErrNoSubscriber.
func (e *NoSubscriberError) Is(target error) bool {
	return target == ErrNoSubscriber
}

// InvocationError wraps an error returned, or a panic raised, by a handler body.
type InvocationError struct {
	DescriptorID string
	Handler      string
	Events       []string
	Context      exec.Kind
	Err          error
	Panicked     bool
	Stack        string
}

func (e *InvocationError) Error() string {
	verb := "failed"
	if e.Panicked {
		verb = "panicked"
	}
	return fmt.Sprintf("handler %q on [%s] %s: %v",
		e.Handler, strings.Join(e.Events, ","), verb, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// DispatchError is returned when a trigger could not be handed to its
// execution context, for example because the context is shut down or
// its queue is full.
type DispatchError struct {
	DescriptorID string
	Handler      string
	Events       []string
	Context      exec.Kind
	Err          error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %q on [%s] to %s context: %v",
		e.Handler, strings.Join(e.Events, ","), e.Context, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// EventNames extracts the event names carried by a bus error.
// It returns nil for errors that name no events.
func EventNames(err error) []string {
	var ie *InvocationError
	if errors.As(err, &ie) {
		return ie.Events
	}
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Events
	}
	var ne *NoSubscriberError
	if errors.As(err, &ne) {
		return []string{ne.Event}
	}
	return nil
}
