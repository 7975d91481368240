// Package faultlog journals handler and dispatch errors so they can be
// inspected after the fact. Event values are never stored; a record
// carries the handler identity, the event names, and the error text.
package faultlog

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/nextbus/pkg/nextbus/event"
)

// Journal persists fault records.
// Implementations must be safe for concurrent use.
type Journal interface {
	// Record appends a record. A zero ID or OccurredAt is filled in.
	Record(r Record) error

	// List returns up to limit records, newest first. A limit of zero or
	// less returns every record.
	List(limit int) ([]Record, error)

	// Count returns the number of stored records.
	Count() (int, error)

	// Clear removes every record.
	Clear() error

	// Close releases any resources.
	Close() error
}

// Category classifies a record.
type Category string

const (
	CategoryInvocation   Category = "invocation"
	CategoryDispatch     Category = "dispatch"
	CategoryNoSubscriber Category = "no_subscriber"
	CategoryOther        Category = "other"
)

// Record is one journaled fault.
type Record struct {
	ID           string
	Category     Category
	DescriptorID string
	Handler      string
	Events       []string
	Context      string
	Message      string
	Panicked     bool
	OccurredAt   time.Time
}

// Sentinel errors for journal operations.
var (
	// ErrJournalClosed indicates the journal has been closed.
	ErrJournalClosed = errors.New("fault journal closed")

	// ErrNoJournal indicates an empty journal location.
	ErrNoJournal = errors.New("fault journal location is empty")
)

// FromError builds a record from a bus error.
func FromError(err error) Record {
	r := Record{
		ID:         uuid.NewString(),
		Category:   CategoryOther,
		Message:    err.Error(),
		OccurredAt: time.Now().UTC(),
	}

	var ierr *event.InvocationError
	var derr *event.DispatchError
	var nerr *event.NoSubscriberError
	switch {
	case errors.As(err, &ierr):
		r.Category = CategoryInvocation
		r.DescriptorID = ierr.DescriptorID
		r.Handler = ierr.Handler
		r.Events = ierr.Events
		r.Context = ierr.Context.String()
		r.Panicked = ierr.Panicked
	case errors.As(err, &derr):
		r.Category = CategoryDispatch
		r.DescriptorID = derr.DescriptorID
		r.Handler = derr.Handler
		r.Events = derr.Events
		r.Context = derr.Context.String()
	case errors.As(err, &nerr):
		r.Category = CategoryNoSubscriber
		r.Events = []string{nerr.Event}
	}
	return r
}

// Listener returns an error listener that logs each error and journals
// it. A failing journal write is logged and otherwise ignored.
// A nil logger uses slog.Default().
func Listener(j Journal, logger *slog.Logger) func(error) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(err error) {
		r := FromError(err)
		logger.Error("bus error",
			slog.String("category", string(r.Category)),
			slog.String("handler", r.Handler),
			slog.Any("events", r.Events),
			slog.String("error", r.Message),
		)
		if jerr := j.Record(r); jerr != nil {
			logger.Warn("fault journal write failed",
				slog.String("fault_id", r.ID),
				slog.String("error", jerr.Error()),
			)
		}
	}
}

// Open returns a journal for location: "memory" keeps up to size
// records in memory, anything else is a SQLite database path.
func Open(location string, size int) (Journal, error) {
	switch location {
	case "":
		return nil, ErrNoJournal
	case "memory":
		return NewMemoryJournal(size), nil
	}
	return NewSQLiteJournal(location)
}

func fill(r *Record) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.OccurredAt.IsZero() {
		r.OccurredAt = time.Now().UTC()
	}
	if r.Category == "" {
		r.Category = CategoryOther
	}
}
