package exec

import (
	"fmt"
	"strings"
)

// Kind selects the execution context a task runs on.
type Kind int

const (
	// Inline runs on the dispatching goroutine.
	Inline Kind = iota
	// Serial runs on the single FIFO worker.
	Serial
	// Pooled runs on the worker pool.
	Pooled
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case Inline:
		return "inline"
	case Serial:
		return "serial"
	case Pooled:
		return "pooled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k >= Inline && k <= Pooled
}

// ParseKind converts a configuration string into a Kind.
// Matching is case-insensitive. "caller" and "main" are accepted as
// aliases for inline and serial.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inline", "caller":
		return Inline, nil
	case "serial", "main", "single":
		return Serial, nil
	case "pooled", "pool", "threads":
		return Pooled, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}
