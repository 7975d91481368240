package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/randalmurphal/nextbus/pkg/nextbus/exec"
)

// ErrInvalidSetting is wrapped by every settings validation error.
var ErrInvalidSetting = errors.New("invalid setting")

// Root is the optional top-level key settings may be nested under.
const Root = "nextbus"

// Settings are the tunables of a bus.
type Settings struct {
	// EmitContext runs asynchronous emissions. Default: pooled.
	EmitContext exec.Kind

	// Workers is the handler pool size. Zero means GOMAXPROCS.
	Workers int

	// QueueSize bounds the handler pool queue. Zero means the pool default.
	QueueSize int

	// EmitWorkers is the emit pool size when EmitContext is pooled.
	EmitWorkers int

	// EmitQueueSize bounds the emit pool queue.
	EmitQueueSize int

	// SlowThreshold is the phase duration above which a debug line is logged.
	// Default: 5ms. Zero disables slow-phase logging.
	SlowThreshold time.Duration

	// Metrics enables the OpenTelemetry metrics recorder.
	Metrics bool

	// Tracing enables the OpenTelemetry span manager.
	Tracing bool

	// FaultJournal selects where unhandled errors are journaled:
	// "" disables the journal, "memory" keeps a bounded in-memory ring,
	// anything else is a SQLite database path.
	FaultJournal string

	// FaultJournalSize bounds the in-memory journal.
	FaultJournalSize int
}

// Default returns the default settings.
func Default() Settings {
	return Settings{
		EmitContext:      exec.Pooled,
		SlowThreshold:    5 * time.Millisecond,
		FaultJournalSize: 1000,
	}
}

// Validate reports the first out-of-range value.
func (s Settings) Validate() error {
	switch {
	case !s.EmitContext.Valid():
		return invalid("emit_context", s.EmitContext)
	case s.Workers < 0:
		return invalid("workers", s.Workers)
	case s.QueueSize < 0:
		return invalid("queue_size", s.QueueSize)
	case s.EmitWorkers < 0:
		return invalid("emit_workers", s.EmitWorkers)
	case s.EmitQueueSize < 0:
		return invalid("emit_queue_size", s.EmitQueueSize)
	case s.SlowThreshold < 0:
		return invalid("slow_threshold", s.SlowThreshold)
	case s.FaultJournalSize < 0:
		return invalid("fault_journal_size", s.FaultJournalSize)
	}
	return nil
}

func invalid(key string, v any) error {
	return fmt.Errorf("%w: %s = %v", ErrInvalidSetting, key, v)
}

// Decode builds Settings from cfg, starting from Default. Settings may
// sit at the top level or under the Root key. Unlike the lenient
// accessors, a present value of the wrong type is an error.
func Decode(cfg Config) (Settings, error) {
	if cfg.Has(Root) {
		cfg = cfg.Section(Root)
	}

	s := Default()
	var err error

	if v, ok := cfg.Raw()["emit_context"]; ok {
		str, isStr := v.(string)
		if !isStr {
			return s, invalid("emit_context", v)
		}
		if s.EmitContext, err = exec.ParseKind(str); err != nil {
			return s, fmt.Errorf("%w: emit_context: %w", ErrInvalidSetting, err)
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"workers", &s.Workers},
		{"queue_size", &s.QueueSize},
		{"emit_workers", &s.EmitWorkers},
		{"emit_queue_size", &s.EmitQueueSize},
		{"fault_journal_size", &s.FaultJournalSize},
	}
	for _, f := range ints {
		if v, ok := cfg.Raw()[f.key]; ok {
			i, ok := toInt(v)
			if !ok {
				return s, invalid(f.key, v)
			}
			*f.dst = i
		}
	}

	if v, ok := cfg.Raw()["slow_threshold"]; ok {
		d, ok := toDuration(v)
		if !ok {
			return s, invalid("slow_threshold", v)
		}
		s.SlowThreshold = d
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"metrics", &s.Metrics},
		{"tracing", &s.Tracing},
	}
	for _, f := range bools {
		if v, ok := cfg.Raw()[f.key]; ok {
			b, ok := v.(bool)
			if !ok {
				return s, invalid(f.key, v)
			}
			*f.dst = b
		}
	}

	if v, ok := cfg.Raw()["fault_journal"]; ok {
		str, ok := v.(string)
		if !ok {
			return s, invalid("fault_journal", v)
		}
		s.FaultJournal = str
	}

	return s, s.Validate()
}
