package event

import (
	"log/slog"
	"sync/atomic"
)

// Statistics is a point-in-time copy of the directory counters.
type Statistics struct {
	Submitted  uint64 // Triggers produced by emissions
	Triggered  uint64 // Invocations that ran to completion, failed or not
	Failed     uint64 // Invocations that returned an error or panicked
	Overridden uint64 // Pending slot values replaced before their match completed
	DeadEvents uint64 // Lenient emissions no descriptor accepted
}

// LogValue implements slog.LogValuer.
func (s Statistics) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("submitted", s.Submitted),
		slog.Uint64("triggered", s.Triggered),
		slog.Uint64("failed", s.Failed),
		slog.Uint64("overridden", s.Overridden),
		slog.Uint64("dead_events", s.DeadEvents),
	)
}

// Counters holds the live counters shared by a Reactor and the Router
// that runs its triggers.
type Counters struct {
	submitted  atomic.Uint64
	triggered  atomic.Uint64
	failed     atomic.Uint64
	overridden atomic.Uint64
	deadEvents atomic.Uint64
}

// RecordInvocation counts a completed invocation.
func (c *Counters) RecordInvocation(err error) {
	c.triggered.Add(1)
	if err != nil {
		c.failed.Add(1)
	}
}

// Snapshot copies the counters.
func (c *Counters) Snapshot() Statistics {
	return Statistics{
		Submitted:  c.submitted.Load(),
		Triggered:  c.triggered.Load(),
		Failed:     c.failed.Load(),
		Overridden: c.overridden.Load(),
		DeadEvents: c.deadEvents.Load(),
	}
}
