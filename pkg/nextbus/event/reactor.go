package event

import (
	"fmt"
	"sync"
)

// entry is a registered descriptor and its pending match.
type entry struct {
	desc *Descriptor

	mu      sync.Mutex
	pending pendingMatch
	removed bool
}

// offer feeds an accepted value into the entry and returns a trigger
// once every slot is filled. live is false when the entry was removed
// concurrently.
func (e *entry) offer(name string, value any) (t Trigger, ready, overrode, live bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return Trigger{}, false, false, false
	}

	if len(e.desc.slots) == 1 {
		return Trigger{Descriptor: e.desc, Values: Values{name: value}}, true, false, true
	}

	overrode = e.pending.put(name, value)
	if !e.pending.complete(len(e.desc.slots)) {
		return Trigger{}, false, overrode, true
	}
	return Trigger{Descriptor: e.desc, Values: e.pending.take()}, true, overrode, true
}

func (e *entry) remove() {
	e.mu.Lock()
	e.removed = true
	e.pending.reset()
	e.mu.Unlock()
}

// Match is the outcome of one emission.
type Match struct {
	Triggers  []Trigger
	Accepted  int // Descriptors whose slot accepted the value
	Overrides int // Pending values replaced by this emission
}

// Reactor is the event directory. It indexes descriptors by slot name,
// accumulates values for multi-slot descriptors, and turns emissions
// into triggers. It never runs handlers itself.
//
// Reactor is safe for concurrent use. Emissions on unrelated
// descriptors proceed in parallel; each descriptor's pending match is
// guarded by its own lock.
type Reactor struct {
	mu      sync.RWMutex
	byID    map[string]*entry
	byOwner map[any][]*entry
	// byName slices are replaced on removal and only appended to on
	// registration, so a slice read under RLock stays valid after unlock.
	byName map[string][]*entry

	counters *Counters
}

// NewReactor creates an empty directory.
func NewReactor() *Reactor {
	return &Reactor{
		byID:     make(map[string]*entry),
		byOwner:  make(map[any][]*entry),
		byName:   make(map[string][]*entry),
		counters: &Counters{},
	}
}

// Register adds a descriptor under every slot name it declares.
func (r *Reactor) Register(d *Descriptor) error {
	if d == nil {
		return ErrNilDescriptor
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[d.id]; exists {
		return &DuplicateHandlerError{ID: d.id, Name: d.name}
	}

	e := &entry{desc: d}
	r.byID[d.id] = e
	r.byOwner[d.owner] = append(r.byOwner[d.owner], e)
	for _, s := range d.slots {
		r.byName[s.Name] = append(r.byName[s.Name], e)
	}
	return nil
}

// Unregister removes every descriptor registered under owner and
// discards their pending values. It returns the number removed.
// No emission that starts after Unregister returns will produce a
// trigger for those descriptors.
func (r *Reactor) Unregister(owner any) int {
	if owner == nil || !isComparable(owner) {
		return 0
	}

	r.mu.Lock()
	entries := r.byOwner[owner]
	delete(r.byOwner, owner)
	for _, e := range entries {
		r.detachLocked(e)
	}
	r.mu.Unlock()

	for _, e := range entries {
		e.remove()
	}
	return len(entries)
}

// Remove unregisters a single descriptor by ID.
func (r *Reactor) Remove(id string) bool {
	r.mu.Lock()
	e, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	owned := r.byOwner[e.desc.owner]
	r.byOwner[e.desc.owner] = without(owned, e)
	if len(r.byOwner[e.desc.owner]) == 0 {
		delete(r.byOwner, e.desc.owner)
	}
	r.detachLocked(e)
	r.mu.Unlock()

	e.remove()
	return true
}

// detachLocked drops e from the ID and name indexes.
func (r *Reactor) detachLocked(e *entry) {
	delete(r.byID, e.desc.id)
	for _, s := range e.desc.slots {
		rest := without(r.byName[s.Name], e)
		if len(rest) == 0 {
			delete(r.byName, s.Name)
			continue
		}
		r.byName[s.Name] = rest
	}
}

func without(entries []*entry, drop *entry) []*entry {
	out := make([]*entry, 0, len(entries))
	for _, e := range entries {
		if e != drop {
			out = append(out, e)
		}
	}
	return out
}

// Emit offers value under name to every descriptor declaring a matching
// slot and returns the triggers that became ready. A strict emission
// nothing accepts returns a *NoSubscriberError; a lenient one returns
// no triggers and no error and counts as a dead event.
func (r *Reactor) Emit(name string, value any, lenient bool) ([]Trigger, error) {
	m, err := r.Match(name, value, lenient)
	return m.Triggers, err
}

// Match is Emit with per-emission detail.
func (r *Reactor) Match(name string, value any, lenient bool) (Match, error) {
	if name == "" {
		return Match{}, ErrEmptyName
	}
	if value == nil {
		return Match{}, ErrNilValue
	}

	r.mu.RLock()
	candidates := r.byName[name]
	r.mu.RUnlock()

	var m Match
	for _, e := range candidates {
		slot, _ := e.desc.Slot(name)
		if !slot.Matches(value) {
			continue
		}
		t, ready, overrode, live := e.offer(name, value)
		if !live {
			continue
		}
		m.Accepted++
		if overrode {
			m.Overrides++
		}
		if ready {
			m.Triggers = append(m.Triggers, t)
		}
	}

	r.counters.overridden.Add(uint64(m.Overrides))
	r.counters.submitted.Add(uint64(len(m.Triggers)))

	if m.Accepted == 0 {
		if !lenient {
			return m, &NoSubscriberError{Event: name, ValueType: fmt.Sprintf("%T", value)}
		}
		r.counters.deadEvents.Add(1)
	}
	return m, nil
}

// Pending returns a copy of the values currently held for a descriptor.
func (r *Reactor) Pending(id string) (Values, bool) {
	r.mu.RLock()
	e, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending.snapshot(), true
}

// Len returns the number of registered descriptors.
func (r *Reactor) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Descriptors returns the descriptors registered under owner.
func (r *Reactor) Descriptors(owner any) []*Descriptor {
	if owner == nil || !isComparable(owner) {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.byOwner[owner]
	out := make([]*Descriptor, len(entries))
	for i, e := range entries {
		out[i] = e.desc
	}
	return out
}

// Counters returns the live counters. Routers record invocations here.
func (r *Reactor) Counters() *Counters {
	return r.counters
}

// Statistics returns a snapshot of the counters.
func (r *Reactor) Statistics() Statistics {
	return r.counters.Snapshot()
}
