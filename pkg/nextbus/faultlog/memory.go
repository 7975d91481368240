package faultlog

import "sync"

// DefaultMemorySize bounds a MemoryJournal created with size <= 0.
const DefaultMemorySize = 1000

// MemoryJournal keeps the most recent records in a fixed-size ring.
// Data is lost when the process exits.
type MemoryJournal struct {
	mu     sync.RWMutex
	ring   []Record
	next   int
	count  int
	closed bool
}

// NewMemoryJournal creates a journal that holds at most size records.
func NewMemoryJournal(size int) *MemoryJournal {
	if size <= 0 {
		size = DefaultMemorySize
	}
	return &MemoryJournal{ring: make([]Record, size)}
}

// Record implements Journal. The oldest record is dropped when full.
func (m *MemoryJournal) Record(r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrJournalClosed
	}

	fill(&r)
	r.Events = append([]string(nil), r.Events...)
	m.ring[m.next] = r
	m.next = (m.next + 1) % len(m.ring)
	if m.count < len(m.ring) {
		m.count++
	}
	return nil
}

// List implements Journal.
func (m *MemoryJournal) List(limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrJournalClosed
	}

	n := m.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Record, 0, n)
	for i := 1; i <= n; i++ {
		idx := (m.next - i + len(m.ring)) % len(m.ring)
		out = append(out, m.ring[idx])
	}
	return out, nil
}

// Count implements Journal.
func (m *MemoryJournal) Count() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrJournalClosed
	}
	return m.count, nil
}

// Clear implements Journal.
func (m *MemoryJournal) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrJournalClosed
	}
	clear(m.ring)
	m.next, m.count = 0, 0
	return nil
}

// Close implements Journal.
func (m *MemoryJournal) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
