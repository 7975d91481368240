package faultlog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteJournal persists records to SQLite.
type SQLiteJournal struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteJournal opens or creates a journal database.
// The path should be a file path (e.g., "./faults.db") or ":memory:" for testing.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS faults (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			category TEXT NOT NULL,
			descriptor_id TEXT NOT NULL,
			handler TEXT NOT NULL,
			events TEXT NOT NULL,
			context TEXT NOT NULL,
			message TEXT NOT NULL,
			panicked INTEGER NOT NULL,
			occurred_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_faults_handler
		ON faults(handler)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

// Record implements Journal.
func (s *SQLiteJournal) Record(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrJournalClosed
	}

	fill(&r)
	events, err := json.Marshal(r.Events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO faults (id, category, descriptor_id, handler, events, context, message, panicked, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, string(r.Category), r.DescriptorID, r.Handler, string(events), r.Context, r.Message,
		r.Panicked, r.OccurredAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record fault: %w", err)
	}
	return nil
}

// List implements Journal.
func (s *SQLiteJournal) List(limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrJournalClosed
	}

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.Query(`
		SELECT id, category, descriptor_id, handler, events, context, message, panicked, occurred_at
		FROM faults
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list faults: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var category, events, occurred string
		if err := rows.Scan(&r.ID, &category, &r.DescriptorID, &r.Handler, &events,
			&r.Context, &r.Message, &r.Panicked, &occurred); err != nil {
			return nil, fmt.Errorf("scan fault: %w", err)
		}
		r.Category = Category(category)
		if err := json.Unmarshal([]byte(events), &r.Events); err != nil {
			return nil, fmt.Errorf("decode events: %w", err)
		}
		r.OccurredAt, _ = time.Parse(time.RFC3339Nano, occurred)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faults: %w", err)
	}
	return records, nil
}

// Count implements Journal.
func (s *SQLiteJournal) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrJournalClosed
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM faults`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count faults: %w", err)
	}
	return n, nil
}

// Clear implements Journal.
func (s *SQLiteJournal) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrJournalClosed
	}

	if _, err := s.db.Exec(`DELETE FROM faults`); err != nil {
		return fmt.Errorf("clear faults: %w", err)
	}
	return nil
}

// Close implements Journal.
func (s *SQLiteJournal) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
