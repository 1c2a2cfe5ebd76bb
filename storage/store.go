// Package storage persists simulation runs and developmental events to SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/instar-sim/instar/telemetry"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	ended_at   TEXT,
	seed       INTEGER NOT NULL,
	bodyplan   TEXT NOT NULL,
	ticks      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS events (
	run_id  TEXT NOT NULL REFERENCES runs(id),
	tick    INTEGER NOT NULL,
	age     REAL NOT NULL,
	type    TEXT NOT NULL,
	subject TEXT NOT NULL,
	detail  TEXT NOT NULL,
	amount  REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS events_run_tick ON events(run_id, tick);
`

// Store wraps a SQLite database holding run metadata and event history.
// A nil *Store is valid and all methods are no-ops, so callers can leave
// persistence disabled without branching.
type Store struct {
	db    *sql.DB
	runID string
}

// Open opens (or creates) the database at path and ensures the schema exists.
// Returns nil if path is empty (persistence disabled).
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, nil
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// BeginRun registers a new run and returns its id.
func (s *Store) BeginRun(ctx context.Context, seed int64, bodyplan string) (string, error) {
	if s == nil {
		return "", nil
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, seed, bodyplan) VALUES (?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), seed, bodyplan)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	s.runID = id
	return id, nil
}

// EndRun stamps the current run with its end time and final tick count.
func (s *Store) EndRun(ctx context.Context, ticks int32) error {
	if s == nil || s.runID == "" {
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET ended_at = ?, ticks = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), ticks, s.runID)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	return nil
}

// WriteEvent appends a developmental event to the current run.
func (s *Store) WriteEvent(ctx context.Context, ev telemetry.Event) error {
	if s == nil || s.runID == "" {
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (run_id, tick, age, type, subject, detail, amount) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.runID, ev.Tick, ev.Age, ev.Type.String(), ev.Subject, ev.Detail, ev.Amount)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// EventCount returns the number of events recorded for the current run.
func (s *Store) EventCount(ctx context.Context) (int, error) {
	if s == nil || s.runID == "" {
		return 0, nil
	}

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE run_id = ?`, s.runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}

// RunID returns the current run id, or empty when none is open.
func (s *Store) RunID() string {
	if s == nil {
		return ""
	}
	return s.runID
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}
