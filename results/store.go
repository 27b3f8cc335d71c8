// Package results keeps a SQLite ledger of oracle runs: one row per
// interpreted input with the verdict label it produced.
package results

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	_ "modernc.org/sqlite"
)

var log = commonlog.GetLogger("oracle.results")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id      TEXT PRIMARY KEY,
	session TEXT NOT NULL,
	method  TEXT NOT NULL,
	inputs  TEXT NOT NULL,
	label   TEXT NOT NULL,
	steps   INTEGER NOT NULL,
	at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_session ON runs(session);
CREATE INDEX IF NOT EXISTS runs_method ON runs(method);
`

// Run is one interpreted input.
type Run struct {
	ID      uuid.UUID
	Session uuid.UUID
	Method  string
	Inputs  string
	Label   string
	Steps   int64
	At      time.Time
}

// Store is an open ledger.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the ledger at path. ":memory:" gives a
// private in-memory ledger.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("results: create %s: %w", filepath.Dir(path), err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("results: open %s: %w", path, err)
	}
	// one connection keeps ":memory:" a single database
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("results: ping %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("results: migrate %s: %w", path, err)
	}
	log.Debugf("opened ledger %s", path)
	return &Store{db: db, path: path}, nil
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string { return s.path }

// Close releases the database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts r. A zero ID or time is filled in.
func (s *Store) Record(ctx context.Context, r Run) (uuid.UUID, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, session, method, inputs, label, steps, at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.Session.String(), r.Method, r.Inputs, r.Label, r.Steps, r.At.UnixNano())
	if err != nil {
		return uuid.Nil, fmt.Errorf("results: record %s: %w", r.Method, err)
	}
	return r.ID, nil
}

// Tally counts runs per label within a session.
func (s *Store) Tally(ctx context.Context, session uuid.UUID) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, COUNT(*) FROM runs WHERE session = ? GROUP BY label`, session.String())
	if err != nil {
		return nil, fmt.Errorf("results: tally: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("results: tally: %w", err)
		}
		out[label] = n
	}
	return out, rows.Err()
}

// Runs lists the runs recorded for method, oldest first.
func (s *Store) Runs(ctx context.Context, method string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session, method, inputs, label, steps, at FROM runs WHERE method = ? ORDER BY at, rowid`, method)
	if err != nil {
		return nil, fmt.Errorf("results: runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r           Run
			id, session string
			at          int64
		)
		if err := rows.Scan(&id, &session, &r.Method, &r.Inputs, &r.Label, &r.Steps, &at); err != nil {
			return nil, fmt.Errorf("results: runs: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("results: run id %q: %w", id, err)
		}
		if r.Session, err = uuid.Parse(session); err != nil {
			return nil, fmt.Errorf("results: session id %q: %w", session, err)
		}
		r.At = time.Unix(0, at)
		out = append(out, r)
	}
	return out, rows.Err()
}
