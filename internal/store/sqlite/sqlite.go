package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/loykin/warden/internal/store"
)

// DB implements store.Store for SQLite (modernc.org/sqlite driver, CGO-free).
// DSN is a filesystem path to the SQLite database file. Use ":memory:" for in-memory.

type DB struct {
	db *sql.DB
}

// New opens a SQLite database at path.
func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	return &DB{db: d}, nil
}

func (s *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS worker_events(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event TEXT NOT NULL,
			name TEXT NOT NULL,
			pid INTEGER NOT NULL,
			occurred_at TIMESTAMP NOT NULL,
			detail TEXT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_worker_events_name ON worker_events(name);`,
		`CREATE INDEX IF NOT EXISTS idx_worker_events_occurred ON worker_events(occurred_at);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *DB) Close() error { return s.db.Close() }

func (s *DB) RecordEvent(ctx context.Context, rec store.Record) error {
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO worker_events(event, name, pid, occurred_at, detail)
		VALUES(?, ?, ?, ?, ?);`,
		string(rec.Event), rec.Name, rec.PID, rec.OccurredAt.UTC(), rec.Detail)
	return err
}

func (s *DB) Recent(ctx context.Context, name string, limit int) ([]store.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event, name, pid, occurred_at, detail
		FROM worker_events
		WHERE name=?
		ORDER BY id DESC
		LIMIT ?;`, name, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]store.Record, error) {
	out := make([]store.Record, 0)
	for rows.Next() {
		var r store.Record
		var ev string
		if err := rows.Scan(&r.ID, &ev, &r.Name, &r.PID, &r.OccurredAt, &r.Detail); err != nil {
			return nil, err
		}
		r.Event = store.EventType(ev)
		out = append(out, r)
	}
	return out, rows.Err()
}
