package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/loykin/warden/internal/store"
)

type DB struct {
	db *sql.DB
}

func New(dsn string) (*DB, error) {
	d, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{db: d}, nil
}

func (p *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS worker_events(
			id BIGSERIAL PRIMARY KEY,
			event TEXT NOT NULL,
			name TEXT NOT NULL,
			pid INTEGER NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL,
			detail TEXT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_worker_events_name ON worker_events(name);`,
		`CREATE INDEX IF NOT EXISTS idx_worker_events_occurred ON worker_events(occurred_at);`,
	}
	for _, q := range stmts {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (p *DB) Close() error { return p.db.Close() }

func (p *DB) RecordEvent(ctx context.Context, rec store.Record) error {
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO worker_events(event, name, pid, occurred_at, detail)
		VALUES($1,$2,$3,$4,$5);`,
		string(rec.Event), rec.Name, rec.PID, rec.OccurredAt.UTC(), rec.Detail)
	return err
}

func (p *DB) Recent(ctx context.Context, name string, limit int) ([]store.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, event, name, pid, occurred_at, detail
		FROM worker_events
		WHERE name=$1
		ORDER BY id DESC
		LIMIT $2;`, name, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
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
