package store

import (
	"context"
	"database/sql"
	"time"
)

// EventType names a supervisor lifecycle event.
type EventType string

const (
	EventLaunch        EventType = "launch"
	EventLaunchFailure EventType = "launch_failure"
	EventCrash         EventType = "crash"
	EventRestart       EventType = "restart"
	EventShutdown      EventType = "shutdown"
)

// Record is one persisted lifecycle event of the supervised worker.
// OccurredAt is in UTC. Detail carries free-form context (exit error,
// launch error, stray-kill count).
type Record struct {
	ID         int64
	Event      EventType
	Name       string
	PID        int
	OccurredAt time.Time
	Detail     sql.NullString
}

// Store persists lifecycle events so the worker's history survives
// supervisor restarts. Implementations must be safe for concurrent use.
type Store interface {
	EnsureSchema(ctx context.Context) error
	RecordEvent(ctx context.Context, rec Record) error
	Recent(ctx context.Context, name string, limit int) ([]Record, error)
	Close() error
}
