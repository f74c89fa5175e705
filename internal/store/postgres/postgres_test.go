package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/loykin/warden/internal/store"
)

// startPostgresContainer starts a PostgreSQL container for tests
// and returns a DSN suitable for pgx stdlib. It skips the test if Docker is unavailable.
func startPostgresContainer(t *testing.T) (dsn string, terminate func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
	)
	if err != nil {
		cancel()
		t.Skipf("Failed to start PostgreSQL container: %v", err)
		return "", nil
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		cancel()
		t.Skipf("Failed to get host info: %v", err)
		return "", nil
	}

	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		cancel()
		t.Skipf("Failed to get mapped port: %v", err)
		return "", nil
	}

	dsn = fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	terminate = func() {
		_ = container.Terminate(ctx)
		cancel()
	}

	return dsn, terminate
}

func waitForPostgres(t *testing.T, dsn string) {
	// Ping until timeout; the container can report ready before accepting connections.
	deadline := time.Now().Add(45 * time.Second)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		db, err := sql.Open("pgx", dsn)
		if err == nil {
			if err = db.PingContext(ctx); err == nil {
				_ = db.Close()
				cancel()
				return
			}
			_ = db.Close()
		}
		cancel()
		if time.Now().After(deadline) {
			t.Fatalf("postgres not ready in time: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func TestPostgresRecordAndRecent(t *testing.T) {
	dsn, terminate := startPostgresContainer(t)
	waitForPostgres(t, dsn)
	defer func() {
		if terminate != nil {
			terminate()
		}
	}()

	db, err := New(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	// EnsureSchema must be idempotent
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("second schema: %v", err)
	}

	crash := store.Record{Event: store.EventCrash, Name: "w", PID: 321, OccurredAt: time.Now().UTC()}
	crash.Detail.String = "signal: killed"
	crash.Detail.Valid = true
	for _, rec := range []store.Record{
		{Event: store.EventLaunch, Name: "w", PID: 321, OccurredAt: time.Now().UTC()},
		crash,
		{Event: store.EventRestart, Name: "w", PID: 322, OccurredAt: time.Now().UTC()},
	} {
		if err := db.RecordEvent(ctx, rec); err != nil {
			t.Fatalf("record %s: %v", rec.Event, err)
		}
	}

	recs, err := db.Recent(ctx, "w", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].Event != store.EventRestart || recs[0].PID != 322 {
		t.Fatalf("unexpected newest record: %+v", recs[0])
	}
	if !recs[1].Detail.Valid || recs[1].Detail.String != "signal: killed" {
		t.Fatalf("detail not persisted: %+v", recs[1])
	}
}
