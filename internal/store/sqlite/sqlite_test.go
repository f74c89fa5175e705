package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/loykin/warden/internal/store"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return db
}

func TestRecordAndRecent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	events := []store.EventType{store.EventLaunch, store.EventCrash, store.EventRestart}
	for i, ev := range events {
		rec := store.Record{Event: ev, Name: "w", PID: 100 + i, OccurredAt: time.Now().UTC()}
		if ev == store.EventCrash {
			rec.Detail.String = "exit status 1"
			rec.Detail.Valid = true
		}
		if err := db.RecordEvent(ctx, rec); err != nil {
			t.Fatalf("record %s: %v", ev, err)
		}
	}

	recs, err := db.Recent(ctx, "w", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	// Most recent first
	if recs[0].Event != store.EventRestart || recs[2].Event != store.EventLaunch {
		t.Fatalf("unexpected order: %v %v %v", recs[0].Event, recs[1].Event, recs[2].Event)
	}
	if !recs[1].Detail.Valid || recs[1].Detail.String != "exit status 1" {
		t.Fatalf("detail not persisted: %+v", recs[1].Detail)
	}
}

func TestRecentLimit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := db.RecordEvent(ctx, store.Record{Event: store.EventLaunch, Name: "w", PID: i}); err != nil {
			t.Fatal(err)
		}
	}
	recs, err := db.Recent(ctx, "w", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("limit not applied, got %d", len(recs))
	}
}

func TestRecentFiltersByName(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_ = db.RecordEvent(ctx, store.Record{Event: store.EventLaunch, Name: "a", PID: 1})
	_ = db.RecordEvent(ctx, store.Record{Event: store.EventLaunch, Name: "b", PID: 2})
	recs, err := db.Recent(ctx, "a", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Name != "a" {
		t.Fatalf("name filter broken: %+v", recs)
	}
}

func TestEmptyPathRejected(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatalf("empty path must be rejected")
	}
}
