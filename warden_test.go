package warden

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func requireUnix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
}

func waitUntil(timeout, step time.Duration, fn func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return true
		}
		time.Sleep(step)
	}
	return false
}

func TestSupervisorFacadeRunStatusShutdown(t *testing.T) {
	requireUnix(t)
	s, err := New(Config{
		Spec:     Spec{Name: "pf1", Command: "sleep 60"},
		PIDFile:  filepath.Join(t.TempDir(), "pf1.pid"),
		Interval: 50 * time.Millisecond,
		Policy:   AlwaysRestart{Delay: 10 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	if !waitUntil(2*time.Second, 10*time.Millisecond, func() bool { return s.Status().PID > 0 }) {
		t.Fatalf("worker never launched: %+v", s.Status())
	}
	st := s.Status()
	if st.State != StateMonitoring {
		t.Fatalf("state = %s", st.State)
	}

	s.Shutdown()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("shutdown did not complete")
	}
}

func TestHTTPHandlerFacade(t *testing.T) {
	requireUnix(t)
	s, err := New(Config{
		Spec:     Spec{Name: "pf2", Command: "sleep 60"},
		PIDFile:  filepath.Join(t.TempDir(), "pf2.pid"),
		Interval: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()
	defer s.Shutdown()

	srv := httptest.NewServer(NewHTTPHandler("/api", s, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestEventStoreFacade(t *testing.T) {
	es, err := NewEventStore(filepath.Join(t.TempDir(), "e.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = es.Close() }()
	if err := es.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}
}

func TestRegisterMetricsFacade(t *testing.T) {
	if err := RegisterMetrics(prometheus.NewRegistry()); err != nil {
		t.Fatalf("register: %v", err)
	}
}
