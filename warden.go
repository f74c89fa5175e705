package warden

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/loykin/warden/internal/config"
	"github.com/loykin/warden/internal/history"
	chsink "github.com/loykin/warden/internal/history/clickhouse"
	"github.com/loykin/warden/internal/metrics"
	iapi "github.com/loykin/warden/internal/server"
	"github.com/loykin/warden/internal/store"
	"github.com/loykin/warden/internal/store/factory"
	"github.com/loykin/warden/internal/supervisor"
	"github.com/loykin/warden/internal/worker"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Spec = worker.Spec

type Status = supervisor.Status

type State = supervisor.State

const (
	StateStarting   = supervisor.StateStarting
	StateMonitoring = supervisor.StateMonitoring
	StateRestarting = supervisor.StateRestarting
	StateStopping   = supervisor.StateStopping
)

type RestartPolicy = supervisor.RestartPolicy

type AlwaysRestart = supervisor.AlwaysRestart

type BoundedRestart = supervisor.BoundedRestart

type HistorySink = history.Sink

type EventStore = store.Store

// Supervisor is a thin facade over internal/supervisor.Supervisor.
// It provides a stable public API for embedding.

type Config = supervisor.Config

type Supervisor struct{ inner *supervisor.Supervisor }

func New(c Config) (*Supervisor, error) {
	s, err := supervisor.New(c)
	if err != nil {
		return nil, err
	}
	return &Supervisor{inner: s}, nil
}

func (s *Supervisor) Run(ctx context.Context) error { return s.inner.Run(ctx) }
func (s *Supervisor) Shutdown()                     { s.inner.Shutdown() }
func (s *Supervisor) Restart() error                { return s.inner.Restart() }
func (s *Supervisor) Status() Status                { return s.inner.Status() }
func (s *Supervisor) Done() <-chan struct{}         { return s.inner.Done() }

func LoadConfig(path string) (*cfg.FileConfig, error) { return cfg.Load(path) }

// NewEventStore opens an event store by DSN (sqlite path, sqlite://, postgres://).
func NewEventStore(dsn string) (EventStore, error) { return factory.NewFromDSN(dsn) }

// NewClickHouseSink builds a history sink writing to ClickHouse at addr.
func NewClickHouseSink(addr, table string) (HistorySink, error) { return chsink.New(addr, table) }

// NewHTTPServer starts an HTTP server exposing the control API for s.
func NewHTTPServer(addr, basePath string, s *Supervisor, events EventStore) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, s.inner, events)
}

// NewHTTPHandler returns the control API as a mountable http.Handler.
func NewHTTPHandler(basePath string, s *Supervisor, events EventStore) http.Handler {
	return iapi.NewRouter(s.inner, events, basePath).Handler()
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
