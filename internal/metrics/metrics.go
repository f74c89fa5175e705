package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	workerLaunches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "warden",
			Subsystem: "worker",
			Name:      "launches_total",
			Help:      "Number of successful worker launches (initial and restarts).",
		}, []string{"name"},
	)
	workerRestarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "warden",
			Subsystem: "worker",
			Name:      "restarts_total",
			Help:      "Number of restarts performed after a detected crash.",
		}, []string{"name"},
	)
	crashesDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "warden",
			Subsystem: "worker",
			Name:      "crashes_detected_total",
			Help:      "Number of monitor cycles that found the worker not alive.",
		}, []string{"name"},
	)
	livenessChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "warden",
			Subsystem: "monitor",
			Name:      "liveness_checks_total",
			Help:      "Number of liveness checks performed.",
		}, []string{"name"},
	)
	launchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "warden",
			Subsystem: "worker",
			Name:      "launch_failures_total",
			Help:      "Number of failed launch attempts.",
		}, []string{"name"},
	)
	shutdowns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "warden",
			Subsystem: "supervisor",
			Name:      "shutdowns_total",
			Help:      "Number of orderly supervisor shutdowns.",
		}, []string{"name"},
	)
	workerUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "warden",
			Subsystem: "worker",
			Name:      "up",
			Help:      "1 when the last liveness check found the worker alive.",
		}, []string{"name"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	cs := []prometheus.Collector{workerLaunches, workerRestarts, crashesDetected, livenessChecks, launchFailures, shutdowns, workerUp}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// RegisterDefault registers with the default Prometheus registry.
func RegisterDefault() error { return Register(prometheus.DefaultRegisterer) }

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncLaunch(name string) {
	if regOK.Load() {
		workerLaunches.WithLabelValues(name).Inc()
	}
}

func IncRestart(name string) {
	if regOK.Load() {
		workerRestarts.WithLabelValues(name).Inc()
	}
}

func IncCrashDetected(name string) {
	if regOK.Load() {
		crashesDetected.WithLabelValues(name).Inc()
	}
}

func IncLivenessCheck(name string) {
	if regOK.Load() {
		livenessChecks.WithLabelValues(name).Inc()
	}
}

func IncLaunchFailure(name string) {
	if regOK.Load() {
		launchFailures.WithLabelValues(name).Inc()
	}
}

func IncShutdown(name string) {
	if regOK.Load() {
		shutdowns.WithLabelValues(name).Inc()
	}
}

func SetWorkerUp(name string, up bool) {
	if regOK.Load() {
		v := 0.0
		if up {
			v = 1.0
		}
		workerUp.WithLabelValues(name).Set(v)
	}
}
