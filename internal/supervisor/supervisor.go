package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/loykin/warden/internal/detector"
	"github.com/loykin/warden/internal/history"
	"github.com/loykin/warden/internal/metrics"
	"github.com/loykin/warden/internal/pidfile"
	"github.com/loykin/warden/internal/store"
	"github.com/loykin/warden/internal/worker"
)

// State is the supervisor lifecycle phase.
type State string

const (
	StateStarting   State = "starting"
	StateMonitoring State = "monitoring"
	StateRestarting State = "restarting"
	StateStopping   State = "stopping"
)

// DefaultInterval is the liveness polling period.
const DefaultInterval = 60 * time.Second

// Config configures a Supervisor. Zero values get sensible defaults in New.
type Config struct {
	Spec     worker.Spec
	PIDFile  string
	Interval time.Duration
	// VerifyStartTime enables the stricter liveness check that compares the
	// recorded process start time against the live one, catching PID reuse.
	VerifyStartTime bool
	Policy          RestartPolicy
	Store           store.Store
	Sinks           []history.Sink
	Logger          *slog.Logger
}

// Status is a point-in-time snapshot of the supervisor.
type Status struct {
	Name      string    `json:"name"`
	State     State     `json:"state"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	Restarts  int       `json:"restarts"`
	Failures  int       `json:"failures"`
	LastExit  string    `json:"last_exit,omitempty"`
	Command   string    `json:"command"`
}

// Supervisor keeps a single worker process alive. One goroutine (Run) owns
// the polling loop; the mutex serializes every read-record/act/write-record
// sequence so the HTTP control surface and the signal handler never race it.
type Supervisor struct {
	cfg    Config
	log    *slog.Logger
	pids   pidfile.Store
	det    detector.PIDFileDetector
	policy RestartPolicy

	mu             sync.Mutex
	state          State
	proc           *worker.Process
	restarts       int
	failures       int
	firstFailureAt time.Time
	lastExit       error

	stopOnce sync.Once
	done     chan struct{}
}

// New builds a Supervisor from cfg, filling in defaults: 60s poll interval,
// AlwaysRestart with a 2s delay, slog.Default for logging.
func New(cfg Config) (*Supervisor, error) {
	if cfg.Spec.Command == "" {
		return nil, errors.New("worker command is required")
	}
	if cfg.Spec.Name == "" {
		cfg.Spec.Name = "worker"
	}
	if cfg.PIDFile == "" {
		return nil, errors.New("pidfile path is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Policy == nil {
		cfg.Policy = AlwaysRestart{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	pids := pidfile.Store{Path: cfg.PIDFile}
	return &Supervisor{
		cfg:    cfg,
		log:    cfg.Logger.With("worker", cfg.Spec.Name),
		pids:   pids,
		det:    detector.PIDFileDetector{Store: pids, VerifyStartTime: cfg.VerifyStartTime},
		policy: cfg.Policy,
		state:  StateStarting,
		done:   make(chan struct{}),
	}, nil
}

// Run launches the worker and blocks, polling liveness until ctx is
// cancelled, SIGINT/SIGTERM arrives, or Shutdown is called. A failure to
// persist the PID record is fatal and returned; a failed worker launch is
// not (the next poll retries).
func (s *Supervisor) Run(ctx context.Context) error {
	sig := make(chan os.Signal, 2)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	s.mu.Lock()
	if err := s.launchLocked(store.EventLaunch); err != nil {
		if isFatal(err) {
			s.mu.Unlock()
			s.Shutdown()
			return err
		}
		s.log.Error("initial launch failed, will retry on next poll", "error", err)
	}
	s.mu.Unlock()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("context cancelled, shutting down")
			s.Shutdown()
			return nil
		case sg := <-sig:
			s.log.Info("signal received, shutting down", "signal", sg.String())
			s.Shutdown()
			return nil
		case <-s.done:
			return nil
		case <-ticker.C:
			if err := s.checkOnce(); err != nil {
				s.Shutdown()
				return err
			}
		}
	}
}

// checkOnce performs one liveness poll. It returns an error only for fatal
// conditions (PID record unwritable).
func (s *Supervisor) checkOnce() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopping {
		return nil
	}
	metrics.IncLivenessCheck(s.cfg.Spec.Name)

	pid, alive, err := s.det.AlivePID()
	if err != nil {
		s.log.Warn("pid record unreadable, treating as no known worker", "error", err)
	}
	if alive {
		s.state = StateMonitoring
		s.failures = 0
		s.firstFailureAt = time.Time{}
		metrics.SetWorkerUp(s.cfg.Spec.Name, true)
		s.log.Debug("worker alive", "pid", pid)
		return nil
	}
	return s.handleCrashLocked(pid)
}

// handleCrashLocked runs the crash-to-relaunch sequence. The restart delay
// is served while holding the mutex: a shutdown requested meanwhile blocks
// until the in-flight restart completes, then wins.
func (s *Supervisor) handleCrashLocked(deadPID int) error {
	name := s.cfg.Spec.Name
	metrics.SetWorkerUp(name, false)
	metrics.IncCrashDetected(name)
	s.state = StateRestarting

	s.failures++
	now := time.Now()
	if s.failures == 1 {
		s.firstFailureAt = now
	}
	detail := ""
	if s.lastExit != nil {
		detail = s.lastExit.Error()
	}
	s.log.Warn("worker not alive", "pid", deadPID, "failures", s.failures, "exit", detail)
	s.recordEvent(store.EventCrash, deadPID, detail)

	if !s.policy.ShouldRestart(s.failures, now.Sub(s.firstFailureAt)) {
		s.log.Error("restart suppressed by policy", "failures", s.failures)
		s.state = StateMonitoring
		return nil
	}

	// Stray instances the PID check cannot see (reused PID, partial launch)
	// must not survive into the next run. No-op when nothing matches.
	if n := worker.KillMatching(s.cfg.Spec.MatchLine(), deadPID); n > 0 {
		s.log.Warn("killed stray worker processes", "count", n)
	}

	delay := s.policy.DelayBeforeRestart()
	s.log.Info("restarting worker", "delay", delay)
	time.Sleep(delay)

	if err := s.launchLocked(store.EventRestart); err != nil {
		if isFatal(err) {
			return err
		}
		s.log.Error("relaunch failed, will retry on next poll", "error", err)
		s.state = StateMonitoring
		return nil
	}
	s.restarts++
	metrics.IncRestart(name)
	return nil
}

type fatalError struct{ err error }

func (f fatalError) Error() string { return f.err.Error() }
func (f fatalError) Unwrap() error { return f.err }

func isFatal(err error) bool {
	var fe fatalError
	return errors.As(err, &fe)
}

// launchLocked starts a new worker process and persists its PID record.
// Launch failure is retryable; a PID record write failure is fatal because
// a worker the supervisor cannot find again must not be left running.
func (s *Supervisor) launchLocked(event store.EventType) error {
	name := s.cfg.Spec.Name
	proc, err := worker.Launch(s.cfg.Spec, s.onWorkerExit)
	if err != nil {
		metrics.IncLaunchFailure(name)
		s.recordEvent(store.EventLaunchFailure, 0, err.Error())
		return err
	}
	if werr := s.pids.Write(proc.PID, proc.StartUnix); werr != nil {
		_ = worker.Kill(proc.PID)
		return fatalError{fmt.Errorf("persist pid record: %w", werr)}
	}
	s.proc = proc
	s.lastExit = nil
	s.state = StateMonitoring
	metrics.IncLaunch(name)
	metrics.SetWorkerUp(name, true)
	s.log.Info("worker launched", "pid", proc.PID, "command", s.cfg.Spec.Command)
	s.recordEvent(event, proc.PID, "")
	return nil
}

// onWorkerExit runs on the reaper goroutine; it only captures the exit error
// for the next poll to report. Restart decisions stay in the polling loop.
func (s *Supervisor) onWorkerExit(pid int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc != nil && s.proc.PID == pid {
		s.lastExit = err
	}
}

// Shutdown stops the supervisor: terminate the worker (fire-and-forget, a
// worker that already exited is fine), clear the PID record, unblock Run.
// Safe to call from any goroutine and any number of times.
func (s *Supervisor) Shutdown() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.state = StateStopping
		var pid int
		if s.proc != nil {
			pid = s.proc.PID
		}
		if pid > 0 {
			if err := worker.Terminate(pid); err != nil {
				s.log.Warn("terminate worker", "pid", pid, "error", err)
			}
		}
		if err := s.pids.Clear(); err != nil {
			s.log.Warn("clear pid record", "error", err)
		}
		s.recordEvent(store.EventShutdown, pid, "")
		metrics.IncShutdown(s.cfg.Spec.Name)
		metrics.SetWorkerUp(s.cfg.Spec.Name, false)
		s.log.Info("supervisor stopped", "pid", pid, "restarts", s.restarts)
		close(s.done)
	})
}

// Restart terminates the current worker and launches a fresh one. It is the
// manual counterpart of crash recovery, driven from the control API.
func (s *Supervisor) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopping {
		return errors.New("supervisor is stopping")
	}
	s.state = StateRestarting
	oldPID := 0
	if s.proc != nil {
		oldPID = s.proc.PID
	}
	if alive, _ := (detector.PIDDetector{PID: oldPID}).Alive(); alive {
		if err := worker.Terminate(oldPID); err != nil {
			s.log.Warn("terminate worker for restart", "pid", oldPID, "error", err)
		}
	}
	worker.KillMatching(s.cfg.Spec.MatchLine(), oldPID)
	time.Sleep(s.policy.DelayBeforeRestart())
	if err := s.launchLocked(store.EventRestart); err != nil {
		s.state = StateMonitoring
		return err
	}
	s.restarts++
	s.failures = 0
	s.firstFailureAt = time.Time{}
	metrics.IncRestart(s.cfg.Spec.Name)
	return nil
}

// Status returns a snapshot for the control API.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Name:     s.cfg.Spec.Name,
		State:    s.state,
		Restarts: s.restarts,
		Failures: s.failures,
		Command:  s.cfg.Spec.Command,
	}
	if s.proc != nil {
		st.PID = s.proc.PID
		st.StartedAt = s.proc.StartedAt
	}
	if s.lastExit != nil {
		st.LastExit = s.lastExit.Error()
	}
	return st
}

// Done is closed once the supervisor has fully stopped.
func (s *Supervisor) Done() <-chan struct{} { return s.done }

// recordEvent persists to the store and ships to sinks, best effort.
func (s *Supervisor) recordEvent(ev store.EventType, pid int, detail string) {
	now := time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if s.cfg.Store != nil {
		rec := store.Record{Event: ev, Name: s.cfg.Spec.Name, PID: pid, OccurredAt: now}
		if detail != "" {
			rec.Detail.String = detail
			rec.Detail.Valid = true
		}
		if err := s.cfg.Store.RecordEvent(ctx, rec); err != nil {
			s.log.Warn("record event", "event", string(ev), "error", err)
		}
	}
	for _, sink := range s.cfg.Sinks {
		hev := history.Event{Event: string(ev), Name: s.cfg.Spec.Name, PID: pid, OccurredAt: now, Detail: detail}
		if err := sink.Send(ctx, hev); err != nil {
			s.log.Warn("history sink send", "event", string(ev), "error", err)
		}
	}
}
