package worker

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/loykin/warden/internal/detector"
)

// Process is one launched worker run. It is owned exclusively by the
// supervisor; the PID is invalid the moment the process is observed dead.
type Process struct {
	PID       int
	StartedAt time.Time
	StartUnix int64 // OS start time token; 0 when unavailable
}

// Launch starts the worker as a detached child in its own session so that
// signals delivered to the supervisor do not propagate to it; the supervisor
// decides worker lifecycle explicitly. Worker stdout/stderr are appended to
// the configured log files (or /dev/null when no logging is configured).
//
// onExit, when non-nil, is invoked from the reaper goroutine once the child
// has been waited on. Launch does not retry; the caller decides.
func Launch(spec Spec, onExit func(pid int, err error)) (*Process, error) {
	cmd := spec.BuildCommand()
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.SysProcAttr = detachAttrs()
	cmd.Stdin = nil

	var outW, errW io.WriteCloser
	if spec.Log.Dir != "" || spec.Log.StdoutPath != "" || spec.Log.StderrPath != "" {
		if spec.Log.Dir != "" {
			_ = os.MkdirAll(spec.Log.Dir, 0o750)
		}
		outW, errW, _ = spec.Log.Writers(spec.Name)
	}
	// exec.Cmd does not close caller-supplied files. Route the devnull
	// fallbacks through outW/errW so the reaper closes them with the log
	// writers instead of leaking two descriptors per launch.
	if outW == nil {
		if f, err := os.OpenFile(os.DevNull, os.O_RDWR, 0); err == nil {
			outW = f
		}
	}
	if errW == nil {
		if f, err := os.OpenFile(os.DevNull, os.O_RDWR, 0); err == nil {
			errW = f
		}
	}
	cmd.Stdout = outW
	cmd.Stderr = errW

	if err := cmd.Start(); err != nil {
		closeAll(outW, errW)
		return nil, fmt.Errorf("launch worker: %w", err)
	}

	p := &Process{
		PID:       cmd.Process.Pid,
		StartedAt: time.Now(),
		StartUnix: detector.ProcStartUnix(cmd.Process.Pid),
	}

	// Reap the child so an exited worker does not linger as a zombie that a
	// PID existence check would still see.
	go func(pid int) {
		err := cmd.Wait()
		closeAll(outW, errW)
		if onExit != nil {
			onExit(pid, err)
		}
	}(p.PID)

	return p, nil
}

// KillMatching sends a best-effort termination request to every process whose
// command line contains match, except the excluded PIDs. It is the defensive
// cleanup step before a relaunch: a no-op when nothing matches. Returns the
// number of processes signalled.
func KillMatching(match string, exclude ...int) int {
	exclude = append(exclude, os.Getpid())
	pids := detector.FindByCommandLine(match, exclude...)
	n := 0
	for _, pid := range pids {
		if Terminate(pid) == nil {
			n++
		}
	}
	return n
}

func closeAll(ws ...io.WriteCloser) {
	for _, w := range ws {
		if w != nil {
			_ = w.Close()
		}
	}
}
