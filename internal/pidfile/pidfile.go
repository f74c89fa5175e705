package pidfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Store persists the current worker PID to a well-known file so that
// external tooling can find the worker. The supervisor is single-instance,
// so no file locking is performed.
//
// File format: first line is the PID, second line is optional JSON metadata
// carrying the process start time. The metadata lets readers detect PID
// reuse; the file stays readable by plain `cat`/`kill $(head -1 ...)`.
type Store struct {
	Path string
}

// Meta is the optional second line of the PID file.
type Meta struct {
	StartUnix int64 `json:"start_unix"`
}

// Write persists pid (and its start time token, when known) to the file.
// Failure here is fatal for the supervisor: without a working record the
// worker cannot be found again.
func (s Store) Write(pid int, startUnix int64) error {
	if s.Path == "" {
		return fmt.Errorf("pidfile path not configured")
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o750); err != nil {
		return fmt.Errorf("create pidfile dir: %w", err)
	}
	data := strconv.Itoa(pid)
	if startUnix > 0 {
		meta, err := json.Marshal(Meta{StartUnix: startUnix})
		if err == nil {
			data += "\n" + string(meta)
		}
	}
	if err := os.WriteFile(s.Path, []byte(data+"\n"), 0o600); err != nil {
		return fmt.Errorf("write pidfile %s: %w", s.Path, err)
	}
	return nil
}

// Read returns the recorded PID and start time token. A missing file is not
// an error: it returns ok=false, which callers treat the same as a stale
// record (assume no worker is known-alive). A malformed file is reported as
// an error so corruption is visible in the log, but callers may still treat
// it as "no record".
func (s Store) Read() (pid int, startUnix int64, ok bool, err error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, false, nil
		}
		return 0, 0, false, err
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return 0, 0, false, fmt.Errorf("empty pidfile: %s", s.Path)
	}
	pid, err = strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return 0, 0, false, fmt.Errorf("invalid pid in %s: %w", s.Path, err)
	}
	if len(lines) >= 2 {
		var m Meta
		if jerr := json.Unmarshal([]byte(strings.TrimSpace(lines[1])), &m); jerr == nil {
			startUnix = m.StartUnix
		}
	}
	return pid, startUnix, true, nil
}

// Clear removes the record. Best-effort: a missing file is not an error.
func (s Store) Clear() error {
	if s.Path == "" {
		return nil
	}
	err := os.Remove(s.Path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
