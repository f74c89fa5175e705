package detector

import (
	"github.com/loykin/warden/internal/pidfile"
)

// PIDFileDetector detects the worker via its PID file record.
//
// With VerifyStartTime set, the recorded process start time is compared
// against the live process before declaring it alive, which catches PID
// reuse. The default is off: the base liveness contract is existence-only,
// and PID reuse after worker exit is an accepted limitation of that mode.
type PIDFileDetector struct {
	Store           pidfile.Store
	VerifyStartTime bool
}

func (d PIDFileDetector) Alive() (bool, error) {
	_, alive, err := d.AlivePID()
	return alive, err
}

// AlivePID is Alive with the recorded PID also returned, for callers that
// need it to report or clean up after a dead worker.
func (d PIDFileDetector) AlivePID() (int, bool, error) {
	pid, startUnix, ok, err := d.Store.Read()
	if err != nil || !ok {
		return pid, false, err
	}
	if d.VerifyStartTime && startUnix > 0 {
		cur := ProcStartUnix(pid)
		if cur > 0 && cur != startUnix {
			return pid, false, nil // PID reused; not our worker
		}
	}
	return pid, PIDAlive(pid), nil
}

func (d PIDFileDetector) Describe() string { return "pidfile:" + d.Store.Path }
