//go:build windows

package detector

import (
	"fmt"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// PIDAlive returns true if a process with the given pid exists.
func PIDAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := gopsproc.PidExists(int32(pid))
	return err == nil && ok
}

// PIDDetector detects by a provided PID number.
type PIDDetector struct{ PID int }

func (d PIDDetector) Alive() (bool, error) { return PIDAlive(d.PID), nil }
func (d PIDDetector) Describe() string     { return fmt.Sprintf("pid:%d", d.PID) }
