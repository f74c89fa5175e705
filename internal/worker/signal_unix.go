//go:build !windows

package worker

import (
	"syscall"
)

func detachAttrs() *syscall.SysProcAttr {
	// New session: the worker must not receive the supervisor's terminal
	// signals implicitly.
	return &syscall.SysProcAttr{Setsid: true}
}

// Terminate sends SIGTERM to pid. Fire-and-forget: the caller does not wait
// for the process to exit, and "already gone" is not an error.
func Terminate(pid int) error {
	if pid <= 0 {
		return nil
	}
	err := syscall.Kill(pid, syscall.SIGTERM)
	if err == syscall.ESRCH {
		return nil
	}
	return err
}

// Kill sends SIGKILL to pid, best-effort.
func Kill(pid int) error {
	if pid <= 0 {
		return nil
	}
	err := syscall.Kill(pid, syscall.SIGKILL)
	if err == syscall.ESRCH {
		return nil
	}
	return err
}
