//go:build windows

package worker

import (
	"os"
	"syscall"
)

func detachAttrs() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// Terminate kills pid. Windows has no SIGTERM; Kill is the only request.
func Terminate(pid int) error {
	return Kill(pid)
}

// Kill forcibly terminates pid, best-effort.
func Kill(pid int) error {
	if pid <= 0 {
		return nil
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	return p.Kill()
}
