package detector

import (
	"strings"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// FindByCommandLine returns the PIDs of processes whose command line contains
// match. exclude filters out PIDs that must not be reported (the caller's own
// PID, a worker the supervisor already tracks). Used for defensive cleanup of
// stray worker instances that a PID-based check can miss after PID reuse or a
// partial launch.
func FindByCommandLine(match string, exclude ...int) []int {
	match = strings.TrimSpace(match)
	if match == "" {
		return nil
	}
	excluded := make(map[int]struct{}, len(exclude))
	for _, p := range exclude {
		excluded[p] = struct{}{}
	}
	procs, err := gopsproc.Processes()
	if err != nil {
		return nil
	}
	var out []int
	for _, p := range procs {
		pid := int(p.Pid)
		if _, skip := excluded[pid]; skip {
			continue
		}
		cmdline, err := p.Cmdline()
		if err != nil || cmdline == "" {
			continue
		}
		if strings.Contains(cmdline, match) {
			out = append(out, pid)
		}
	}
	return out
}
