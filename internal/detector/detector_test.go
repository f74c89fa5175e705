package detector

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/loykin/warden/internal/pidfile"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
}

func TestPIDAliveSelf(t *testing.T) {
	if !PIDAlive(os.Getpid()) {
		t.Fatalf("own pid must be alive")
	}
}

func TestPIDAliveExitedProcess(t *testing.T) {
	requireUnix(t)
	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Wait(); err != nil {
		t.Fatal(err)
	}
	if PIDAlive(pid) {
		t.Fatalf("reaped pid %d should not be alive", pid)
	}
}

func TestPIDAliveInvalid(t *testing.T) {
	if PIDAlive(0) || PIDAlive(-1) {
		t.Fatalf("non-positive pids are never alive")
	}
}

func TestProcStartUnixSelf(t *testing.T) {
	requireUnix(t)
	if got := ProcStartUnix(os.Getpid()); got <= 0 {
		t.Fatalf("ProcStartUnix(self) = %d, want > 0", got)
	}
}

func TestPIDDetector(t *testing.T) {
	d := PIDDetector{PID: os.Getpid()}
	alive, err := d.Alive()
	if err != nil {
		t.Fatalf("alive: %v", err)
	}
	if !alive {
		t.Fatalf("own pid must be alive")
	}
	if d.Describe() == "" {
		t.Fatalf("describe must not be empty")
	}
}

func TestPIDFileDetectorMissingFile(t *testing.T) {
	d := PIDFileDetector{Store: pidfile.Store{Path: filepath.Join(t.TempDir(), "none.pid")}}
	alive, err := d.Alive()
	if err != nil {
		t.Fatalf("missing record is not an error: %v", err)
	}
	if alive {
		t.Fatalf("no record means not alive")
	}
}

func TestPIDFileDetectorAlive(t *testing.T) {
	requireUnix(t)
	st := pidfile.Store{Path: filepath.Join(t.TempDir(), "d.pid")}
	if err := st.Write(os.Getpid(), ProcStartUnix(os.Getpid())); err != nil {
		t.Fatal(err)
	}
	d := PIDFileDetector{Store: st, VerifyStartTime: true}
	alive, err := d.Alive()
	if err != nil {
		t.Fatalf("alive: %v", err)
	}
	if !alive {
		t.Fatalf("own pid with matching start token must be alive")
	}
}

func TestPIDFileDetectorStartTimeMismatch(t *testing.T) {
	requireUnix(t)
	st := pidfile.Store{Path: filepath.Join(t.TempDir(), "d.pid")}
	// Record a start token that cannot match the live process.
	if err := st.Write(os.Getpid(), 12345); err != nil {
		t.Fatal(err)
	}
	d := PIDFileDetector{Store: st, VerifyStartTime: true}
	alive, err := d.Alive()
	if err != nil {
		t.Fatalf("alive: %v", err)
	}
	if alive {
		t.Fatalf("mismatched start token means the pid was reused, not alive")
	}
}

func TestFindByCommandLineExcludes(t *testing.T) {
	requireUnix(t)
	pids := FindByCommandLine("go-test-no-such-command-line-xyz")
	if len(pids) != 0 {
		t.Fatalf("unexpected matches: %v", pids)
	}
}
