package pidfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	s := Store{Path: filepath.Join(dir, "w.pid")}
	if err := s.Write(1234, 987654); err != nil {
		t.Fatalf("write: %v", err)
	}
	pid, start, ok, err := s.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok")
	}
	if pid != 1234 || start != 987654 {
		t.Fatalf("got pid=%d start=%d", pid, start)
	}
}

func TestWriteWithoutStartTime(t *testing.T) {
	dir := t.TempDir()
	s := Store{Path: filepath.Join(dir, "w.pid")}
	if err := s.Write(42, 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	pid, start, ok, err := s.Read()
	if err != nil || !ok {
		t.Fatalf("read: ok=%v err=%v", ok, err)
	}
	if pid != 42 || start != 0 {
		t.Fatalf("got pid=%d start=%d", pid, start)
	}
}

func TestReadMissingFileIsNotError(t *testing.T) {
	s := Store{Path: filepath.Join(t.TempDir(), "nope.pid")}
	_, _, ok, err := s.Read()
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if ok {
		t.Fatalf("missing file should report ok=false")
	}
}

func TestReadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.pid")
	if err := os.WriteFile(path, []byte("not-a-pid\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := Store{Path: path}
	_, _, ok, err := s.Read()
	if err == nil {
		t.Fatalf("expected error for malformed pidfile")
	}
	if ok {
		t.Fatalf("malformed file should report ok=false")
	}
}

func TestClearIdempotent(t *testing.T) {
	dir := t.TempDir()
	s := Store{Path: filepath.Join(dir, "w.pid")}
	if err := s.Write(1, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("second clear should be a no-op: %v", err)
	}
	if _, _, ok, _ := s.Read(); ok {
		t.Fatalf("record should be gone after clear")
	}
}

func TestWriteCreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	s := Store{Path: filepath.Join(dir, "sub", "deep", "w.pid")}
	if err := s.Write(7, 0); err != nil {
		t.Fatalf("write should create parent dirs: %v", err)
	}
}

func TestWriteEmptyPathFails(t *testing.T) {
	s := Store{}
	if err := s.Write(1, 0); err == nil {
		t.Fatalf("expected error for unset path")
	}
}
