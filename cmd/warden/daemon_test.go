package main

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestWriteAndRemovePidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.pid")
	if err := writePidFile(path, 4321); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != strconv.Itoa(4321) {
		t.Fatalf("content = %q", data)
	}
	if err := removePidFile(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("pid file should be gone")
	}
}

func TestRemovePidFileEmptyPath(t *testing.T) {
	if err := removePidFile(""); err != nil {
		t.Fatalf("empty path is a no-op: %v", err)
	}
}

func TestBuildRootCommands(t *testing.T) {
	root := buildRoot()
	want := map[string]bool{"serve": false, "status": false, "stop": false, "restart": false, "events": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("missing subcommand %s", name)
		}
	}
}
