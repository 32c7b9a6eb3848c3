package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Optional", Command: "also-not-present", Optional: true},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Resolved != present || results[0].Detail != "" {
		t.Fatalf("unexpected status for present binary: %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" || !results[1].Blocking() {
		t.Fatalf("unexpected status for missing binary: %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Blocking() {
		t.Fatal("optional dependency must not block")
	}
	if results[3].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[3].Detail)
	}
}
