package preflight

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"psxinstall/internal/config"
	"psxinstall/internal/services"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if CheckDirectoryAccess("test", f).Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckToolJar(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "jpsxdec.jar")
	if CheckToolJar(jar).Passed {
		t.Fatal("expected missing jar to fail")
	}
	if err := os.WriteFile(jar, []byte("PK"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckToolJar(jar); !r.Passed {
		t.Fatalf("expected jar to pass: %s", r.Detail)
	}
	if CheckToolJar(dir).Passed {
		t.Fatal("expected directory to fail")
	}
	if r := CheckToolJar(" "); r.Passed || r.Marker != services.ErrConfiguration {
		t.Fatalf("unexpected result for blank jar: %#v", r)
	}
}

func TestCheckJava(t *testing.T) {
	bin := t.TempDir()
	if err := os.WriteFile(filepath.Join(bin, "java"), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", bin)
	if r := CheckJava("java"); !r.Passed {
		t.Fatalf("expected java to resolve: %s", r.Detail)
	}
	if r := CheckJava("not-java-at-all"); r.Passed || r.Marker != services.ErrLaunch {
		t.Fatalf("unexpected result for missing java: %#v", r)
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if r := CheckFreeSpace("space", dir, 0); !r.Passed || !r.Advisory {
		t.Fatalf("zero floor should pass as advisory: %#v", r)
	}
	if r := CheckFreeSpace("space", dir, 1<<20); r.Passed || !r.Blocking() {
		t.Fatalf("a petabyte floor should fail: %#v", r)
	}
	if r := CheckFreeSpace("space", filepath.Join(dir, "missing"), 1); r.Passed {
		t.Fatal("expected statfs failure on missing path")
	}
}

func TestCheckManifestIsAdvisory(t *testing.T) {
	r := CheckManifest(filepath.Join(t.TempDir(), "github_files.txt"))
	if r.Passed || r.Blocking() {
		t.Fatalf("missing manifest should be advisory: %#v", r)
	}
}

func TestVerify(t *testing.T) {
	if err := Verify([]Result{{Name: "ok", Passed: true}, {Name: "soft", Advisory: true}}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	err := Verify([]Result{
		{Name: "Java", Detail: `binary "java" not found`, Marker: services.ErrLaunch},
		{Name: "jPSXdec", Detail: "missing", Marker: services.ErrPrecondition},
	})
	if !errors.Is(err, services.ErrLaunch) {
		t.Fatalf("expected ErrLaunch from first failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "jPSXdec: missing") {
		t.Fatalf("expected every failure listed, got %v", err)
	}
	if !strings.HasPrefix(services.UserMessage(err), "Java not found.") {
		t.Fatalf("unexpected user message %q", services.UserMessage(err))
	}

	err = Verify([]Result{{Name: "Data directory", Detail: "gone"}})
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected default precondition marker, got %v", err)
	}
}

func TestRunAllScopes(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = base
	cfg.Paths.GameDir = filepath.Join(base, "DRIVER2")
	cfg.Paths.ToolJar = filepath.Join(base, "install", "jpsxdec.jar")
	cfg.Paths.Manifest = filepath.Join(base, "github_files.txt")
	cfg.Tool.JavaBinary = "java"

	names := func(results []Result) string {
		out := make([]string, 0, len(results))
		for _, r := range results {
			out = append(out, r.Name)
		}
		return strings.Join(out, ",")
	}

	if got := names(RunAll(&cfg, ScopeInstall)); got != "Java,jPSXdec,Data directory,Free space" {
		t.Fatalf("install scope = %s", got)
	}
	if got := names(RunAll(&cfg, ScopeConvert)); got != "Java,jPSXdec,Game directory" {
		t.Fatalf("convert scope = %s", got)
	}
	if got := names(RunAll(&cfg, ScopeStatus)); got != "Java,jPSXdec,Data directory,Free space,Reset manifest" {
		t.Fatalf("status scope = %s", got)
	}
	if RunAll(nil, ScopeStatus) != nil {
		t.Fatal("expected nil for nil config")
	}
}
