package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"psxinstall/internal/config"
)

func TestLoadDefaultConfigDerivesPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("JAVA_HOME", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	resource := filepath.Join(tempHome, ".local", "share", "psxinstall")
	if cfg.Paths.ResourceDir != resource {
		t.Fatalf("unexpected resource dir: got %q want %q", cfg.Paths.ResourceDir, resource)
	}
	if want := filepath.Join(resource, "data"); cfg.Paths.DataDir != want {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, want)
	}
	if want := filepath.Join(resource, "data", "DRIVER2"); cfg.Paths.GameDir != want {
		t.Fatalf("unexpected game dir: got %q want %q", cfg.Paths.GameDir, want)
	}
	if want := filepath.Join(resource, "data", "install", "jpsxdec.jar"); cfg.Paths.ToolJar != want {
		t.Fatalf("unexpected tool jar: got %q want %q", cfg.Paths.ToolJar, want)
	}
	if want := filepath.Join(resource, "github_files.txt"); cfg.Paths.Manifest != want {
		t.Fatalf("unexpected manifest: got %q want %q", cfg.Paths.Manifest, want)
	}
	if want := filepath.Join(cfg.Paths.LogDir, "history.db"); cfg.History.Path != want {
		t.Fatalf("unexpected history path: got %q want %q", cfg.History.Path, want)
	}
	if cfg.JavaBinary() != "java" {
		t.Fatalf("expected bare java binary, got %q", cfg.JavaBinary())
	}
	if !cfg.Conversion.Enabled {
		t.Fatal("expected conversion enabled by default")
	}
	if cfg.InstallDir() != filepath.Join(cfg.Paths.DataDir, "install") {
		t.Fatalf("unexpected install dir: %q", cfg.InstallDir())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("JAVA_HOME", "")

	configPath := filepath.Join(tempHome, "custom.toml")
	content := `
[paths]
resource_dir = "~/games/driver2"
game_dir = "~/games/driver2/custom/DRIVER2"

[tool]
java_binary = "~/jdk/bin/java"

[conversion]
workers = 3
min_free_gib = 5

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom path to resolve, got %q exists=%v", resolved, exists)
	}
	if want := filepath.Join(tempHome, "games", "driver2", "custom", "DRIVER2"); cfg.Paths.GameDir != want {
		t.Fatalf("unexpected game dir: %q", cfg.Paths.GameDir)
	}
	if want := filepath.Join(tempHome, "games", "driver2", "data"); cfg.Paths.DataDir != want {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if want := filepath.Join(tempHome, "jdk", "bin", "java"); cfg.JavaBinary() != want {
		t.Fatalf("unexpected java binary: %q", cfg.JavaBinary())
	}
	if cfg.WorkerCount() != 3 {
		t.Fatalf("expected 3 workers, got %d", cfg.WorkerCount())
	}
	if cfg.Conversion.MinFreeGiB != 5 {
		t.Fatalf("unexpected min free: %d", cfg.Conversion.MinFreeGiB)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging settings, got %+v", cfg.Logging)
	}
}

func TestJavaHomeFallback(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	jdk := filepath.Join(tempHome, "jdk-21")
	t.Setenv("JAVA_HOME", jdk)

	cfg, _, _, err := config.Load(filepath.Join(tempHome, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if want := filepath.Join(jdk, "bin", "java"); cfg.JavaBinary() != want {
		t.Fatalf("expected JAVA_HOME java, got %q", cfg.JavaBinary())
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	configPath := filepath.Join(tempHome, "bad.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\nstaging_dir = \"/tmp\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestCreateSample(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "resource_dir") {
		t.Fatalf("sample missing resource_dir: %s", data)
	}

	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if decoded.Conversion.MinFreeGiB != 2 {
		t.Fatalf("unexpected sample min_free_gib: %d", decoded.Conversion.MinFreeGiB)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	base, _, _, err := config.Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{"negative workers", func(c *config.Config) { c.Conversion.Workers = -1 }, "conversion.workers"},
		{"negative free space", func(c *config.Config) { c.Conversion.MinFreeGiB = -2 }, "conversion.min_free_gib"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"empty manifest", func(c *config.Config) { c.Paths.Manifest = "" }, "paths.manifest"},
		{"root game dir", func(c *config.Config) { c.Paths.GameDir = "/" }, "paths.game_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultWorkerCount(t *testing.T) {
	cases := map[int]int{1: 1, 2: 1, 4: 3, 8: 6, 16: 12}
	for cpus, want := range cases {
		if got := config.DefaultWorkerCount(cpus); got != want {
			t.Fatalf("DefaultWorkerCount(%d) = %d, want %d", cpus, got, want)
		}
	}
}
