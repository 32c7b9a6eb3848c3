package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"psxinstall/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
	pathSet bool
}

// NewConfig produces a config seeded with unique temp directories per test.
// The layout mirrors the defaults: data/DRIVER2 for the game, data/install
// for the decoder jar, and the manifest beside the data directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ResourceDir = base
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.GameDir = filepath.Join(base, "data", "DRIVER2")
	cfgVal.Paths.ToolJar = filepath.Join(base, "data", "install", "jpsxdec.jar")
	cfgVal.Paths.Manifest = filepath.Join(base, "github_files.txt")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.History.Path = filepath.Join(base, "logs", "history.db")
	cfgVal.Tool.JavaBinary = "java"
	cfgVal.Conversion.Workers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithWorkers overrides the primary conversion pool size.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Conversion.Workers = n
	}
}

// WithToolJar writes a placeholder decoder jar at the configured path.
func WithToolJar() ConfigOption {
	return func(b *configBuilder) {
		WriteFile(b.t, b.cfg.Paths.ToolJar, 16)
	}
}

// WithManifest writes the baseline manifest with the given entries.
func WithManifest(entries ...string) ConfigOption {
	return func(b *configBuilder) {
		var body []byte
		for _, entry := range entries {
			body = append(body, entry...)
			body = append(body, '\n')
		}
		if err := os.WriteFile(b.cfg.Paths.Manifest, body, 0o644); err != nil {
			b.t.Fatalf("write manifest: %v", err)
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, java is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"java"}
		}
		for _, name := range names {
			b.writeStub(name, "exit 0")
		}
	}
}

// WithStubScript installs a stub executable named name that runs body with
// /bin/sh.
func WithStubScript(name, body string) ConfigOption {
	return func(b *configBuilder) {
		b.writeStub(name, body)
	}
}

func (b *configBuilder) writeStub(name, body string) {
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		b.t.Fatalf("write stub %s: %v", name, err)
	}
	if b.pathSet {
		return
	}
	b.pathSet = true
	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
		b.t.Fatalf("set PATH: %v", err)
	}
	b.t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return cfg.Paths.ResourceDir
}
