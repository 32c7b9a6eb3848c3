package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"psxinstall/internal/config"
	"psxinstall/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	opts = append([]testsupport.ConfigOption{testsupport.WithStubbedBinaries(), testsupport.WithToolJar()}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Conversion.MinFreeGiB = 0
	base := testsupport.BaseDir(cfg)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
resource_dir = %q
data_dir = %q
game_dir = %q
tool_jar = %q
manifest = %q
log_dir = %q

[tool]
java_binary = %q

[conversion]
enabled = %t
workers = %d
min_free_gib = %d

[history]
enabled = %t
path = %q
`,
		cfg.Paths.ResourceDir,
		cfg.Paths.DataDir,
		cfg.Paths.GameDir,
		cfg.Paths.ToolJar,
		cfg.Paths.Manifest,
		cfg.Paths.LogDir,
		cfg.Tool.JavaBinary,
		cfg.Conversion.Enabled,
		cfg.Conversion.Workers,
		cfg.Conversion.MinFreeGiB,
		cfg.History.Enabled,
		cfg.History.Path,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
