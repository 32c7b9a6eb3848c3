package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the install layout.
type Paths struct {
	ResourceDir string `toml:"resource_dir"`
	DataDir     string `toml:"data_dir"`
	GameDir     string `toml:"game_dir"`
	ToolJar     string `toml:"tool_jar"`
	Manifest    string `toml:"manifest"`
	LogDir      string `toml:"log_dir"`
}

// Tool contains settings for the Java runtime that hosts the decoder.
type Tool struct {
	JavaBinary string `toml:"java_binary"`
}

// Conversion contains media conversion settings.
type Conversion struct {
	// Enabled converts FMV and XA media after extraction.
	Enabled bool `toml:"enabled"`
	// Workers caps the parallel FMV pool. Zero means 75% of CPUs.
	Workers int `toml:"workers"`
	// MinFreeGiB is the free-space floor checked before a run. Zero disables it.
	MinFreeGiB int `toml:"min_free_gib"`
}

// History contains settings for the run history database.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for psxinstall.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Tool       Tool       `toml:"tool"`
	Conversion Conversion `toml:"conversion"`
	History    History    `toml:"history"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/psxinstall/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and derived paths filled in.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("psxinstall.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JavaBinary returns the Java executable used to run the decoder.
func (c *Config) JavaBinary() string {
	return c.Tool.JavaBinary
}

// InstallDir returns the directory that holds the decoder and its helpers.
func (c *Config) InstallDir() string {
	return filepath.Join(c.Paths.DataDir, installDirName)
}

// WorkerCount returns the FMV pool size: the configured value, or 75% of the
// available CPUs floored at 1.
func (c *Config) WorkerCount() int {
	if c.Conversion.Workers > 0 {
		return c.Conversion.Workers
	}
	return DefaultWorkerCount(runtime.NumCPU())
}

// DefaultWorkerCount returns 75% of cpus, never less than 1.
func DefaultWorkerCount(cpus int) int {
	n := cpus * 3 / 4
	if n < 1 {
		return 1
	}
	return n
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
