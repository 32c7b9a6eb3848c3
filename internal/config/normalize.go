package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTool(); err != nil {
		return err
	}
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ResourceDir) == "" {
		c.Paths.ResourceDir = defaultResourceDir
	}
	if c.Paths.ResourceDir, err = expandPath(c.Paths.ResourceDir); err != nil {
		return fmt.Errorf("paths.resource_dir: %w", err)
	}

	derive := func(field *string, key string, fallback string) error {
		if strings.TrimSpace(*field) == "" {
			*field = fallback
			return nil
		}
		expanded, err := expandPath(strings.TrimSpace(*field))
		if err != nil {
			return fmt.Errorf("paths.%s: %w", key, err)
		}
		*field = expanded
		return nil
	}

	if err := derive(&c.Paths.DataDir, "data_dir", filepath.Join(c.Paths.ResourceDir, dataDirName)); err != nil {
		return err
	}
	if err := derive(&c.Paths.GameDir, "game_dir", filepath.Join(c.Paths.DataDir, gameDirName)); err != nil {
		return err
	}
	if err := derive(&c.Paths.ToolJar, "tool_jar", filepath.Join(c.Paths.DataDir, installDirName, toolJarName)); err != nil {
		return err
	}
	if err := derive(&c.Paths.Manifest, "manifest", filepath.Join(c.Paths.ResourceDir, manifestFileName)); err != nil {
		return err
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTool() error {
	c.Tool.JavaBinary = strings.TrimSpace(c.Tool.JavaBinary)
	if c.Tool.JavaBinary == "" {
		if home, ok := os.LookupEnv("JAVA_HOME"); ok && strings.TrimSpace(home) != "" {
			c.Tool.JavaBinary = filepath.Join(strings.TrimSpace(home), "bin", "java")
		} else {
			c.Tool.JavaBinary = defaultJavaBinary
		}
	}
	// Bare command names are resolved on PATH at launch time.
	if strings.ContainsRune(c.Tool.JavaBinary, os.PathSeparator) || strings.HasPrefix(c.Tool.JavaBinary, "~") {
		expanded, err := expandPath(c.Tool.JavaBinary)
		if err != nil {
			return fmt.Errorf("tool.java_binary: %w", err)
		}
		c.Tool.JavaBinary = expanded
	}
	return nil
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.LogDir, historyFileName)
		return nil
	}
	expanded, err := expandPath(strings.TrimSpace(c.History.Path))
	if err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	c.History.Path = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
