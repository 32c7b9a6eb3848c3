package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.ResourceDir == "" {
		return errors.New("paths.resource_dir must be set")
	}
	if c.Paths.GameDir == "" {
		return errors.New("paths.game_dir must be set")
	}
	if filepath.Clean(c.Paths.GameDir) == filepath.Dir(filepath.Clean(c.Paths.GameDir)) {
		return fmt.Errorf("paths.game_dir must not be a filesystem root: %q", c.Paths.GameDir)
	}
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.ToolJar == "" {
		return errors.New("paths.tool_jar must be set")
	}
	if c.Paths.Manifest == "" {
		return errors.New("paths.manifest must be set")
	}
	return nil
}

func (c *Config) validateConversion() error {
	if c.Conversion.Workers < 0 {
		return errors.New("conversion.workers must be zero or positive")
	}
	if c.Conversion.MinFreeGiB < 0 {
		return errors.New("conversion.min_free_gib must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
