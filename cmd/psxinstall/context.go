package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"psxinstall/internal/config"
	"psxinstall/internal/history"
	"psxinstall/internal/logging"
	"psxinstall/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// logger writes console records to the command's stderr and JSON records to
// the shared log file.
func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts := logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		opts.FilePath = filepath.Join(dir, logging.LogFileName)
	}
	return logging.New(opts)
}

// openHistory returns nil when run history is disabled.
func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, nil
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}
	return store, nil
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	store, err := c.openHistory()
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("run history is disabled (history.enabled = false)")
	}
	defer store.Close()
	return fn(store)
}

func (c *commandContext) withManager(cmd *cobra.Command, fn func(*workflow.Manager) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger(cmd)
	if err != nil {
		return err
	}
	store, err := c.openHistory()
	if err != nil {
		return err
	}
	var opts []workflow.ManagerOption
	if store != nil {
		defer store.Close()
		opts = append(opts, workflow.WithRecorder(store))
	}
	mgr, err := workflow.NewManager(cfg, logger, opts...)
	if err != nil {
		return err
	}
	return fn(mgr)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
