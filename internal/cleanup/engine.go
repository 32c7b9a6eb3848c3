package cleanup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"psxinstall/internal/fileutil"
	"psxinstall/internal/logging"
)

// Result summarizes one cleanup run.
type Result struct {
	fileutil.Tally
	Removed []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules replaces the default catalog.
func WithRules(rules ...Rule) Option {
	return func(e *Engine) {
		e.rules = append([]Rule(nil), rules...)
	}
}

// Engine applies a rule catalog to a data directory.
type Engine struct {
	rules  []Rule
	logger *slog.Logger
}

// New constructs an Engine using DefaultCatalog unless overridden.
func New(logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		rules:  DefaultCatalog,
		logger: logging.NewComponentLogger(logger, "cleanup"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run deletes every catalog match under baseDir and reports what was removed.
func (e *Engine) Run(ctx context.Context, baseDir string) Result {
	logger := logging.WithContext(ctx, e.logger)
	var result Result
	for _, rule := range e.rules {
		if ctx.Err() != nil {
			break
		}
		for _, target := range e.targets(logger, baseDir, rule) {
			e.apply(logger, &result, fileutil.Remove(target))
		}
	}
	logger.Info("cleanup finished",
		logging.Int("files", result.Files),
		logging.Int64("bytes", result.Bytes),
		logging.Int("failed", result.Failed),
	)
	return result
}

func (e *Engine) targets(logger *slog.Logger, baseDir string, rule Rule) []string {
	if !rule.IsGlob() {
		target := filepath.Join(baseDir, filepath.FromSlash(string(rule)))
		if !fileutil.Exists(target) {
			return nil
		}
		return []string{target}
	}

	dir := filepath.Join(baseDir, filepath.FromSlash(rule.Dir()))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.WarnWithContext(logger, "failed to list cleanup directory", "cleanup_list_failed",
				logging.String("dir", dir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "matching files left in place"),
			)
		}
		return nil
	}
	re := rule.matcher()
	var matches []string
	for _, entry := range entries {
		if re.MatchString(entry.Name()) {
			matches = append(matches, filepath.Join(dir, entry.Name()))
		}
	}
	return matches
}

// apply folds one removal into result. Failures are logged and the batch
// continues.
func (e *Engine) apply(logger *slog.Logger, result *Result, r fileutil.Removal) {
	result.Add(r)
	if r.Err != nil {
		logging.WarnWithContext(logger, "failed to remove file", "cleanup_remove_failed",
			logging.String("path", r.Path),
			logging.Error(r.Err),
			logging.String(logging.FieldImpact, "file left in place"),
			logging.String(logging.FieldErrorHint, "check file permissions and rerun cleanup"),
		)
		return
	}
	if r.Removed() {
		result.Removed = append(result.Removed, r.Path)
		logger.Debug("removed", logging.String("path", r.Path), logging.Int64("bytes", r.Bytes))
	}
}
