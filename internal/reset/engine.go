package reset

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"

	"psxinstall/internal/fileutil"
	"psxinstall/internal/logging"
	"psxinstall/internal/services"
)

// Result summarizes one reset.
type Result struct {
	fileutil.Tally
	Kept    int
	Removed []string
}

// Engine deletes installed files that are not in the baseline manifest.
type Engine struct {
	logger *slog.Logger
}

// New constructs an Engine.
func New(logger *slog.Logger) *Engine {
	return &Engine{logger: logging.NewComponentLogger(logger, "reset")}
}

// Run loads manifestPath and removes every file under root it does not list.
// Manifest entries are matched against paths prefixed with root's own name.
func (e *Engine) Run(ctx context.Context, root, manifestPath string) (Result, error) {
	logger := logging.WithContext(ctx, e.logger).With(logging.String("root", root))

	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		logging.ErrorWithContext(logger, "reset aborted", "reset_manifest_unavailable",
			logging.String("manifest", manifestPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
		)
		return Result{}, err
	}
	logger.Info("manifest loaded", logging.Int("entries", manifest.Len()))
	return e.Apply(ctx, root, manifest)
}

// Apply removes every file under root absent from manifest.
func (e *Engine) Apply(ctx context.Context, root string, manifest Manifest) (Result, error) {
	logger := logging.WithContext(ctx, e.logger).With(logging.String("root", root))
	prefix := filepath.Base(filepath.Clean(root))

	var result Result
	var extras []string
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			logging.WarnWithContext(logger, "failed to read path during reset", "reset_walk_failed",
				logging.String("path", p),
				logging.Error(err),
				logging.String(logging.FieldImpact, "files below this path left in place"),
			)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		if manifest.Contains(path.Join(prefix, filepath.ToSlash(rel))) {
			result.Kept++
			return nil
		}
		extras = append(extras, p)
		return nil
	})
	if walkErr != nil {
		return result, walkErr
	}

	// Delete only after the walk completes.
	for _, p := range extras {
		r := fileutil.RemoveFile(p)
		result.Add(r)
		if r.Err != nil {
			logging.WarnWithContext(logger, "failed to delete extracted file", "reset_remove_failed",
				logging.String("path", p),
				logging.Error(r.Err),
				logging.String(logging.FieldImpact, "file survives the reset"),
			)
			continue
		}
		if r.Removed() {
			result.Removed = append(result.Removed, p)
		}
	}

	logger.Info("reset finished",
		logging.Int("files", result.Files),
		logging.Int64("bytes", result.Bytes),
		logging.Int("kept", result.Kept),
		logging.Int("failed", result.Failed),
	)
	return result, nil
}
