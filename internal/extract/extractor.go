package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"psxinstall/internal/fileutil"
	"psxinstall/internal/gamedir"
	"psxinstall/internal/logging"
	"psxinstall/internal/procexec"
	"psxinstall/internal/services"
	"psxinstall/internal/services/jpsxdec"
)

// Reporter is the slice of session state extraction drives.
type Reporter interface {
	procexec.Sink
	SetStatus(status string)
}

// Disc names one disc image to extract.
type Disc struct {
	Image string
	Label string
}

// Extractor runs the index and extract passes for disc images.
type Extractor struct {
	decoder   jpsxdec.Decoder
	logger    *slog.Logger
	indexName string
}

// New constructs an Extractor.
func New(decoder jpsxdec.Decoder, logger *slog.Logger) *Extractor {
	return &Extractor{
		decoder:   decoder,
		logger:    logging.NewComponentLogger(logger, "extract"),
		indexName: gamedir.DiscIndexName,
	}
}

// Extract indexes disc and extracts its files into outputDir.
func (e *Extractor) Extract(ctx context.Context, disc Disc, outputDir string, reporter Reporter) error {
	label := strings.TrimSpace(disc.Label)
	if label == "" {
		label = filepath.Base(disc.Image)
	}
	if strings.TrimSpace(disc.Image) == "" {
		return services.WithUserMessage(
			services.Wrap(services.ErrPrecondition, "extract", "validate", "disc image path required", nil),
			fmt.Sprintf("Please select %s.", label),
		)
	}
	logger := logging.WithContext(ctx, e.logger).With(
		logging.String("disc", label),
		logging.String("image", disc.Image),
	)
	index := filepath.Join(outputDir, e.indexName)
	opts := procexec.Options{CaptureProgress: true, Sink: reporter}

	reporter.SetStatus(fmt.Sprintf("Indexing %s...", label))
	logger.Info("indexing disc image", logging.String("index", index))
	if _, err := e.decoder.Index(ctx, disc.Image, index, opts); err != nil {
		e.discardIndex(logger, index)
		return stepError(ctx, "index", label, err, fmt.Sprintf("Failed to index %s. Is it a valid PSX disc image?", label))
	}

	reporter.SetStatus(fmt.Sprintf("Extracting %s...", label))
	reporter.AppendLog("Running jpsxdec extraction command...")
	logger.Info("extracting disc files", logging.String("output_dir", outputDir))
	if _, err := e.decoder.ExtractFiles(ctx, index, outputDir, "file", opts); err != nil {
		e.discardIndex(logger, index)
		return stepError(ctx, "extract", label, err, fmt.Sprintf("Failed to extract %s.", label))
	}

	e.discardIndex(logger, index)
	logger.Info("disc extracted")
	return nil
}

// stepError wraps a failed decoder pass. A pass cut short by ctx keeps the
// context error in the chain and does not blame the disc image.
func stepError(ctx context.Context, step, label string, err error, message string) error {
	wrapped := services.Wrap(services.MarkerFor(err, services.ErrExternalTool), "extract", step, label, err)
	if ctxErr := ctx.Err(); ctxErr != nil {
		if !errors.Is(wrapped, ctxErr) {
			wrapped = fmt.Errorf("%w: %w", wrapped, ctxErr)
		}
		return services.WithUserMessage(wrapped, "Operation cancelled.")
	}
	return services.WithUserMessage(wrapped, message)
}

// discardIndex removes the transient index. Failure is logged and otherwise
// ignored.
func (e *Extractor) discardIndex(logger *slog.Logger, index string) {
	if r := fileutil.RemoveFile(index); r.Err != nil {
		logging.WarnWithContext(logger, "failed to remove disc index", "disc_index_cleanup_failed",
			logging.String("path", index),
			logging.Error(r.Err),
			logging.String(logging.FieldImpact, "index file left in data directory"),
			logging.String(logging.FieldErrorHint, "cleanup removes leftover index files"),
		)
	}
}
