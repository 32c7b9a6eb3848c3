package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"psxinstall/internal/fileutil"
	"psxinstall/internal/gamedir"
	"psxinstall/internal/logging"
	"psxinstall/internal/procexec"
	"psxinstall/internal/services"
	"psxinstall/internal/services/jpsxdec"
)

const (
	primaryDir   = gamedir.FMVDirName
	primaryExt   = ".str"
	secondaryDir = gamedir.XADirName
	secondaryExt = ".xa"
)

// Reporter is the slice of session state conversion drives.
type Reporter interface {
	AppendLog(text string)
	SetStatus(status string)
	SetProgress(value float64)
}

// Summary describes one finished phase.
type Summary struct {
	Class     Class
	Total     int
	Completed int
	Succeeded int
	// Skipped is set when the media directory or its files were absent.
	Skipped bool
	Elapsed time.Duration
}

// Failed returns the number of jobs that did not convert fully.
func (s Summary) Failed() int { return s.Completed - s.Succeeded }

// Converter runs the primary and secondary conversion phases.
type Converter struct {
	decoder jpsxdec.Decoder
	workers int
	logger  *slog.Logger
}

// New constructs a Converter. workers bounds the primary pool; values below 1
// are treated as 1.
func New(decoder jpsxdec.Decoder, workers int, logger *slog.Logger) *Converter {
	if workers < 1 {
		workers = 1
	}
	return &Converter{
		decoder: decoder,
		workers: workers,
		logger:  logging.NewComponentLogger(logger, "convert"),
	}
}

// Workers returns the primary pool size.
func (c *Converter) Workers() int { return c.workers }

// ConvertPrimary converts every FMV stream under gameDir/FMV in parallel.
func (c *Converter) ConvertPrimary(ctx context.Context, gameDir string, reporter Reporter) (Summary, error) {
	start := time.Now()
	logger := logging.WithContext(ctx, c.logger).With(logging.String("class", Primary.String()))

	jobs, skipped, err := c.discover(logger, gameDir, primaryDir, primaryExt, Primary, reporter)
	if err != nil || skipped {
		return Summary{Class: Primary, Skipped: skipped, Elapsed: time.Since(start)}, err
	}

	total := len(jobs)
	counters := NewCounters(total)
	reporter.SetStatus(fmt.Sprintf("Converting %d FMVs (parallel)...", total))
	reporter.AppendLog(fmt.Sprintf("Using %d parallel workers for conversion", c.workers))
	logger.Info("primary conversion started", logging.Int("jobs", total), logging.Int("workers", c.workers))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(c.workers)
	for i, job := range jobs {
		position := i + 1
		group.Go(func() error {
			success, err := c.runPrimaryJob(gctx, logger, job, position, total, reporter)
			done := counters.Complete(success)
			reporter.SetProgress(float64(done) / float64(total))
			return err
		})
	}
	waitErr := group.Wait()

	summary := c.finish(logger, counters, Primary, primaryDir, start, reporter)
	if waitErr != nil {
		return summary, waitErr
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// ConvertSecondary converts every XA stream under gameDir/XA, one at a time.
func (c *Converter) ConvertSecondary(ctx context.Context, gameDir string, reporter Reporter) (Summary, error) {
	start := time.Now()
	logger := logging.WithContext(ctx, c.logger).With(logging.String("class", Secondary.String()))

	jobs, skipped, err := c.discover(logger, gameDir, secondaryDir, secondaryExt, Secondary, reporter)
	if err != nil || skipped {
		return Summary{Class: Secondary, Skipped: skipped, Elapsed: time.Since(start)}, err
	}

	total := len(jobs)
	counters := NewCounters(total)
	reporter.SetStatus(fmt.Sprintf("Converting %d XA files...", total))
	logger.Info("secondary conversion started", logging.Int("jobs", total))

	var fatal error
	for i, job := range jobs {
		var success bool
		if fatal == nil && ctx.Err() == nil {
			success, fatal = c.runSecondaryJob(ctx, logger, job, i+1, total, reporter)
		}
		done := counters.Complete(success)
		reporter.SetProgress(float64(done) / float64(total))
	}

	summary := c.finish(logger, counters, Secondary, secondaryDir, start, reporter)
	if fatal != nil {
		return summary, fatal
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (c *Converter) discover(logger *slog.Logger, gameDir, dirName, ext string, class Class, reporter Reporter) ([]Job, bool, error) {
	dir := filepath.Join(gameDir, dirName)
	info, err := os.Stat(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, false, services.Wrap(services.ErrPrecondition, "convert", "discover", dir, err)
	}
	if err != nil || !info.IsDir() {
		reporter.AppendLog(fmt.Sprintf("%s directory not found. Skipping.", dirName))
		logger.Info("media directory missing, skipping", logging.String("dir", dir))
		return nil, true, nil
	}

	sources, err := Discover(dir, ext)
	if err != nil {
		return nil, false, services.Wrap(services.ErrPrecondition, "convert", "discover", dir, err)
	}
	if len(sources) == 0 {
		reporter.AppendLog(fmt.Sprintf("No %s files found. Skipping.", strings.ToUpper(ext)))
		logger.Info("no media files found, skipping", logging.String("dir", dir), logging.String("ext", ext))
		return nil, true, nil
	}

	jobs := make([]Job, 0, len(sources))
	for _, src := range sources {
		jobs = append(jobs, NewJob(src, class))
	}
	return jobs, false, nil
}

func (c *Converter) runPrimaryJob(ctx context.Context, logger *slog.Logger, job Job, position, total int, reporter Reporter) (bool, error) {
	if ctx.Err() != nil {
		return false, nil
	}
	name := job.Name()
	reporter.AppendLog(fmt.Sprintf("Processing %s (%d/%d)...", name, position, total))
	jobLogger := logger.With(logging.String("file", name), logging.Int("position", position))

	if _, err := c.decoder.Index(ctx, job.Source, job.Index, procexec.Options{}); err != nil {
		return false, c.indexFailed(jobLogger, job, err, reporter)
	}

	success := true
	if _, err := c.decoder.DecodeVideo(ctx, job.Index, job.OutputDir, procexec.Options{}); err != nil {
		success = false
		c.stepFailed(jobLogger, "video", job, err, reporter)
	}
	if _, err := c.decoder.DecodeAudio(ctx, job.Index, job.OutputDir, procexec.Options{}); err != nil {
		success = false
		c.stepFailed(jobLogger, "audio", job, err, reporter)
	}

	c.discard(jobLogger, fileutil.RemoveFile(job.Index), "index")
	if c.interrupted(ctx, jobLogger, job, reporter) {
		return false, nil
	}
	c.discard(jobLogger, fileutil.RemoveFile(job.Source), "source")
	c.removeCompanions(jobLogger, job)

	jobLogger.Debug("job finished", logging.Bool("success", success))
	return success, nil
}

func (c *Converter) runSecondaryJob(ctx context.Context, logger *slog.Logger, job Job, position, total int, reporter Reporter) (bool, error) {
	name := job.Name()
	reporter.AppendLog(fmt.Sprintf("Processing %s (%d/%d)...", name, position, total))
	jobLogger := logger.With(logging.String("file", name), logging.Int("position", position))

	if _, err := c.decoder.Index(ctx, job.Source, job.Index, procexec.Options{}); err != nil {
		return false, c.indexFailed(jobLogger, job, err, reporter)
	}

	success := true
	if _, err := c.decoder.DecodeAudio(ctx, job.Index, job.OutputDir, procexec.Options{}); err != nil {
		success = false
		c.stepFailed(jobLogger, "audio", job, err, reporter)
	}

	c.discard(jobLogger, fileutil.RemoveFile(job.Index), "index")
	if c.interrupted(ctx, jobLogger, job, reporter) {
		return false, nil
	}
	c.discard(jobLogger, fileutil.RemoveFile(job.Source), "source")
	return success, nil
}

// interrupted reports whether ctx ended while job was decoding. The source is
// kept so a later conversion can pick it up again.
func (c *Converter) interrupted(ctx context.Context, logger *slog.Logger, job Job, reporter Reporter) bool {
	if ctx.Err() == nil {
		return false
	}
	reporter.AppendLog(fmt.Sprintf("Conversion of %s interrupted; source kept", job.Name()))
	logger.Info("conversion interrupted, source kept",
		logging.String("source", job.Source),
		logging.String(logging.FieldEventType, "conversion_interrupted"),
	)
	return true
}

// indexFailed records a failed index step. The source is left in place. A
// decoder that cannot be launched is returned so the phase stops; any other
// failure stays local to the job.
func (c *Converter) indexFailed(logger *slog.Logger, job Job, err error, reporter Reporter) error {
	reporter.AppendLog(fmt.Sprintf("Failed to index %s", job.Name()))
	if errors.Is(err, services.ErrLaunch) {
		logging.ErrorWithContext(logger, "decoder could not be launched", "conversion_launch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
		)
		return services.WithUserMessage(
			services.Wrap(services.ErrLaunch, "convert", "index", job.Name(), err),
			"Java not found. "+services.Hint(err),
		)
	}
	logging.WarnWithContext(logger, "failed to index media file", "conversion_index_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "file left unconverted"),
		logging.String(logging.FieldErrorHint, "re-run media conversion after checking the source file"),
	)
	return nil
}

func (c *Converter) stepFailed(logger *slog.Logger, step string, job Job, err error, reporter Reporter) {
	reporter.AppendLog(fmt.Sprintf("Failed to convert %s for %s", step, job.Name()))
	logging.WarnWithContext(logger, "media decode step failed", "conversion_step_failed",
		logging.String("step", step),
		logging.Error(err),
		logging.String(logging.FieldImpact, step+" output missing for this file"),
	)
}

// discard logs a best-effort removal that did not succeed.
func (c *Converter) discard(logger *slog.Logger, r fileutil.Removal, what string) {
	if r.Err == nil {
		return
	}
	logging.WarnWithContext(logger, "failed to remove conversion leftover", "conversion_cleanup_failed",
		logging.String("kind", what),
		logging.String("path", r.Path),
		logging.Error(r.Err),
		logging.String(logging.FieldImpact, "leftover file uses disk space"),
		logging.String(logging.FieldErrorHint, "run psxinstall cleanup"),
	)
}

// removeCompanions deletes WAV byproducts of job; the audio already lives in
// the AVI container.
func (c *Converter) removeCompanions(logger *slog.Logger, job Job) {
	entries, err := os.ReadDir(job.OutputDir)
	if err != nil {
		logger.Debug("companion scan skipped", logging.Error(err))
		return
	}
	base := job.BaseName()
	for _, entry := range entries {
		if entry.IsDir() || !isCompanionWAV(entry.Name(), base) {
			continue
		}
		r := fileutil.RemoveFile(filepath.Join(job.OutputDir, entry.Name()))
		if r.Removed() {
			logger.Debug("removed redundant wav", logging.String("path", r.Path))
		}
		c.discard(logger, r, "companion")
	}
}

func (c *Converter) finish(logger *slog.Logger, counters *Counters, class Class, label string, start time.Time, reporter Reporter) Summary {
	summary := Summary{
		Class:     class,
		Total:     counters.Total(),
		Completed: counters.Completed(),
		Succeeded: counters.Succeeded(),
		Elapsed:   time.Since(start),
	}
	// Workers report completions out of order; pin the final fraction.
	reporter.SetProgress(counters.Fraction())
	reporter.AppendLog(fmt.Sprintf("%s conversion complete. Processed %d/%d files.", label, summary.Succeeded, summary.Total))
	if summary.Total > 0 && summary.Succeeded == 0 {
		logging.WarnWithContext(logger, "no media files converted", "conversion_none_succeeded",
			logging.Int("jobs", summary.Total),
			logging.String(logging.FieldImpact, "media left unconverted"),
			logging.String(logging.FieldErrorHint, "check the session log for decoder errors"),
		)
	}
	logger.Info("conversion phase finished",
		logging.Int("jobs", summary.Total),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed()),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary
}
