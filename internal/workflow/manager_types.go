package workflow

import (
	"context"
	"strings"
	"time"

	"psxinstall/internal/cleanup"
	"psxinstall/internal/convert"
	"psxinstall/internal/extract"
	"psxinstall/internal/fileutil"
	"psxinstall/internal/history"
	"psxinstall/internal/preflight"
	"psxinstall/internal/reset"
	"psxinstall/internal/stage"
)

// Extractor extracts one disc image.
type Extractor interface {
	Extract(ctx context.Context, disc extract.Disc, outputDir string, reporter extract.Reporter) error
}

// Converter runs the two media conversion phases.
type Converter interface {
	ConvertPrimary(ctx context.Context, gameDir string, reporter convert.Reporter) (convert.Summary, error)
	ConvertSecondary(ctx context.Context, gameDir string, reporter convert.Reporter) (convert.Summary, error)
}

// Cleaner removes installer leftovers under a base directory.
type Cleaner interface {
	Run(ctx context.Context, baseDir string) cleanup.Result
}

// Resetter reverts an install to its baseline manifest.
type Resetter interface {
	Run(ctx context.Context, root, manifestPath string) (reset.Result, error)
}

// Recorder persists run history.
type Recorder interface {
	Begin(ctx context.Context, rec *history.Record) error
	Update(ctx context.Context, rec *history.Record) error
}

// PreflightFunc verifies readiness for an operation scope.
type PreflightFunc func(scope preflight.Scope) error

// Dependencies bundles the components the manager orchestrates. History and
// Preflight are optional.
type Dependencies struct {
	Extractor Extractor
	Converter Converter
	Cleaner   Cleaner
	Resetter  Resetter
	History   Recorder
	Preflight PreflightFunc
}

// InstallRequest describes one install run.
type InstallRequest struct {
	DiscOne      string
	DiscTwo      string
	SingleDisc   bool
	ConvertMedia bool
}

func (r InstallRequest) discs() []extract.Disc {
	discs := []extract.Disc{{Image: strings.TrimSpace(r.DiscOne), Label: "Disc 1"}}
	if !r.SingleDisc && strings.TrimSpace(r.DiscTwo) != "" {
		discs = append(discs, extract.Disc{Image: strings.TrimSpace(r.DiscTwo), Label: "Disc 2"})
	}
	return discs
}

// Outcome describes a finished run.
type Outcome struct {
	RunID     string
	Kind      history.Kind
	State     stage.State
	Err       error
	Primary   convert.Summary
	Secondary convert.Summary
	Deleted   fileutil.Tally
	Started   time.Time
	Finished  time.Time
}

// Succeeded reports whether the run reached Complete.
func (o Outcome) Succeeded() bool {
	return o.State == stage.StateComplete
}
