package preflight

import (
	"fmt"
	"strings"

	"psxinstall/internal/config"
	"psxinstall/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Advisory checks are shown but never block a run.
	Advisory bool
	// Marker classifies a blocking failure for services.KindOf.
	Marker error
}

// Blocking reports whether r should stop a run.
func (r Result) Blocking() bool {
	return !r.Passed && !r.Advisory
}

// Scope selects which checks apply to an operation.
type Scope int

const (
	// ScopeInstall covers extraction plus optional conversion.
	ScopeInstall Scope = iota
	// ScopeConvert covers a standalone media conversion.
	ScopeConvert
	// ScopeStatus covers every check, for display.
	ScopeStatus
)

// RunAll executes the checks that apply to scope.
func RunAll(cfg *config.Config, scope Scope) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results,
		CheckJava(cfg.JavaBinary()),
		CheckToolJar(cfg.Paths.ToolJar),
	)
	switch scope {
	case ScopeInstall:
		results = append(results,
			CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
			CheckFreeSpace("Free space", cfg.Paths.DataDir, cfg.Conversion.MinFreeGiB),
		)
	case ScopeConvert:
		results = append(results, CheckDirectoryAccess("Game directory", cfg.Paths.GameDir))
	case ScopeStatus:
		results = append(results,
			CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
			CheckFreeSpace("Free space", cfg.Paths.DataDir, cfg.Conversion.MinFreeGiB),
			CheckManifest(cfg.Paths.Manifest),
		)
	}
	return results
}

// Verify returns an error describing every blocking failure in results, or
// nil. The error carries the marker of the first blocking failure.
func Verify(results []Result) error {
	var (
		failures []string
		marker   error
	)
	for _, r := range results {
		if !r.Blocking() {
			continue
		}
		if marker == nil {
			marker = r.Marker
			if marker == nil {
				marker = services.ErrPrecondition
			}
		}
		failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	if len(failures) == 0 {
		return nil
	}
	err := services.Wrap(marker, "preflight", "verify", strings.Join(failures, "; "), nil)
	if marker == services.ErrLaunch {
		return services.WithUserMessage(err, "Java not found. "+services.Hint(err))
	}
	return services.WithUserMessage(err, "Preflight failed: "+failures[0])
}
