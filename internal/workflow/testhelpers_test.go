package workflow_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"psxinstall/internal/cleanup"
	"psxinstall/internal/config"
	"psxinstall/internal/convert"
	"psxinstall/internal/extract"
	"psxinstall/internal/fileutil"
	"psxinstall/internal/logging"
	"psxinstall/internal/reset"
	"psxinstall/internal/services"
	"psxinstall/internal/testsupport"
	"psxinstall/internal/workflow"
)

type stubExtractor struct {
	mu      sync.Mutex
	calls   []extract.Disc
	failOn  string
	block   chan struct{}
	started chan struct{}
}

func (s *stubExtractor) Extract(ctx context.Context, disc extract.Disc, outputDir string, reporter extract.Reporter) error {
	s.mu.Lock()
	s.calls = append(s.calls, disc)
	s.mu.Unlock()
	if s.started != nil {
		select {
		case s.started <- struct{}{}:
		default:
		}
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	reporter.SetStatus(fmt.Sprintf("Indexing %s...", disc.Label))
	if disc.Label == s.failOn {
		reporter.AppendLog("bad sector")
		return services.WithUserMessage(
			services.Wrap(services.ErrExternalTool, "extract", "index", disc.Label, fmt.Errorf("exit status 1")),
			fmt.Sprintf("Failed to index %s. Is it a valid PSX disc image?", disc.Label),
		)
	}
	reporter.AdvanceProgress(0.1, 0.95)
	return writeMarkers(filepath.Join(outputDir, "DRIVER2"))
}

// writeMarkers runs on the manager goroutine, so it reports errors instead
// of failing the test directly.
func writeMarkers(gameDir string) error {
	for _, rel := range []string{"FRONTEND.BIN", filepath.Join("LEVELS", "NY.D2L")} {
		path := filepath.Join(gameDir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubExtractor) Calls() []extract.Disc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]extract.Disc(nil), s.calls...)
}

type stubConverter struct {
	mu           sync.Mutex
	primaryCalls int
	secondary    int
	primaryErr   error
}

func (s *stubConverter) ConvertPrimary(ctx context.Context, gameDir string, reporter convert.Reporter) (convert.Summary, error) {
	s.mu.Lock()
	s.primaryCalls++
	s.mu.Unlock()
	if s.primaryErr != nil {
		return convert.Summary{Class: convert.Primary}, s.primaryErr
	}
	reporter.SetStatus("Converting 5 FMVs (parallel)...")
	reporter.SetProgress(1)
	return convert.Summary{Class: convert.Primary, Total: 5, Completed: 5, Succeeded: 4}, nil
}

func (s *stubConverter) ConvertSecondary(ctx context.Context, gameDir string, reporter convert.Reporter) (convert.Summary, error) {
	s.mu.Lock()
	s.secondary++
	s.mu.Unlock()
	reporter.SetStatus("Converting 2 XA files...")
	return convert.Summary{Class: convert.Secondary, Total: 2, Completed: 2, Succeeded: 2}, nil
}

func (s *stubConverter) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.primaryCalls, s.secondary
}

type stubCleaner struct {
	mu    sync.Mutex
	calls int
}

func (s *stubCleaner) Run(ctx context.Context, baseDir string) cleanup.Result {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return cleanup.Result{Tally: fileutil.Tally{Files: 3, Bytes: 300}}
}

func (s *stubCleaner) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type harness struct {
	cfg       *config.Config
	extractor *stubExtractor
	converter *stubConverter
	cleaner   *stubCleaner
	manager   *workflow.Manager
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	h := &harness{
		cfg:       cfg,
		extractor: &stubExtractor{},
		converter: &stubConverter{},
		cleaner:   &stubCleaner{},
	}
	deps := workflow.Dependencies{
		Extractor: h.extractor,
		Converter: h.converter,
		Cleaner:   h.cleaner,
		Resetter:  reset.New(logging.NewNop()),
		History:   testsupport.MustOpenHistory(t, cfg),
	}
	h.manager = workflow.NewManagerWithDependencies(cfg, logging.NewNop(), deps)
	return h
}

func (h *harness) wait(t *testing.T) workflow.Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	outcome, err := h.manager.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	return outcome
}
