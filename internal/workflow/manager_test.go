package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"psxinstall/internal/extract"
	"psxinstall/internal/history"
	"psxinstall/internal/logging"
	"psxinstall/internal/preflight"
	"psxinstall/internal/reset"
	"psxinstall/internal/services"
	"psxinstall/internal/services/jpsxdec"
	"psxinstall/internal/stage"
	"psxinstall/internal/testsupport"
	"psxinstall/internal/workflow"
)

func statesEqual(got []stage.State, want ...stage.State) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestInstallRunsFullPipeline(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	runID, err := h.manager.StartInstall(ctx, workflow.InstallRequest{
		DiscOne:      "/discs/d1.bin",
		DiscTwo:      "/discs/d2.bin",
		ConvertMedia: true,
	})
	if err != nil {
		t.Fatalf("StartInstall: %v", err)
	}
	outcome := h.wait(t)
	if outcome.RunID != runID || !outcome.Succeeded() || outcome.Err != nil {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	want := []stage.State{
		stage.StateIdle,
		stage.StateExtracting,
		stage.StateConvertingPrimary,
		stage.StateConvertingSecondary,
		stage.StateCleaningUp,
		stage.StateComplete,
	}
	if got := h.manager.Transitions(); !statesEqual(got, want...) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}

	calls := h.extractor.Calls()
	if len(calls) != 2 || calls[0].Label != "Disc 1" || calls[1].Label != "Disc 2" {
		t.Fatalf("unexpected extraction calls %+v", calls)
	}
	if h.cleaner.Calls() != 1 {
		t.Fatalf("expected one cleanup, got %d", h.cleaner.Calls())
	}

	snap := h.manager.Session().Snapshot()
	if snap.Running || snap.Progress != 1 || snap.Status != "Installation complete!" || !snap.Installed {
		t.Fatalf("unexpected session %+v", snap)
	}
	for _, line := range []string{"Starting Disc 1 extraction...", "Starting Disc 2 extraction...", "Deleted 3 files"} {
		if !strings.Contains(snap.Log, line) {
			t.Fatalf("session log missing %q:\n%s", line, snap.Log)
		}
	}

	store := testsupport.MustOpenHistory(t, h.cfg)
	rec, err := store.Get(ctx, runID)
	if err != nil {
		t.Fatalf("history Get: %v", err)
	}
	if rec.State != stage.StateComplete || rec.Kind != history.KindInstall {
		t.Fatalf("unexpected history record %+v", rec)
	}
	if rec.PrimaryTotal != 5 || rec.PrimarySucceeded != 4 || rec.SecondarySucceeded != 2 || rec.FilesDeleted != 3 {
		t.Fatalf("counts not recorded: %+v", rec)
	}
	if rec.FinishedAt == nil {
		t.Fatal("expected finish time")
	}

	transcripts, err := filepath.Glob(filepath.Join(h.cfg.Paths.LogDir, "runs", "*-install-*.log"))
	if err != nil || len(transcripts) != 1 {
		t.Fatalf("expected one transcript, got %v (%v)", transcripts, err)
	}
	body, err := os.ReadFile(transcripts[0])
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if !strings.Contains(string(body), "Installation complete!") {
		t.Fatalf("transcript missing completion line:\n%s", body)
	}
}

func TestInstallDiscOneIndexFailureHaltsPipeline(t *testing.T) {
	h := newHarness(t)
	h.extractor.failOn = "Disc 1"

	runID, err := h.manager.StartInstall(context.Background(), workflow.InstallRequest{
		DiscOne:      "/discs/d1.bin",
		DiscTwo:      "/discs/d2.bin",
		ConvertMedia: true,
	})
	if err != nil {
		t.Fatalf("StartInstall: %v", err)
	}
	outcome := h.wait(t)

	if outcome.State != stage.StateFailed || h.manager.State() != stage.StateFailed {
		t.Fatalf("expected failed state, got %s", outcome.State)
	}
	if !errors.Is(outcome.Err, services.ErrExternalTool) {
		t.Fatalf("expected tool failure, got %v", outcome.Err)
	}
	if calls := h.extractor.Calls(); len(calls) != 1 {
		t.Fatalf("disc 2 must not be attempted, got %d calls", len(calls))
	}
	if p, s := h.converter.counts(); p != 0 || s != 0 {
		t.Fatalf("no conversion may run, got primary=%d secondary=%d", p, s)
	}
	if h.cleaner.Calls() != 0 {
		t.Fatal("cleanup must not run after a failed extraction")
	}
	if got := h.manager.Transitions(); !statesEqual(got, stage.StateIdle, stage.StateExtracting, stage.StateFailed) {
		t.Fatalf("unexpected transitions %v", got)
	}

	snap := h.manager.Session().Snapshot()
	if snap.Running {
		t.Fatal("running flag must clear on failure")
	}
	if snap.Error != "Failed to index Disc 1. Is it a valid PSX disc image?" {
		t.Fatalf("unexpected session error %q", snap.Error)
	}
	if snap.Status != "Indexing Disc 1..." {
		t.Fatalf("status should freeze at the failing phase, got %q", snap.Status)
	}
	if snap.Installed {
		t.Fatal("failed install must not be marked installed")
	}

	rec, err := testsupport.MustOpenHistory(t, h.cfg).Get(context.Background(), runID)
	if err != nil {
		t.Fatalf("history Get: %v", err)
	}
	if rec.State != stage.StateFailed || rec.ErrorKind != services.KindTool {
		t.Fatalf("unexpected history record %+v", rec)
	}
}

func TestInstallWithoutConversionSkipsToComplete(t *testing.T) {
	h := newHarness(t)
	if _, err := h.manager.StartInstall(context.Background(), workflow.InstallRequest{DiscOne: "/d1.bin", SingleDisc: true}); err != nil {
		t.Fatalf("StartInstall: %v", err)
	}
	outcome := h.wait(t)
	if !outcome.Succeeded() {
		t.Fatalf("expected success, got %+v", outcome)
	}
	if got := h.manager.Transitions(); !statesEqual(got, stage.StateIdle, stage.StateExtracting, stage.StateComplete) {
		t.Fatalf("unexpected transitions %v", got)
	}
	if p, _ := h.converter.counts(); p != 0 {
		t.Fatal("conversion must be skipped")
	}
	if h.cleaner.Calls() != 0 {
		t.Fatal("cleanup follows conversion only")
	}
}

func TestSingleDiscIgnoresDiscTwo(t *testing.T) {
	h := newHarness(t)
	req := workflow.InstallRequest{DiscOne: "/d1.bin", DiscTwo: "/d2.bin", SingleDisc: true}
	if _, err := h.manager.StartInstall(context.Background(), req); err != nil {
		t.Fatalf("StartInstall: %v", err)
	}
	h.wait(t)
	if calls := h.extractor.Calls(); len(calls) != 1 {
		t.Fatalf("expected one disc, got %+v", calls)
	}
}

func TestStartInstallRequiresDiscOne(t *testing.T) {
	h := newHarness(t)
	_, err := h.manager.StartInstall(context.Background(), workflow.InstallRequest{DiscOne: "  ", ConvertMedia: true})
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected precondition failure, got %v", err)
	}
	if h.manager.State() != stage.StateIdle {
		t.Fatalf("extraction must never be entered, state %s", h.manager.State())
	}
	if len(h.extractor.Calls()) != 0 {
		t.Fatal("extractor must not run")
	}
	if snap := h.manager.Session().Snapshot(); snap.Error != "Please select Disc 1." || snap.Running {
		t.Fatalf("unexpected session %+v", snap)
	}
}

func TestSecondRunIsRejectedWhileBusy(t *testing.T) {
	h := newHarness(t)
	h.extractor.block = make(chan struct{})
	h.extractor.started = make(chan struct{}, 1)

	if _, err := h.manager.StartInstall(context.Background(), workflow.InstallRequest{DiscOne: "/d1.bin", SingleDisc: true}); err != nil {
		t.Fatalf("StartInstall: %v", err)
	}
	select {
	case <-h.extractor.started:
	case <-time.After(5 * time.Second):
		t.Fatal("extraction never started")
	}

	if !h.manager.Session().Snapshot().Running {
		t.Fatal("session should report running")
	}
	if _, err := h.manager.RunCleanup(context.Background()); !errors.Is(err, services.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if status := h.manager.Status(); !status.Running || status.State != stage.StateExtracting {
		t.Fatalf("unexpected status %+v", status)
	}

	close(h.extractor.block)
	if outcome := h.wait(t); !outcome.Succeeded() {
		t.Fatalf("blocked run should finish, got %+v", outcome)
	}
	if _, err := h.manager.RunCleanup(context.Background()); err != nil {
		t.Fatalf("run after completion should start: %v", err)
	}
	h.wait(t)
}

func TestLockHeldByAnotherProcessIsBusy(t *testing.T) {
	h := newHarness(t)
	if err := h.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	other := flock.New(filepath.Join(h.cfg.Paths.DataDir, workflow.LockFileName))
	locked, err := other.TryLock()
	if err != nil || !locked {
		t.Fatalf("TryLock: %v %v", locked, err)
	}
	defer other.Unlock()

	_, err = h.manager.StartMediaConversion(context.Background())
	if !errors.Is(err, services.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if h.manager.Status().Running {
		t.Fatal("manager must not stay reserved after a lock failure")
	}
}

func TestDataDirLockReleasedBeforeWaitReturns(t *testing.T) {
	h := newHarness(t)
	other := flock.New(filepath.Join(h.cfg.Paths.DataDir, workflow.LockFileName))
	for i := 0; i < 20; i++ {
		if _, err := h.manager.RunCleanup(context.Background()); err != nil {
			t.Fatalf("run %d: RunCleanup: %v", i, err)
		}
		h.wait(t)
		locked, err := other.TryLock()
		if err != nil || !locked {
			t.Fatalf("run %d: lock still held after Wait: %v %v", i, locked, err)
		}
		if err := other.Unlock(); err != nil {
			t.Fatalf("run %d: Unlock: %v", i, err)
		}
	}
}

func TestCancelDuringExtractionReportsCancellation(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithToolJar(),
		testsupport.WithStubScript("java", "exec sleep 30"),
	)
	client, err := jpsxdec.New(cfg.JavaBinary(), cfg.Paths.ToolJar)
	if err != nil {
		t.Fatalf("jpsxdec.New: %v", err)
	}
	converter := &stubConverter{}
	mgr := workflow.NewManagerWithDependencies(cfg, logging.NewNop(), workflow.Dependencies{
		Extractor: extract.New(client, logging.NewNop()),
		Converter: converter,
		Cleaner:   &stubCleaner{},
		History:   testsupport.MustOpenHistory(t, cfg),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runID, err := mgr.StartInstall(ctx, workflow.InstallRequest{
		DiscOne:      filepath.Join(testsupport.BaseDir(cfg), "d1.bin"),
		SingleDisc:   true,
		ConvertMedia: true,
	})
	if err != nil {
		t.Fatalf("StartInstall: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for mgr.Session().Snapshot().Status != "Indexing Disc 1..." {
		if time.Now().After(deadline) {
			t.Fatal("indexing never started")
		}
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer waitCancel()
	outcome, err := mgr.Wait(waitCtx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if outcome.State != stage.StateFailed || !errors.Is(outcome.Err, context.Canceled) {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if got := services.UserMessage(outcome.Err); got != "Operation cancelled." {
		t.Fatalf("unexpected user message %q", got)
	}
	if snap := mgr.Session().Snapshot(); snap.Error != "Operation cancelled." {
		t.Fatalf("unexpected session error %q", snap.Error)
	}
	if p, _ := converter.counts(); p != 0 {
		t.Fatal("conversion must not start after cancellation")
	}
	rec, err := testsupport.MustOpenHistory(t, cfg).Get(context.Background(), runID)
	if err != nil {
		t.Fatalf("history Get: %v", err)
	}
	if rec.State != stage.StateFailed || rec.ErrorMessage != "Operation cancelled." {
		t.Fatalf("unexpected history record %+v", rec)
	}
}

func TestConversionStructuralFailureFailsRun(t *testing.T) {
	h := newHarness(t)
	h.converter.primaryErr = services.WithUserMessage(
		services.Wrap(services.ErrLaunch, "convert", "index", "RENDER0.STR", errors.New("exec: \"java\": not found")),
		"Java not found.",
	)

	if _, err := h.manager.StartMediaConversion(context.Background()); err != nil {
		t.Fatalf("StartMediaConversion: %v", err)
	}
	outcome := h.wait(t)
	if outcome.State != stage.StateFailed || services.KindOf(outcome.Err) != services.KindLaunch {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if _, s := h.converter.counts(); s != 0 {
		t.Fatal("secondary phase must not run after a structural failure")
	}
	snap := h.manager.Session().Snapshot()
	if snap.Error != "Java not found." || snap.Running {
		t.Fatalf("unexpected session %+v", snap)
	}
	if !strings.Contains(snap.Log, "Hint: ") {
		t.Fatalf("expected remediation hint in log:\n%s", snap.Log)
	}
}

func TestStandaloneConversion(t *testing.T) {
	h := newHarness(t)
	if _, err := h.manager.StartMediaConversion(context.Background()); err != nil {
		t.Fatalf("StartMediaConversion: %v", err)
	}
	outcome := h.wait(t)
	want := []stage.State{stage.StateIdle, stage.StateConvertingPrimary, stage.StateConvertingSecondary, stage.StateComplete}
	if got := h.manager.Transitions(); !statesEqual(got, want...) {
		t.Fatalf("transitions = %v", got)
	}
	if outcome.Primary.Succeeded != 4 || outcome.Secondary.Total != 2 {
		t.Fatalf("summaries not carried: %+v", outcome)
	}
	if h.cleaner.Calls() != 0 {
		t.Fatal("standalone conversion does not clean up")
	}
	if snap := h.manager.Session().Snapshot(); snap.Status != "Media conversion complete!" || snap.Progress != 1 {
		t.Fatalf("unexpected session %+v", snap)
	}
}

func TestRunCleanup(t *testing.T) {
	h := newHarness(t)
	if _, err := h.manager.RunCleanup(context.Background()); err != nil {
		t.Fatalf("RunCleanup: %v", err)
	}
	outcome := h.wait(t)
	if outcome.Deleted.Files != 3 || outcome.Deleted.Bytes != 300 {
		t.Fatalf("unexpected deletion totals %+v", outcome.Deleted)
	}
	if got := h.manager.Transitions(); !statesEqual(got, stage.StateIdle, stage.StateCleaningUp, stage.StateComplete) {
		t.Fatalf("unexpected transitions %v", got)
	}
	if snap := h.manager.Session().Snapshot(); snap.Status != "Cleanup complete!" || snap.Progress != 1 {
		t.Fatalf("unexpected session %+v", snap)
	}
}

func TestResetInstallation(t *testing.T) {
	h := newHarness(t, testsupport.WithManifest("DRIVER2/FRONTEND.BIN", "DRIVER2/LEVELS/NY.D2L"))
	testsupport.WriteInstalledTree(t, h.cfg.Paths.GameDir)
	extra := filepath.Join(h.cfg.Paths.GameDir, "FMV", "RENDER0.avi")
	testsupport.WriteFile(t, extra, 2048)

	// A fresh manager picks up the installed tree.
	mgr := workflow.NewManagerWithDependencies(h.cfg, logging.NewNop(), workflow.Dependencies{
		Resetter: reset.New(logging.NewNop()),
	})
	if !mgr.Session().Snapshot().Installed {
		t.Fatal("expected installed tree to be detected")
	}
	mgr.Session().AppendLog("previous run output")

	if _, err := mgr.ResetInstallation(context.Background()); err != nil {
		t.Fatalf("ResetInstallation: %v", err)
	}
	outcome, err := mgr.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !outcome.Succeeded() || outcome.Deleted.Files != 1 || outcome.Deleted.Bytes != 2048 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if testsupport.Exists(t, extra) {
		t.Fatal("extra file should be deleted")
	}
	if !testsupport.Exists(t, filepath.Join(h.cfg.Paths.GameDir, "FRONTEND.BIN")) {
		t.Fatal("manifest file must survive")
	}

	snap := mgr.Session().Snapshot()
	if snap.Status != "Reset complete. Deleted 1 files (0.0 MB)" {
		t.Fatalf("unexpected status %q", snap.Status)
	}
	if snap.Installed || snap.Progress != 0 || snap.Log != "" || snap.Error != "" || snap.Running {
		t.Fatalf("reset should restore an idle session, got %+v", snap)
	}
}

func TestResetWithoutManifestFails(t *testing.T) {
	h := newHarness(t)
	testsupport.WriteInstalledTree(t, h.cfg.Paths.GameDir)
	extra := filepath.Join(h.cfg.Paths.GameDir, "XA", "XA1.wav")
	testsupport.WriteFile(t, extra, 10)

	if _, err := h.manager.ResetInstallation(context.Background()); err != nil {
		t.Fatalf("ResetInstallation: %v", err)
	}
	outcome := h.wait(t)
	if outcome.State != stage.StateFailed || !errors.Is(outcome.Err, services.ErrManifestUnavailable) {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if !testsupport.Exists(t, extra) {
		t.Fatal("no file may be deleted without a manifest")
	}
	if snap := h.manager.Session().Snapshot(); !strings.HasPrefix(snap.Error, "Reset failed") || snap.Running {
		t.Fatalf("unexpected session %+v", snap)
	}
}

func TestPreflightFailureBlocksStart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var scopes []preflight.Scope
	mgr := workflow.NewManagerWithDependencies(cfg, logging.NewNop(), workflow.Dependencies{
		Extractor: &stubExtractor{},
		Preflight: func(scope preflight.Scope) error {
			scopes = append(scopes, scope)
			return preflight.Verify([]preflight.Result{{Name: "Java", Detail: "missing", Marker: services.ErrLaunch}})
		},
	})

	_, err := mgr.StartInstall(context.Background(), workflow.InstallRequest{DiscOne: "/d1.bin"})
	if !errors.Is(err, services.ErrLaunch) {
		t.Fatalf("expected launch failure, got %v", err)
	}
	if len(scopes) != 1 || scopes[0] != preflight.ScopeInstall {
		t.Fatalf("unexpected scopes %v", scopes)
	}
	if mgr.Status().Running || mgr.State() != stage.StateIdle {
		t.Fatal("manager must stay idle")
	}
	if snap := mgr.Session().Snapshot(); !strings.HasPrefix(snap.Error, "Java not found.") {
		t.Fatalf("unexpected session error %q", snap.Error)
	}
}

func TestWaitWithoutRun(t *testing.T) {
	h := newHarness(t)
	if _, err := h.manager.Wait(context.Background()); err == nil {
		t.Fatal("expected error when nothing ran")
	}
}

func TestSessionSubscribersSeeCompletion(t *testing.T) {
	h := newHarness(t)
	updates, cancel := h.manager.Session().Subscribe()
	defer cancel()

	if _, err := h.manager.RunCleanup(context.Background()); err != nil {
		t.Fatalf("RunCleanup: %v", err)
	}
	h.wait(t)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case snap := <-updates:
			if snap.Status == "Cleanup complete!" && !snap.Running {
				return
			}
		case <-deadline:
			t.Fatal("subscriber never saw completion")
		}
	}
}
