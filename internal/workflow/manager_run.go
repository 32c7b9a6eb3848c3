package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"psxinstall/internal/history"
	"psxinstall/internal/logging"
	"psxinstall/internal/preflight"
	"psxinstall/internal/services"
	"psxinstall/internal/stage"
)

// noPreflight marks operations that need no readiness checks.
const noPreflight preflight.Scope = -1

// run is the per-run bookkeeping shared by the stage bodies.
type run struct {
	id       string
	kind     history.Kind
	ctx      context.Context
	base     *slog.Logger
	logger   *slog.Logger
	record   *history.Record
	reporter *runReporter
	outcome  Outcome
}

// StartInstall validates req and launches an install run in the background.
// It returns the run id, or an error when the run could not start.
func (m *Manager) StartInstall(ctx context.Context, req InstallRequest) (string, error) {
	if strings.TrimSpace(req.DiscOne) == "" {
		err := services.WithUserMessage(
			services.Wrap(services.ErrPrecondition, "workflow", "start install", "disc 1 image path required", nil),
			"Please select Disc 1.",
		)
		if !m.isRunning() {
			m.session.SetError(services.UserMessage(err))
		}
		return "", err
	}
	rec := &history.Record{
		Kind:         history.KindInstall,
		DiscOne:      req.DiscOne,
		ConvertMedia: req.ConvertMedia,
	}
	if !req.SingleDisc {
		rec.DiscTwo = req.DiscTwo
	}
	return m.launch(ctx, rec, preflight.ScopeInstall, "Starting installation...", func(r *run) error {
		return m.runInstall(r, req)
	})
}

// StartMediaConversion launches primary then secondary conversion on the
// already-extracted game tree.
func (m *Manager) StartMediaConversion(ctx context.Context) (string, error) {
	rec := &history.Record{Kind: history.KindConvert, ConvertMedia: true}
	return m.launch(ctx, rec, preflight.ScopeConvert, "Starting media conversion...", m.runConversion)
}

// RunCleanup launches a cleanup of installer leftovers.
func (m *Manager) RunCleanup(ctx context.Context) (string, error) {
	rec := &history.Record{Kind: history.KindCleanup}
	return m.launch(ctx, rec, noPreflight, "Cleaning up unnecessary files...", m.runCleanup)
}

// ResetInstallation launches a reset of the game tree to its baseline manifest.
func (m *Manager) ResetInstallation(ctx context.Context) (string, error) {
	rec := &history.Record{Kind: history.KindReset}
	return m.launch(ctx, rec, noPreflight, "Resetting installation...", m.runReset)
}

// Wait blocks until the active run finishes and returns its outcome. With no
// active run it returns the previous outcome, if any.
func (m *Manager) Wait(ctx context.Context) (Outcome, error) {
	m.mu.RLock()
	done := m.done
	m.mu.RUnlock()
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.hasLast {
		return Outcome{}, errors.New("no run has been started")
	}
	return m.last, nil
}

func (m *Manager) launch(ctx context.Context, rec *history.Record, scope preflight.Scope, status string, body func(*run) error) (string, error) {
	if err := m.acquire(); err != nil {
		return "", err
	}
	if err := m.cfg.EnsureDirectories(); err != nil {
		m.release()
		return "", services.Wrap(services.ErrConfiguration, "workflow", "ensure directories", "", err)
	}
	if err := m.lockDataDir(); err != nil {
		m.release()
		return "", err
	}
	if scope != noPreflight {
		if err := m.runPreflightChecks(scope); err != nil {
			m.unlockDataDir()
			m.release()
			m.session.SetError(services.UserMessage(err))
			return "", err
		}
	}

	r := m.begin(ctx, rec, status)
	go func() {
		err := body(r)
		m.finish(r, err)
	}()
	return r.id, nil
}

// acquire reserves the manager for one run.
func (m *Manager) acquire() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return services.WithUserMessage(
			services.Wrap(services.ErrBusy, "workflow", "start", fmt.Sprintf("run %s in progress", m.runID), nil),
			"An operation is already running.",
		)
	}
	m.running = true
	m.done = make(chan struct{})
	return nil
}

func (m *Manager) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	if m.done != nil {
		close(m.done)
		m.done = nil
	}
}

func (m *Manager) lockDataDir() error {
	locked, err := m.lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "workflow", "lock data dir", m.lock.Path(), err)
	}
	if !locked {
		return services.WithUserMessage(
			services.Wrap(services.ErrBusy, "workflow", "lock data dir", m.lock.Path()+" held by another process", nil),
			"Another psxinstall process is using this data directory.",
		)
	}
	return nil
}

func (m *Manager) unlockDataDir() {
	if err := m.lock.Unlock(); err != nil {
		m.logger.Warn("failed to release run lock",
			logging.String("path", m.lock.Path()),
			logging.Error(err),
			logging.String(logging.FieldEventType, "run_lock_release_failed"),
			logging.String(logging.FieldErrorHint, "remove the lock file if no psxinstall process is running"),
		)
	}
}

func (m *Manager) begin(ctx context.Context, rec *history.Record, status string) *run {
	id := uuid.NewString()
	rec.ID = id
	rec.State = stage.StateIdle
	rec.StartedAt = time.Now().UTC()

	ctx = services.WithRunID(ctx, id)
	ctx = services.WithOperation(ctx, string(rec.Kind))

	transcript := m.openTranscript(id, rec.Kind)
	base := m.runLogger(transcript)
	logger := logging.WithContext(ctx, base)

	m.mu.Lock()
	m.runID = id
	m.state = stage.StateIdle
	m.stateLog = []stage.State{stage.StateIdle}
	m.mu.Unlock()

	m.session.Begin(status)
	r := &run{
		id:       id,
		kind:     rec.Kind,
		ctx:      ctx,
		base:     base,
		logger:   logger,
		record:   rec,
		reporter: &runReporter{Session: m.session, transcript: transcript},
		outcome:  Outcome{RunID: id, Kind: rec.Kind, Started: rec.StartedAt},
	}
	r.reporter.AppendLog(status)
	logger.Info("run started",
		logging.String("kind", string(rec.Kind)),
		logging.String(logging.FieldEventType, "run_started"),
	)
	m.recordBegin(r)
	return r
}

func (m *Manager) finish(r *run, err error) {
	if err != nil {
		err = m.handleRunFailure(r, err)
	}
	finished := time.Now().UTC()
	r.outcome.Finished = finished
	r.outcome.State = m.State()
	r.outcome.Err = err
	r.record.State = r.outcome.State
	r.record.FinishedAt = &finished
	r.record.PrimaryTotal = r.outcome.Primary.Total
	r.record.PrimarySucceeded = r.outcome.Primary.Succeeded
	r.record.SecondaryTotal = r.outcome.Secondary.Total
	r.record.SecondarySucceeded = r.outcome.Secondary.Succeeded
	r.record.FilesDeleted = r.outcome.Deleted.Files
	r.record.BytesDeleted = r.outcome.Deleted.Bytes
	m.recordUpdate(r)

	r.logger.Info("run finished",
		logging.String("state", string(r.outcome.State)),
		logging.Duration("elapsed", finished.Sub(r.outcome.Started)),
		logging.String(logging.FieldEventType, "run_finished"),
	)
	r.reporter.close(r.logger)

	m.mu.Lock()
	m.last = r.outcome
	m.lastErr = err
	m.hasLast = true
	m.mu.Unlock()
	// Waiters may start the next run as soon as release returns.
	m.unlockDataDir()
	m.release()
}

func (m *Manager) recordBegin(r *run) {
	if m.deps.History == nil {
		return
	}
	if err := m.deps.History.Begin(r.ctx, r.record); err != nil {
		logging.WarnWithContext(r.logger, "failed to record run start", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run missing from history"),
		)
	}
}

func (m *Manager) recordUpdate(r *run) {
	if m.deps.History == nil {
		return
	}
	// The run context may already be cancelled; the final row is still wanted.
	ctx := context.WithoutCancel(r.ctx)
	if err := m.deps.History.Update(ctx, r.record); err != nil {
		logging.WarnWithContext(r.logger, "failed to record run state", "history_write_failed",
			logging.String("state", string(r.record.State)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "history shows a stale state for this run"),
		)
	}
}

func (m *Manager) isRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}
