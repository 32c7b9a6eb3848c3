package workflow

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"psxinstall/internal/logging"
	"psxinstall/internal/services"
	"psxinstall/internal/stage"
)

func (m *Manager) runInstall(r *run, req InstallRequest) error {
	if err := m.transition(r, stage.StateExtracting); err != nil {
		return err
	}
	for _, disc := range req.discs() {
		r.reporter.AppendLog(fmt.Sprintf("Starting %s extraction...", disc.Label))
		if err := m.deps.Extractor.Extract(r.ctx, disc, m.layout.DataDir, r.reporter); err != nil {
			return err
		}
	}

	if !req.ConvertMedia {
		r.reporter.AppendLog("Media conversion disabled. Skipping.")
		return m.complete(r, "Installation complete!", true)
	}
	if err := m.convertMedia(r); err != nil {
		return err
	}
	if err := m.transition(r, stage.StateCleaningUp); err != nil {
		return err
	}
	m.cleanup(r)
	return m.complete(r, "Installation complete!", true)
}

func (m *Manager) runConversion(r *run) error {
	if err := m.convertMedia(r); err != nil {
		return err
	}
	return m.complete(r, "Media conversion complete!", m.layout.Installed())
}

func (m *Manager) runCleanup(r *run) error {
	if err := m.transition(r, stage.StateCleaningUp); err != nil {
		return err
	}
	r.reporter.SetProgress(0.5)
	m.cleanup(r)
	return m.complete(r, "Cleanup complete!", m.layout.Installed())
}

func (m *Manager) runReset(r *run) error {
	if err := m.transition(r, stage.StateResetting); err != nil {
		return err
	}
	r.reporter.AppendLog("Deleting files not in the baseline manifest...")
	result, err := m.deps.Resetter.Run(r.ctx, m.layout.GameDir, m.layout.Manifest)
	if err != nil {
		return err
	}
	r.outcome.Deleted = result.Tally
	if err := m.transition(r, stage.StateComplete); err != nil {
		return err
	}
	status := fmt.Sprintf("Reset complete. Deleted %d files (%.1f MB)", result.Files, result.Megabytes())
	r.logger.Info("reset complete",
		logging.Int("files", result.Files),
		logging.String("size", humanize.IBytes(uint64(result.Bytes))),
		logging.String(logging.FieldEventType, "reset_complete"),
	)
	// Restore wipes the session log; the transcript keeps the full record.
	r.reporter.transcript.WriteLine(status)
	m.session.Restore(status, false)
	return nil
}

// convertMedia runs both conversion phases. Per-file failures are absorbed by
// the converter; an error here is structural.
func (m *Manager) convertMedia(r *run) error {
	if err := m.transition(r, stage.StateConvertingPrimary); err != nil {
		return err
	}
	primary, err := m.deps.Converter.ConvertPrimary(r.ctx, m.layout.GameDir, r.reporter)
	r.outcome.Primary = primary
	if err != nil {
		return err
	}

	if err := m.transition(r, stage.StateConvertingSecondary); err != nil {
		return err
	}
	secondary, err := m.deps.Converter.ConvertSecondary(r.ctx, m.layout.GameDir, r.reporter)
	r.outcome.Secondary = secondary
	return err
}

// cleanup never fails a run; the engine logs and counts its own misses.
func (m *Manager) cleanup(r *run) {
	r.reporter.SetStatus("Cleaning up unnecessary files...")
	r.reporter.AppendLog("Cleaning up unnecessary files...")
	result := m.deps.Cleaner.Run(r.ctx, m.layout.DataDir)
	r.outcome.Deleted = result.Tally
	r.reporter.AppendLog(fmt.Sprintf("Deleted %d files (%s)", result.Files, humanize.IBytes(uint64(result.Bytes))))
}

func (m *Manager) complete(r *run, status string, installed bool) error {
	if err := m.transition(r, stage.StateComplete); err != nil {
		return err
	}
	r.reporter.AppendLog(status)
	m.session.SetInstalled(installed)
	m.session.Finish(status)
	return nil
}

// transition moves the run to next. Cancellation of the run context is
// checked here so a cancelled run stops at the next phase boundary.
func (m *Manager) transition(r *run, next stage.State) error {
	if next != stage.StateFailed {
		if err := r.ctx.Err(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	current := m.state
	if !stage.CanTransition(current, next) {
		m.mu.Unlock()
		return services.Wrap(services.ErrPrecondition, "workflow", "transition",
			fmt.Sprintf("%s -> %s not allowed", current, next), nil)
	}
	m.state = next
	m.stateLog = append(m.stateLog, next)
	m.mu.Unlock()

	r.ctx = services.WithStage(r.ctx, string(next))
	r.logger = logging.WithContext(r.ctx, r.base)
	r.logger.Info("state changed",
		logging.String("from", string(current)),
		logging.String("to", string(next)),
		logging.String(logging.FieldEventType, "state_changed"),
	)
	r.record.State = next
	if next != stage.StateFailed && !next.Terminal() {
		m.recordUpdate(r)
	}
	return nil
}
