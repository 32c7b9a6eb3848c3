package workflow

import (
	"log/slog"

	"psxinstall/internal/history"
	"psxinstall/internal/logging"
)

// openTranscript returns nil, after logging why, when the run log cannot be created.
func (m *Manager) openTranscript(runID string, kind history.Kind) *Transcript {
	t, err := m.runLogs.Open(runID, kind)
	if err != nil {
		m.logger.Warn("run transcript unavailable",
			logging.String(logging.FieldRunID, runID),
			logging.Error(err),
			logging.String(logging.FieldEventType, "run_log_unavailable"),
			logging.String(logging.FieldErrorHint, "check log_dir permissions"),
		)
		return nil
	}
	return t
}

// runLogger tees the manager logger into the run transcript.
func (m *Manager) runLogger(t *Transcript) *slog.Logger {
	if t == nil || t.handler == nil {
		return m.logger
	}
	return logging.TeeLogger(m.logger, t.handler.WithAttrs([]slog.Attr{
		slog.String(logging.FieldComponent, "workflow"),
	}))
}
