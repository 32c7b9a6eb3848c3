package workflow

import (
	"context"
	"errors"
	"strings"

	"psxinstall/internal/logging"
	"psxinstall/internal/services"
	"psxinstall/internal/stage"
)

const cancelledMessage = "Operation cancelled."

// handleRunFailure moves the run to Failed and surfaces err on the session.
// Progress and status keep their last values so the user sees where it stopped.
// The returned error carries the display sentence that was shown.
func (m *Manager) handleRunFailure(r *run, runErr error) error {
	message := classifyRunFailure(runErr)
	kind := services.KindOf(runErr)
	if errors.Is(runErr, context.Canceled) {
		message = cancelledMessage
		runErr = services.WithUserMessage(runErr, message)
	}

	if err := m.transition(r, stage.StateFailed); err != nil {
		r.logger.Debug("failed state not reachable", logging.Error(err))
	}
	r.record.ErrorKind = kind
	r.record.ErrorMessage = message

	logging.ErrorWithContext(r.logger, "run failed", "run_failed",
		logging.String("error_kind", string(kind)),
		logging.String("error_message", message),
		logging.String(logging.FieldErrorHint, services.Hint(runErr)),
		logging.Error(runErr),
	)
	r.reporter.AppendLog("Error: " + message)
	if hint := services.Hint(runErr); hint != "" && !strings.Contains(message, hint) {
		r.reporter.AppendLog("Hint: " + hint)
	}
	m.session.Fail(message)
	return runErr
}

func classifyRunFailure(err error) string {
	if err == nil {
		return "Operation failed without error detail."
	}
	if message := strings.TrimSpace(services.UserMessage(err)); message != "" {
		return message
	}
	return "Operation failed."
}
