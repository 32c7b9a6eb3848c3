package workflow

import (
	"psxinstall/internal/logging"
	"psxinstall/internal/preflight"
	"psxinstall/internal/services"
)

// runPreflightChecks validates tool readiness before a run starts.
func (m *Manager) runPreflightChecks(scope preflight.Scope) error {
	if m.deps.Preflight == nil {
		return nil
	}
	if err := m.deps.Preflight(scope); err != nil {
		m.logger.Error("preflight checks failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
		)
		return err
	}
	m.logger.Debug("preflight checks passed", logging.String(logging.FieldEventType, "preflight_passed"))
	return nil
}
