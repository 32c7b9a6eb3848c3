package workflow

import (
	"psxinstall/internal/session"
	"psxinstall/internal/stage"
)

// StatusSummary is a point-in-time view of the manager.
type StatusSummary struct {
	Running   bool
	State     stage.State
	RunID     string
	LastError string
	Session   session.Snapshot
	Installed bool
}

// Status returns the latest workflow information.
func (m *Manager) Status() StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{
		Running: m.running,
		State:   m.state,
		RunID:   m.runID,
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	m.mu.RUnlock()

	summary.Session = m.session.Snapshot()
	summary.Installed = m.layout.Installed()
	return summary
}

// State returns the current state of the active or most recent run.
func (m *Manager) State() stage.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Transitions returns the states the active or most recent run passed through.
func (m *Manager) Transitions() []stage.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]stage.State, len(m.stateLog))
	copy(out, m.stateLog)
	return out
}
