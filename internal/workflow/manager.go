package workflow

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"psxinstall/internal/cleanup"
	"psxinstall/internal/config"
	"psxinstall/internal/convert"
	"psxinstall/internal/extract"
	"psxinstall/internal/gamedir"
	"psxinstall/internal/logging"
	"psxinstall/internal/preflight"
	"psxinstall/internal/reset"
	"psxinstall/internal/services/jpsxdec"
	"psxinstall/internal/session"
	"psxinstall/internal/stage"
)

// LockFileName is the run lock held in the data directory while a run is active.
const LockFileName = ".psxinstall.lock"

// Manager coordinates install, conversion, cleanup, and reset runs.
type Manager struct {
	cfg     *config.Config
	layout  gamedir.Layout
	logger  *slog.Logger
	deps    Dependencies
	session *session.Session
	lock    *flock.Flock
	runLogs *RunLog

	mu       sync.RWMutex
	running  bool
	state    stage.State
	runID    string
	done     chan struct{}
	last     Outcome
	lastErr  error
	hasLast  bool
	stateLog []stage.State
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithSession makes the manager drive sess instead of a fresh session.
func WithSession(sess *session.Session) ManagerOption {
	return func(m *Manager) {
		if sess != nil {
			m.session = sess
		}
	}
}

// WithRecorder records runs in rec.
func WithRecorder(rec Recorder) ManagerOption {
	return func(m *Manager) {
		m.deps.History = rec
	}
}

// NewManager builds a manager wired to the jPSXdec decoder described by cfg.
func NewManager(cfg *config.Config, logger *slog.Logger, opts ...ManagerOption) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("workflow: config is nil")
	}
	decoder, err := jpsxdec.New(cfg.JavaBinary(), cfg.Paths.ToolJar)
	if err != nil {
		return nil, err
	}
	deps := Dependencies{
		Extractor: extract.New(decoder, logger),
		Converter: convert.New(decoder, cfg.WorkerCount(), logger),
		Cleaner:   cleanup.New(logger),
		Resetter:  reset.New(logger),
		Preflight: func(scope preflight.Scope) error {
			return preflight.Verify(preflight.RunAll(cfg, scope))
		},
	}
	return NewManagerWithDependencies(cfg, logger, deps, opts...), nil
}

// NewManagerWithDependencies constructs a manager around explicit components.
func NewManagerWithDependencies(cfg *config.Config, logger *slog.Logger, deps Dependencies, opts ...ManagerOption) *Manager {
	layout := gamedir.FromConfig(cfg)
	m := &Manager{
		cfg:     cfg,
		layout:  layout,
		logger:  logging.NewComponentLogger(logger, "workflow"),
		deps:    deps,
		session: session.New(),
		lock:    flock.New(filepath.Join(cfg.Paths.DataDir, LockFileName)),
		runLogs: NewRunLog(cfg),
		state:   stage.StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.session.SetInstalled(layout.Installed())
	return m
}

// Session returns the observable session the manager drives.
func (m *Manager) Session() *session.Session {
	return m.session
}

// Layout returns the install layout runs operate on.
func (m *Manager) Layout() gamedir.Layout {
	return m.layout
}
