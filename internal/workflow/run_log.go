package workflow

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"psxinstall/internal/config"
	"psxinstall/internal/history"
	"psxinstall/internal/logging"
	"psxinstall/internal/session"
)

// RunLog manages the plain-text transcript written for each run. The session
// log keeps only a bounded tail; the transcript keeps everything.
type RunLog struct {
	baseDir string
	level   string
}

// NewRunLog creates a RunLog rooted at <log_dir>/runs.
func NewRunLog(cfg *config.Config) *RunLog {
	r := &RunLog{level: "info"}
	if cfg != nil {
		if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
			r.baseDir = filepath.Join(dir, "runs")
		}
		if lvl := strings.TrimSpace(cfg.Logging.Level); lvl != "" {
			r.level = lvl
		}
	}
	return r
}

// Dir returns the transcript directory, or "" when transcripts are disabled.
func (r *RunLog) Dir() string {
	if r == nil {
		return ""
	}
	return r.baseDir
}

// Open creates the transcript for one run.
func (r *RunLog) Open(runID string, kind history.Kind) (*Transcript, error) {
	if r == nil || r.baseDir == "" {
		return nil, fmt.Errorf("run log directory not configured")
	}
	if err := os.MkdirAll(r.baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure run log directory: %w", err)
	}
	path := filepath.Join(r.baseDir, r.filename(runID, kind))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	t := &Transcript{path: path, file: file}
	logger, err := logging.New(logging.Options{
		Level:  r.level,
		Format: "console",
		Output: t,
	})
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	t.handler = logger.Handler()
	return t, nil
}

func (r *RunLog) filename(runID string, kind history.Kind) string {
	timestamp := time.Now().UTC().Format("20060102T150405")
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s-%s-%s.log", timestamp, kind, short)
}

// Transcript is one run's log file. Decoder output and structured records
// are interleaved in arrival order. A nil Transcript discards writes.
type Transcript struct {
	path    string
	mu      sync.Mutex
	file    *os.File
	handler slog.Handler
}

// Path returns the transcript location.
func (t *Transcript) Path() string {
	if t == nil {
		return ""
	}
	return t.path
}

// Write implements io.Writer for the structured log handler.
func (t *Transcript) Write(p []byte) (int, error) {
	if t == nil {
		return len(p), nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return len(p), nil
	}
	return t.file.Write(p)
}

// WriteLine appends text, adding a trailing newline when missing.
func (t *Transcript) WriteLine(text string) {
	if t == nil {
		return
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, _ = t.Write([]byte(text))
}

// Close flushes and closes the file.
func (t *Transcript) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}

// runReporter feeds the session and mirrors every log line to the transcript.
type runReporter struct {
	*session.Session
	transcript *Transcript
}

func (r *runReporter) AppendLog(text string) {
	r.Session.AppendLog(text)
	r.transcript.WriteLine(text)
}

func (r *runReporter) close(logger *slog.Logger) {
	if r.transcript == nil {
		return
	}
	if err := r.transcript.Close(); err != nil {
		logger.Warn("failed to close run transcript",
			logging.String("path", r.transcript.Path()),
			logging.Error(err),
			logging.String(logging.FieldEventType, "run_log_close_failed"),
			logging.String(logging.FieldErrorHint, "check free space in the log directory"),
		)
	}
}
