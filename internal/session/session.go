package session

import (
	"strings"
	"sync"
	"unicode/utf8"
)

// DefaultLogLimit is the trailing number of bytes retained in the session log.
const DefaultLogLimit = 10000

// Snapshot is an immutable copy of the session state.
type Snapshot struct {
	Running   bool
	Progress  float64
	Status    string
	Error     string
	Log       string
	Installed bool
}

// Session is safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	running   bool
	progress  float64
	status    string
	errText   string
	log       strings.Builder
	logLimit  int
	installed bool

	subsMu sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
}

// New returns an idle session.
func New() *Session {
	return NewWithLogLimit(DefaultLogLimit)
}

// NewWithLogLimit returns an idle session whose log keeps the trailing limit bytes.
func NewWithLogLimit(limit int) *Session {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	return &Session{status: "Ready", logLimit: limit, subs: make(map[int]chan Snapshot)}
}

// Begin marks the session running and clears progress and error. The log is
// kept so a retry still shows the previous attempt's tail.
func (s *Session) Begin(status string) {
	s.update(func() {
		s.running = true
		s.progress = 0
		s.errText = ""
		s.status = status
	})
}

// Finish clears the running flag, pins progress to 1.0, and sets status.
func (s *Session) Finish(status string) {
	s.update(func() {
		s.running = false
		s.progress = 1
		s.status = status
	})
}

// Fail records a phase-fatal error. Progress and status freeze at their last
// values and the running flag clears so the user can retry.
func (s *Session) Fail(message string) {
	s.update(func() {
		s.running = false
		s.errText = strings.TrimSpace(message)
	})
}

// SetError records an error without changing the running flag.
func (s *Session) SetError(message string) {
	s.update(func() {
		s.errText = strings.TrimSpace(message)
	})
}

// SetStatus replaces the status line.
func (s *Session) SetStatus(status string) {
	s.update(func() {
		s.status = status
	})
}

// SetProgress sets progress explicitly, clamped to [0, 1].
func (s *Session) SetProgress(value float64) {
	s.update(func() {
		s.progress = clamp(value, 0, 1)
	})
}

// AdvanceProgress adds delta while progress sits below ceiling and never lets
// the heuristic push it past ceiling.
func (s *Session) AdvanceProgress(delta, ceiling float64) {
	if delta <= 0 {
		return
	}
	s.update(func() {
		if s.progress >= ceiling {
			return
		}
		next := s.progress + delta
		if next > ceiling {
			next = ceiling
		}
		s.progress = next
	})
}

// AppendLog appends a line to the session log, trimming it to the trailing limit.
func (s *Session) AppendLog(text string) {
	s.update(func() {
		s.log.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			s.log.WriteByte('\n')
		}
		if s.log.Len() > s.logLimit {
			tail := s.log.String()
			cut := len(tail) - s.logLimit
			for cut < len(tail) && !utf8.RuneStart(tail[cut]) {
				cut++
			}
			tail = tail[cut:]
			s.log.Reset()
			s.log.WriteString(tail)
		}
	})
}

// SetInstalled records whether the game tree is currently installed.
func (s *Session) SetInstalled(installed bool) {
	s.update(func() {
		s.installed = installed
	})
}

// Restore puts the session back to idle after a reset: zero progress, no
// error, empty log, and the supplied status.
func (s *Session) Restore(status string, installed bool) {
	s.update(func() {
		s.running = false
		s.progress = 0
		s.errText = ""
		s.status = status
		s.log.Reset()
		s.installed = installed
	})
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel that receives the latest snapshot after each
// change. Slow readers see coalesced updates, never stale ones. The returned
// function unsubscribes and closes the channel.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
			close(ch)
		})
	}
}

// update applies mutate and publishes the result. subsMu is taken before mu
// is released so subscribers observe snapshots in mutation order.
func (s *Session) update(mutate func()) {
	s.mu.Lock()
	mutate()
	snap := s.snapshotLocked()
	s.subsMu.Lock()
	s.mu.Unlock()
	s.publishLocked(snap)
	s.subsMu.Unlock()
}

func (s *Session) publishLocked(snap Snapshot) {
	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Drop the stale pending snapshot and replace it.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Running:   s.running,
		Progress:  s.progress,
		Status:    s.status,
		Error:     s.errText,
		Log:       s.log.String(),
		Installed: s.installed,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
