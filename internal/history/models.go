package history

import (
	"time"

	"psxinstall/internal/services"
	"psxinstall/internal/stage"
)

// Kind names the operation a run performed.
type Kind string

const (
	KindInstall Kind = "install"
	KindConvert Kind = "convert"
	KindCleanup Kind = "cleanup"
	KindReset   Kind = "reset"
)

// Record is one persisted run.
type Record struct {
	ID                 string
	Kind               Kind
	State              stage.State
	DiscOne            string
	DiscTwo            string
	ConvertMedia       bool
	ErrorKind          services.Kind
	ErrorMessage       string
	PrimaryTotal       int
	PrimarySucceeded   int
	SecondaryTotal     int
	SecondarySucceeded int
	FilesDeleted       int
	BytesDeleted       int64
	StartedAt          time.Time
	FinishedAt         *time.Time
}

// Duration returns how long the run took, or how long it has been running
// relative to now when it has not finished.
func (r Record) Duration(now time.Time) time.Duration {
	if r.StartedAt.IsZero() {
		return 0
	}
	end := now
	if r.FinishedAt != nil {
		end = *r.FinishedAt
	}
	if end.Before(r.StartedAt) {
		return 0
	}
	return end.Sub(r.StartedAt)
}

// Finished reports whether the run reached a terminal state.
func (r Record) Finished() bool {
	return r.State.Terminal()
}
