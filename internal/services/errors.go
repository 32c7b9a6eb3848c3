package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLaunch              = errors.New("launch failure")
	ErrExternalTool        = errors.New("external tool error")
	ErrManifestUnavailable = errors.New("manifest unavailable")
	ErrPrecondition        = errors.New("precondition unmet")
	ErrConfiguration       = errors.New("configuration error")
	ErrBusy                = errors.New("operation already running")
)

// Kind names the failure class of an error for status output and run history.
type Kind string

const (
	KindNone         Kind = ""
	KindLaunch       Kind = "launch_failure"
	KindTool         Kind = "tool_failure"
	KindManifest     Kind = "manifest_unavailable"
	KindPrecondition Kind = "precondition_unmet"
	KindConfig       Kind = "configuration"
	KindBusy         Kind = "busy"
	KindUnknown      Kind = "unknown"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf classifies err by its most specific marker. Launch failures win over
// tool failures because a tool that never started has no exit status.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrLaunch):
		return KindLaunch
	case errors.Is(err, ErrManifestUnavailable):
		return KindManifest
	case errors.Is(err, ErrPrecondition):
		return KindPrecondition
	case errors.Is(err, ErrBusy):
		return KindBusy
	case errors.Is(err, ErrConfiguration):
		return KindConfig
	case errors.Is(err, ErrExternalTool):
		return KindTool
	default:
		return KindUnknown
	}
}

// MarkerFor returns the marker carried by err, or fallback when err carries none.
func MarkerFor(err error, fallback error) error {
	for _, marker := range []error{ErrLaunch, ErrManifestUnavailable, ErrPrecondition, ErrBusy, ErrConfiguration, ErrExternalTool} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return fallback
}

// Hint returns a remediation hint suitable for display next to err.
func Hint(err error) string {
	switch KindOf(err) {
	case KindLaunch:
		return "install Java 11 or newer and make sure the java binary is on PATH (or set tool.java_binary)"
	case KindTool:
		return "see the session log for the decoder output"
	case KindManifest:
		return "restore the baseline manifest file; reset never runs without it"
	case KindPrecondition:
		return "provide the missing input and retry"
	case KindBusy:
		return "wait for the running operation to finish"
	case KindConfig:
		return "check the configuration file"
	default:
		return ""
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// UserError pairs an error with the sentence shown to the user for it.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Err.Error()
}

func (e *UserError) Unwrap() error { return e.Err }

// WithUserMessage attaches a display sentence to err. A nil err stays nil.
func WithUserMessage(err error, message string) error {
	if err == nil {
		return nil
	}
	return &UserError{Message: strings.TrimSpace(message), Err: err}
}

// UserMessage returns the display sentence attached to err, or err's text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ue *UserError
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message
	}
	return err.Error()
}
