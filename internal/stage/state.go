package stage

import "strings"

// State is a pipeline run's position in the install state machine.
type State string

const (
	StateIdle                State = "idle"
	StateExtracting          State = "extracting"
	StateConvertingPrimary   State = "converting_primary"
	StateConvertingSecondary State = "converting_secondary"
	StateCleaningUp          State = "cleaning_up"
	StateResetting           State = "resetting"
	StateComplete            State = "complete"
	StateFailed              State = "failed"
)

var allStates = []State{
	StateIdle,
	StateExtracting,
	StateConvertingPrimary,
	StateConvertingSecondary,
	StateCleaningUp,
	StateResetting,
	StateComplete,
	StateFailed,
}

// transitions lists the forward edges. Failed is reachable from every
// non-terminal state and is handled separately.
var transitions = map[State][]State{
	StateIdle:                {StateExtracting, StateConvertingPrimary, StateCleaningUp, StateResetting},
	StateExtracting:          {StateConvertingPrimary, StateComplete},
	StateConvertingPrimary:   {StateConvertingSecondary},
	StateConvertingSecondary: {StateCleaningUp, StateComplete},
	StateCleaningUp:          {StateComplete},
	StateResetting:           {StateComplete},
}

// AllStates returns the ordered list of known states.
func AllStates() []State {
	out := make([]State, len(allStates))
	copy(out, allStates)
	return out
}

// ParseState normalizes raw into a known State.
func ParseState(raw string) (State, bool) {
	candidate := State(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range allStates {
		if s == candidate {
			return s, true
		}
	}
	return "", false
}

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// Active reports whether s is a working state.
func (s State) Active() bool {
	return s != StateIdle && !s.Terminal()
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Label is the short human name of s used in status output.
func (s State) Label() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateExtracting:
		return "Extracting"
	case StateConvertingPrimary:
		return "Converting FMV"
	case StateConvertingSecondary:
		return "Converting XA"
	case StateCleaningUp:
		return "Cleaning up"
	case StateResetting:
		return "Resetting"
	case StateComplete:
		return "Complete"
	case StateFailed:
		return "Failed"
	default:
		return string(s)
	}
}
