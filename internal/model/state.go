// Package model holds the records shared by the crawl pipeline, the store and
// the application lifecycle.
//
// Application state graph:
//
//	queued ──► processing ──► ready ──► auto_submitting ──► submitted
//	  ▲            │                          │
//	  │            └──────────► failed ◄──────┘
//	  └──────────────────────────┤
//	                             └──► permanently_failed
//
// Every non-terminal state may also move to cancelled. submitted,
// permanently_failed and cancelled are terminal.
package model

import (
	"errors"
	"fmt"
)

// State values mirror the applications.state column.
type State string

const (
	StateQueued            State = "queued"
	StateProcessing        State = "processing"
	StateReady             State = "ready"
	StateAutoSubmitting    State = "auto_submitting"
	StateSubmitted         State = "submitted"
	StateFailed            State = "failed"
	StatePermanentlyFailed State = "permanently_failed"
	StateCancelled         State = "cancelled"
)

// ErrIllegalTransition is returned when a move is not in the state graph.
var ErrIllegalTransition = errors.New("illegal state transition")

// validTransitions lists every allowed (from → to) pair apart from
// cancellation, which is open to every non-terminal state.
var validTransitions = map[State][]State{
	StateQueued:         {StateProcessing},
	StateProcessing:     {StateReady, StateFailed},
	StateReady:          {StateAutoSubmitting},
	StateAutoSubmitting: {StateSubmitted, StateFailed},
	StateFailed:         {StateQueued, StatePermanentlyFailed},
}

// TerminalStates is the set of states an application never leaves.
var TerminalStates = []State{StateSubmitted, StatePermanentlyFailed, StateCancelled}

// ParseState converts a raw string to a State.
func ParseState(s string) (State, error) {
	st := State(s)
	switch st {
	case StateQueued, StateProcessing, StateReady, StateAutoSubmitting,
		StateSubmitted, StateFailed, StatePermanentlyFailed, StateCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown application state %q", s)
}

// IsTerminal reports whether s has no outgoing transitions.
func IsTerminal(s State) bool {
	for _, t := range TerminalStates {
		if s == t {
			return true
		}
	}
	return false
}

// CanTransition reports whether moving from → to is permitted.
func CanTransition(from, to State) bool {
	if IsTerminal(from) {
		return false
	}
	if to == StateCancelled {
		_, known := validTransitions[from]
		return known
	}
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CheckTransition is CanTransition with a descriptive error.
func CheckTransition(from, to State) error {
	if CanTransition(from, to) {
		return nil
	}
	return fmt.Errorf("%w: %s → %s", ErrIllegalTransition, from, to)
}
