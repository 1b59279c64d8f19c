package model

import "errors"

// State is the lifecycle state of a pull request.
type State string

const (
	// StateDraft is a pull request not yet ready for review.
	StateDraft State = "DRAFT"
	// StateOpen is a pull request ready for review.
	StateOpen State = "OPEN"
	// StateMerged is a merged pull request. Terminal.
	StateMerged State = "MERGED"
	// StateClosed is a pull request closed without merge. Terminal.
	StateClosed State = "CLOSED"
)

// IsTerminal reports whether no further lifecycle transition is allowed.
func (s State) IsTerminal() bool {
	return s == StateMerged || s == StateClosed
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateDraft, StateOpen, StateMerged, StateClosed:
		return true
	}
	return false
}

// Transition is an applied state change.
type Transition struct {
	From State
	To   State
}

// IsStateConflict reports whether err is a rejected transition. Webhook handlers
// absorb these since GitHub redelivers and reorders webhooks.
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrAlreadyTerminal) || errors.Is(err, ErrNotDraft) || errors.Is(err, ErrNotOpen)
}
