package model

import "errors"

var (
	// ErrPullRequestNotFound indicates that the pull request does not exist in the project.
	ErrPullRequestNotFound = errors.New("pull request not found")
	// ErrAlreadyTerminal indicates a lifecycle command on a merged or closed pull request.
	ErrAlreadyTerminal = errors.New("pull request is already merged or closed")
	// ErrNotDraft indicates ready-for-review on a pull request that is not a draft.
	ErrNotDraft = errors.New("pull request is not a draft")
	// ErrNotOpen indicates draft conversion of a pull request that is not open.
	ErrNotOpen = errors.New("pull request is not open")
)
