// Package event carries internal change notifications from webhook handlers to the
// derived-metrics engine. Delivery is at-least-once; subscribers must be idempotent.
package event

import (
	"context"
	"time"
)

// Kind names what changed.
type Kind string

const (
	// KindPullRequestOpened is published after an opened webhook.
	KindPullRequestOpened Kind = "pull_request.opened"
	// KindPullRequestClosed is published after a closed webhook, merged or not.
	KindPullRequestClosed Kind = "pull_request.closed"
	// KindPullRequestStateChanged is published after a draft or ready-for-review transition.
	KindPullRequestStateChanged Kind = "pull_request.state_changed"
	// KindCommitsSynchronized is published after every synchronize webhook on a live pull request.
	KindCommitsSynchronized Kind = "pull_request.commits_synchronized"
	// KindLabelChanged is published when a label was actually added or removed.
	KindLabelChanged Kind = "label.changed"
	// KindReviewerChanged is published when a reviewer request was actually added or removed.
	KindReviewerChanged Kind = "reviewer.changed"
	// KindReviewSubmitted is published after every review submission.
	KindReviewSubmitted Kind = "review.submitted"
	// KindReviewCommentChanged is published when a review comment was stored or edited.
	KindReviewCommentChanged Kind = "review_comment.changed"
)

// Event describes one change to a pull request. Only the fields relevant to Kind are set.
type Event struct {
	Kind          Kind      `json:"kind"`
	ProjectID     uint      `json:"project_id"`
	PullRequestID uint      `json:"pull_request_id"`
	OccurredAt    time.Time `json:"occurred_at"`

	FromState string `json:"from_state,omitempty"`
	ToState   string `json:"to_state,omitempty"`

	NewCommits []string `json:"new_commits,omitempty"`
	IsNewer    bool     `json:"is_newer,omitempty"`

	Label      string `json:"label,omitempty"`
	ReviewerID int64  `json:"reviewer_id,omitempty"`
	Action     string `json:"action,omitempty"`
}

// Publisher hands events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// Handler consumes one event.
type Handler func(ctx context.Context, e Event) error
