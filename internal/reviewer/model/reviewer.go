// Package model provides requested reviewer entities and the reviewer webhook payload.
package model

import (
	"time"

	pullrequestModel "github.com/festy23/prmetrics/internal/pullrequest/model"
)

// Action is the kind of change recorded in reviewer history.
type Action string

const (
	// ActionAdded records a review request.
	ActionAdded Action = "ADDED"
	// ActionRemoved records a withdrawn review request.
	ActionRemoved Action = "REMOVED"
)

// RequestedReviewer is a reviewer currently requested on a pull request.
type RequestedReviewer struct {
	ID               uint      `gorm:"primaryKey;column:id"`
	PullRequestID    uint      `gorm:"column:pull_request_id;not null;uniqueIndex:idx_requested_reviewers_pr_reviewer"`
	GithubReviewerID int64     `gorm:"column:github_reviewer_id;not null;uniqueIndex:idx_requested_reviewers_pr_reviewer"`
	Login            string    `gorm:"column:login;type:varchar(255)"`
	RequestedAt      time.Time `gorm:"column:requested_at;not null"`
}

// TableName specifies the table name for GORM.
func (RequestedReviewer) TableName() string {
	return "requested_reviewers"
}

// History is one append-only row per applied reviewer request change.
type History struct {
	ID               uint      `gorm:"primaryKey;column:id"`
	PullRequestID    uint      `gorm:"column:pull_request_id;not null;index:idx_requested_reviewer_histories_pr"`
	GithubReviewerID int64     `gorm:"column:github_reviewer_id;not null"`
	Login            string    `gorm:"column:login;type:varchar(255)"`
	Action           Action    `gorm:"column:action;type:varchar(16);not null"`
	ChangedAt        time.Time `gorm:"column:changed_at;not null"`
}

// TableName specifies the table name for GORM.
func (History) TableName() string {
	return "requested_reviewer_histories"
}

// Payload is the review_requested and review_request_removed webhook.
type Payload struct {
	pullrequestModel.Header
	ReviewerID    int64  `json:"reviewer_id"    validate:"gt=0"`
	ReviewerLogin string `json:"reviewer_login"`
}
