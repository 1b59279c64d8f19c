// Package model provides review and review comment entities and their webhook payloads.
package model

import (
	"strings"
	"time"

	pullrequestModel "github.com/festy23/prmetrics/internal/pullrequest/model"
)

// State is the verdict of a submitted review.
type State string

const (
	// StateApproved approves the pull request.
	StateApproved State = "APPROVED"
	// StateChangesRequested asks the author for changes.
	StateChangesRequested State = "CHANGES_REQUESTED"
	// StateCommented leaves feedback without a verdict.
	StateCommented State = "COMMENTED"
	// StateDismissed is a review dismissed by a maintainer.
	StateDismissed State = "DISMISSED"
)

// ParseState normalizes GitHub's lowercase review states.
func ParseState(s string) State {
	return State(strings.ToUpper(strings.TrimSpace(s)))
}

// Review is one review submission. A reviewer may submit many.
type Review struct {
	ID             uint      `gorm:"primaryKey;column:id"`
	PullRequestID  uint      `gorm:"column:pull_request_id;not null;index:idx_reviews_pr"`
	GithubReviewID int64     `gorm:"column:github_review_id;not null;uniqueIndex"`
	ReviewerID     int64     `gorm:"column:reviewer_id;not null;index:idx_reviews_reviewer"`
	ReviewerLogin  string    `gorm:"column:reviewer_login;type:varchar(255)"`
	State          State     `gorm:"column:state;type:varchar(32);not null"`
	CommentCount   int       `gorm:"column:comment_count;not null;default:0"`
	SubmittedAt    time.Time `gorm:"column:submitted_at;not null"`
}

// TableName specifies the table name for GORM.
func (Review) TableName() string {
	return "reviews"
}

// Comment is one inline review comment. Body and UpdatedAt follow the newest edit by timestamp.
type Comment struct {
	ID              uint      `gorm:"primaryKey;column:id"`
	PullRequestID   uint      `gorm:"column:pull_request_id;not null;index:idx_review_comments_pr"`
	GithubCommentID int64     `gorm:"column:github_comment_id;not null;uniqueIndex"`
	GithubReviewID  int64     `gorm:"column:github_review_id"`
	AuthorID        int64     `gorm:"column:author_id"`
	AuthorLogin     string    `gorm:"column:author_login;type:varchar(255)"`
	Path            string    `gorm:"column:path;type:text"`
	Body            string    `gorm:"column:body;type:text;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

// TableName specifies the table name for GORM.
func (Comment) TableName() string {
	return "review_comments"
}

// SubmittedPayload is the review submitted webhook.
type SubmittedPayload struct {
	pullrequestModel.Header
	GithubReviewID int64     `json:"github_review_id" validate:"gt=0"`
	ReviewerID     int64     `json:"reviewer_id"      validate:"gt=0"`
	ReviewerLogin  string    `json:"reviewer_login"`
	State          string    `json:"state"            validate:"required,oneof=APPROVED CHANGES_REQUESTED COMMENTED DISMISSED"`
	CommentCount   int       `json:"comment_count"    validate:"gte=0"`
	SubmittedAt    time.Time `json:"submitted_at"     validate:"required"`
}

// CommentPayload is the review comment created and edited webhook.
type CommentPayload struct {
	pullrequestModel.Header
	GithubCommentID int64     `json:"github_comment_id" validate:"gt=0"`
	GithubReviewID  int64     `json:"github_review_id"`
	AuthorID        int64     `json:"author_id"`
	AuthorLogin     string    `json:"author_login"`
	Path            string    `json:"path"`
	Body            string    `json:"body"              validate:"required"`
	CreatedAt       time.Time `json:"created_at"        validate:"required"`
	UpdatedAt       time.Time `json:"updated_at"`
}
