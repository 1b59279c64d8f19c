// Package model provides the derived metric records owned by the metrics engine.
package model

import "time"

// SizeGrade is the ordinal size bucket of a pull request.
type SizeGrade string

const (
	// GradeXS is an extra small change.
	GradeXS SizeGrade = "XS"
	// GradeS is a small change.
	GradeS SizeGrade = "S"
	// GradeM is a medium change.
	GradeM SizeGrade = "M"
	// GradeL is a large change.
	GradeL SizeGrade = "L"
	// GradeXL is an extra large change.
	GradeXL SizeGrade = "XL"
)

// Grades lists every grade in ascending order.
var Grades = []SizeGrade{GradeXS, GradeS, GradeM, GradeL, GradeXL}

// PullRequestSize is computed once, when the pull request is opened.
type PullRequestSize struct {
	ID                  uint      `gorm:"primaryKey;column:id"`
	PullRequestID       uint      `gorm:"column:pull_request_id;not null;uniqueIndex"`
	Additions           int       `gorm:"column:additions;not null"`
	Deletions           int       `gorm:"column:deletions;not null"`
	ChangedFiles        int       `gorm:"column:changed_files;not null"`
	SizeScore           float64   `gorm:"column:size_score;not null"`
	SizeGrade           SizeGrade `gorm:"column:size_grade;type:varchar(2);not null;index:idx_pull_request_sizes_grade"`
	FileChangeDiversity float64   `gorm:"column:file_change_diversity;not null"`
	CalculatedAt        time.Time `gorm:"column:calculated_at;not null"`
}

// TableName specifies the table name for GORM.
func (PullRequestSize) TableName() string {
	return "pull_request_sizes"
}

// ReviewActivity is computed once, when the pull request is closed.
type ReviewActivity struct {
	ID                              uint      `gorm:"primaryKey;column:id"`
	PullRequestID                   uint      `gorm:"column:pull_request_id;not null;uniqueIndex"`
	ReviewCount                     int       `gorm:"column:review_count;not null"`
	ReviewRoundTrips                int       `gorm:"column:review_round_trips;not null"`
	TotalCommentCount               int       `gorm:"column:total_comment_count;not null"`
	HasAdditionalReviewersRequested bool      `gorm:"column:has_additional_reviewers_requested;not null"`
	HasChangesAfterReview           bool      `gorm:"column:has_changes_after_review;not null"`
	HasReviewActivity               bool      `gorm:"column:has_review_activity;not null"`
	CalculatedAt                    time.Time `gorm:"column:calculated_at;not null"`
}

// TableName specifies the table name for GORM.
func (ReviewActivity) TableName() string {
	return "review_activities"
}

// PullRequestLifecycle is computed once, when the pull request is closed.
type PullRequestLifecycle struct {
	ID                   uint      `gorm:"primaryKey;column:id"`
	PullRequestID        uint      `gorm:"column:pull_request_id;not null;uniqueIndex"`
	FinalState           string    `gorm:"column:final_state;type:varchar(16);not null"`
	IsMerged             bool      `gorm:"column:is_merged;not null"`
	IsClosed             bool      `gorm:"column:is_closed;not null"`
	ClosedWithoutReview  bool      `gorm:"column:closed_without_review;not null"`
	TimeToMergeMinutes   *int64    `gorm:"column:time_to_merge_minutes"`
	TotalLifespanMinutes int64     `gorm:"column:total_lifespan_minutes;not null"`
	ClosedAt             time.Time `gorm:"column:closed_at;not null"`
	CalculatedAt         time.Time `gorm:"column:calculated_at;not null"`
}

// TableName specifies the table name for GORM.
func (PullRequestLifecycle) TableName() string {
	return "pull_request_lifecycles"
}

// ReviewSession summarizes one reviewer's activity on a pull request.
// It is recomputed in full from stored reviews on every submission.
type ReviewSession struct {
	ID                     uint      `gorm:"primaryKey;column:id"`
	PullRequestID          uint      `gorm:"column:pull_request_id;not null;uniqueIndex:idx_review_sessions_pr_reviewer"`
	ReviewerID             int64     `gorm:"column:reviewer_id;not null;uniqueIndex:idx_review_sessions_pr_reviewer"`
	ReviewCount            int       `gorm:"column:review_count;not null"`
	FirstActivityAt        time.Time `gorm:"column:first_activity_at;not null"`
	LastActivityAt         time.Time `gorm:"column:last_activity_at;not null"`
	SessionDurationMinutes int64     `gorm:"column:session_duration_minutes;not null"`
	CalculatedAt           time.Time `gorm:"column:calculated_at;not null"`
}

// TableName specifies the table name for GORM.
func (ReviewSession) TableName() string {
	return "review_sessions"
}

// ReviewResponseTime tracks requested changes and how long they took to be approved.
// It is recomputed in full from stored reviews on every submission.
type ReviewResponseTime struct {
	ID                         uint       `gorm:"primaryKey;column:id"`
	PullRequestID              uint       `gorm:"column:pull_request_id;not null;uniqueIndex"`
	ChangesRequestedCount      int        `gorm:"column:changes_requested_count;not null"`
	LastChangesRequestedAt     *time.Time `gorm:"column:last_changes_requested_at"`
	FirstApproveAfterChangesAt *time.Time `gorm:"column:first_approve_after_changes_at"`
	ChangesResolutionMinutes   *int64     `gorm:"column:changes_resolution_minutes"`
	Resolved                   bool       `gorm:"column:resolved;not null"`
	CalculatedAt               time.Time  `gorm:"column:calculated_at;not null"`
}

// TableName specifies the table name for GORM.
func (ReviewResponseTime) TableName() string {
	return "review_response_times"
}
