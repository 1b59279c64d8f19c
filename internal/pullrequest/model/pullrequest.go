// Package model provides the pull request aggregate, its value types and webhook payloads.
package model

import (
	"strings"
	"time"

	"github.com/festy23/prmetrics/internal/validation"
)

// PullRequest is the authoritative record of one pull request in a project.
// State changes go through the command methods; callers persist the aggregate explicitly.
type PullRequest struct {
	ID                  uint       `gorm:"primaryKey;column:id"                                                           json:"id"`
	ProjectID           uint       `gorm:"column:project_id;not null;uniqueIndex:idx_pull_requests_project_number"        json:"project_id"`
	Number              int        `gorm:"column:number;not null;uniqueIndex:idx_pull_requests_project_number"            json:"number"`
	GithubPullRequestID int64      `gorm:"column:github_pull_request_id"                                                  json:"github_pull_request_id"`
	Author              string     `gorm:"column:author;type:varchar(255);not null"                                       json:"author"`
	HeadCommitSHA       string     `gorm:"column:head_commit_sha;type:varchar(64);not null"                               json:"head_commit_sha"`
	Title               string     `gorm:"column:title;type:text;not null"                                                json:"title"`
	Link                string     `gorm:"column:link;type:text;not null"                                                 json:"link"`
	State               State      `gorm:"column:state;type:varchar(16);not null;index:idx_pull_requests_state"           json:"state"`
	ChangedFiles        int        `gorm:"column:changed_files;not null;default:0"                                        json:"changed_files"`
	Additions           int        `gorm:"column:additions;not null;default:0"                                            json:"additions"`
	Deletions           int        `gorm:"column:deletions;not null;default:0"                                            json:"deletions"`
	CommitCount         int        `gorm:"column:commit_count;not null;default:0"                                         json:"commit_count"`
	CreatedAt           time.Time  `gorm:"column:created_at;not null;autoCreateTime:false;index:idx_pull_requests_created" json:"created_at"`
	MergedAt            *time.Time `gorm:"column:merged_at"                                                               json:"merged_at,omitempty"`
	ClosedAt            *time.Time `gorm:"column:closed_at"                                                               json:"closed_at,omitempty"`
	UpdatedAt           time.Time  `gorm:"column:updated_at"                                                              json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (PullRequest) TableName() string {
	return "pull_requests"
}

// OpenParams are the validated inputs of an opened webhook.
type OpenParams struct {
	ProjectID           uint
	Number              int
	GithubPullRequestID int64
	Author              string
	HeadCommitSHA       string
	Title               string
	Link                string
	Draft               bool
	Stats               ChangeStats
	CommitCount         int
	CreatedAt           time.Time
}

// New builds a pull request in DRAFT or OPEN state.
func New(p OpenParams) (*PullRequest, error) {
	if p.Number <= 0 {
		return nil, validation.Invalid("number must be positive, got %d", p.Number)
	}
	if strings.TrimSpace(p.HeadCommitSHA) == "" {
		return nil, validation.Invalid("head commit sha must not be blank")
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, validation.Invalid("title must not be blank")
	}
	if strings.TrimSpace(p.Link) == "" {
		return nil, validation.Invalid("link must not be blank")
	}
	if p.CommitCount < 0 {
		return nil, validation.Invalid("commit count must be non-negative, got %d", p.CommitCount)
	}
	stats, err := NewChangeStats(p.Stats.ChangedFiles, p.Stats.Additions, p.Stats.Deletions)
	if err != nil {
		return nil, err
	}
	if _, err := NewTiming(p.CreatedAt, nil, nil); err != nil {
		return nil, err
	}

	state := StateOpen
	if p.Draft {
		state = StateDraft
	}

	return &PullRequest{
		ProjectID:           p.ProjectID,
		Number:              p.Number,
		GithubPullRequestID: p.GithubPullRequestID,
		Author:              p.Author,
		HeadCommitSHA:       p.HeadCommitSHA,
		Title:               p.Title,
		Link:                p.Link,
		State:               state,
		ChangedFiles:        stats.ChangedFiles,
		Additions:           stats.Additions,
		Deletions:           stats.Deletions,
		CommitCount:         p.CommitCount,
		CreatedAt:           p.CreatedAt,
	}, nil
}

// ChangeStats returns the current change counts.
func (pr *PullRequest) ChangeStats() ChangeStats {
	return ChangeStats{ChangedFiles: pr.ChangedFiles, Additions: pr.Additions, Deletions: pr.Deletions}
}

// Timing returns the lifecycle timestamps.
func (pr *PullRequest) Timing() Timing {
	return Timing{CreatedAt: pr.CreatedAt, MergedAt: pr.MergedAt, ClosedAt: pr.ClosedAt}
}

// MarkReadyForReview moves a draft to OPEN.
func (pr *PullRequest) MarkReadyForReview() (Transition, error) {
	if pr.State.IsTerminal() {
		return Transition{}, ErrAlreadyTerminal
	}
	if pr.State != StateDraft {
		return Transition{}, ErrNotDraft
	}
	return pr.moveTo(StateOpen), nil
}

// ConvertToDraft moves an open pull request back to DRAFT.
func (pr *PullRequest) ConvertToDraft() (Transition, error) {
	if pr.State.IsTerminal() {
		return Transition{}, ErrAlreadyTerminal
	}
	if pr.State != StateOpen {
		return Transition{}, ErrNotOpen
	}
	return pr.moveTo(StateDraft), nil
}

// Close moves the pull request to MERGED or CLOSED at the given instant.
func (pr *PullRequest) Close(merged bool, at time.Time) (Transition, error) {
	if pr.State.IsTerminal() {
		return Transition{}, ErrAlreadyTerminal
	}

	var mergedAt *time.Time
	if merged {
		mergedAt = &at
	}
	if _, err := NewTiming(pr.CreatedAt, mergedAt, &at); err != nil {
		return Transition{}, err
	}

	pr.ClosedAt = &at
	pr.MergedAt = mergedAt
	if merged {
		return pr.moveTo(StateMerged), nil
	}
	return pr.moveTo(StateClosed), nil
}

// ApplySynchronize replaces the head commit and change stats after a newer push.
func (pr *PullRequest) ApplySynchronize(headCommitSHA string, stats ChangeStats, commitCount int) error {
	if pr.State.IsTerminal() {
		return ErrAlreadyTerminal
	}
	if strings.TrimSpace(headCommitSHA) == "" {
		return validation.Invalid("head commit sha must not be blank")
	}
	if commitCount < 0 {
		return validation.Invalid("commit count must be non-negative, got %d", commitCount)
	}
	checked, err := NewChangeStats(stats.ChangedFiles, stats.Additions, stats.Deletions)
	if err != nil {
		return err
	}

	pr.HeadCommitSHA = headCommitSHA
	pr.ChangedFiles = checked.ChangedFiles
	pr.Additions = checked.Additions
	pr.Deletions = checked.Deletions
	pr.CommitCount = commitCount
	return nil
}

func (pr *PullRequest) moveTo(to State) Transition {
	t := Transition{From: pr.State, To: to}
	pr.State = to
	return t
}
