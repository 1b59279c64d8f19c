// Package repository provides data access layer for the pull request aggregate.
package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/prmetrics/internal/database/tx"
	"github.com/festy23/prmetrics/internal/dedup"
	pullrequestModel "github.com/festy23/prmetrics/internal/pullrequest/model"
)

// Repository defines data access for pull requests and their commit, file and state history.
type Repository interface {
	// Create inserts the pull request unless (project, number) already exists.
	// It reports whether the row was inserted; on a duplicate pr.ID stays zero.
	Create(ctx context.Context, pr *pullrequestModel.PullRequest) (bool, error)

	// GetByNumber finds a pull request by project and number.
	GetByNumber(ctx context.Context, projectID uint, number int) (*pullrequestModel.PullRequest, error)

	// LockByNumber finds a pull request and holds an exclusive row lock until the transaction ends.
	LockByNumber(ctx context.Context, projectID uint, number int) (*pullrequestModel.PullRequest, error)

	// GetByID finds a pull request by id.
	GetByID(ctx context.Context, id uint) (*pullrequestModel.PullRequest, error)

	// LockByID finds a pull request by id and holds an exclusive row lock until the transaction ends.
	LockByID(ctx context.Context, id uint) (*pullrequestModel.PullRequest, error)

	// Save persists the aggregate after a command.
	Save(ctx context.Context, pr *pullrequestModel.PullRequest) error

	// AppendStateHistory records an applied state change.
	AppendStateHistory(ctx context.Context, history *pullrequestModel.StateHistory) error

	// StateHistory lists state changes in order.
	StateHistory(ctx context.Context, pullRequestID uint) ([]pullrequestModel.StateHistory, error)

	// CommitSHAs returns the SHAs already recorded for the pull request.
	CommitSHAs(ctx context.Context, pullRequestID uint) ([]string, error)

	// AddCommits records commits not seen before and returns how many were inserted.
	AddCommits(ctx context.Context, pullRequestID uint, commits []pullrequestModel.Commit) (int, error)

	// Commits lists recorded commits ordered by commit time.
	Commits(ctx context.Context, pullRequestID uint) ([]pullrequestModel.Commit, error)

	// ReplaceFiles swaps the changed-file list for the current head.
	ReplaceFiles(ctx context.Context, pullRequestID uint, files []pullrequestModel.File) error

	// Files lists the changed files of the current head.
	Files(ctx context.Context, pullRequestID uint) ([]pullrequestModel.File, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new pull request repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// Create inserts the pull request unless (project, number) already exists.
func (r *repository) Create(ctx context.Context, pr *pullrequestModel.PullRequest) (bool, error) {
	inserted, err := dedup.InsertOnce(ctx, r.db, pr, dedup.Key{
		"project_id": pr.ProjectID,
		"number":     pr.Number,
	})
	if err != nil {
		return false, fmt.Errorf("failed to create pull request: %w", err)
	}
	return inserted, nil
}

// GetByNumber finds a pull request by project and number.
func (r *repository) GetByNumber(
	ctx context.Context,
	projectID uint,
	number int,
) (*pullrequestModel.PullRequest, error) {
	return r.findByNumber(r.db.WithContext(ctx), projectID, number)
}

// LockByNumber finds a pull request with SELECT ... FOR UPDATE.
func (r *repository) LockByNumber(
	ctx context.Context,
	projectID uint,
	number int,
) (*pullrequestModel.PullRequest, error) {
	return r.findByNumber(tx.ForUpdate(r.db.WithContext(ctx)), projectID, number)
}

func (r *repository) findByNumber(
	db *gorm.DB,
	projectID uint,
	number int,
) (*pullrequestModel.PullRequest, error) {
	var pr pullrequestModel.PullRequest
	err := db.Where("project_id = ? AND number = ?", projectID, number).First(&pr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pullrequestModel.ErrPullRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pull request #%d: %w", number, err)
	}
	return &pr, nil
}

// GetByID finds a pull request by id.
func (r *repository) GetByID(ctx context.Context, id uint) (*pullrequestModel.PullRequest, error) {
	return r.findByID(r.db.WithContext(ctx), id)
}

// LockByID finds a pull request by id with SELECT ... FOR UPDATE.
func (r *repository) LockByID(ctx context.Context, id uint) (*pullrequestModel.PullRequest, error) {
	return r.findByID(tx.ForUpdate(r.db.WithContext(ctx)), id)
}

func (r *repository) findByID(db *gorm.DB, id uint) (*pullrequestModel.PullRequest, error) {
	var pr pullrequestModel.PullRequest
	err := db.First(&pr, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pullrequestModel.ErrPullRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pull request %d: %w", id, err)
	}
	return &pr, nil
}

// Save persists the aggregate after a command.
func (r *repository) Save(ctx context.Context, pr *pullrequestModel.PullRequest) error {
	if pr.ID == 0 {
		return fmt.Errorf("cannot save pull request #%d without id", pr.Number)
	}
	if err := r.db.WithContext(ctx).Save(pr).Error; err != nil {
		return fmt.Errorf("failed to save pull request #%d: %w", pr.Number, err)
	}
	return nil
}

// AppendStateHistory records an applied state change.
func (r *repository) AppendStateHistory(ctx context.Context, history *pullrequestModel.StateHistory) error {
	if err := r.db.WithContext(ctx).Create(history).Error; err != nil {
		return fmt.Errorf("failed to append state history: %w", err)
	}
	return nil
}

// StateHistory lists state changes in order.
func (r *repository) StateHistory(
	ctx context.Context,
	pullRequestID uint,
) ([]pullrequestModel.StateHistory, error) {
	var rows []pullrequestModel.StateHistory
	err := r.db.WithContext(ctx).
		Where("pull_request_id = ?", pullRequestID).
		Order("changed_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list state history: %w", err)
	}
	return rows, nil
}

// CommitSHAs returns the SHAs already recorded for the pull request.
func (r *repository) CommitSHAs(ctx context.Context, pullRequestID uint) ([]string, error) {
	var shas []string
	err := r.db.WithContext(ctx).
		Model(&pullrequestModel.Commit{}).
		Where("pull_request_id = ?", pullRequestID).
		Pluck("sha", &shas).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list commit shas: %w", err)
	}
	return shas, nil
}

// AddCommits records commits not seen before and returns how many were inserted.
func (r *repository) AddCommits(
	ctx context.Context,
	pullRequestID uint,
	commits []pullrequestModel.Commit,
) (int, error) {
	inserted := 0
	for i := range commits {
		commit := commits[i]
		commit.ID = 0
		commit.PullRequestID = pullRequestID
		ok, err := dedup.InsertOnce(ctx, r.db, &commit, dedup.Key{
			"pull_request_id": pullRequestID,
			"sha":             commit.SHA,
		})
		if err != nil {
			return inserted, fmt.Errorf("failed to add commit %s: %w", commit.SHA, err)
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

// Commits lists recorded commits ordered by commit time.
func (r *repository) Commits(ctx context.Context, pullRequestID uint) ([]pullrequestModel.Commit, error) {
	var rows []pullrequestModel.Commit
	err := r.db.WithContext(ctx).
		Where("pull_request_id = ?", pullRequestID).
		Order("committed_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}
	return rows, nil
}

// ReplaceFiles swaps the changed-file list for the current head.
func (r *repository) ReplaceFiles(
	ctx context.Context,
	pullRequestID uint,
	files []pullrequestModel.File,
) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("pull_request_id = ?", pullRequestID).Delete(&pullrequestModel.File{}).Error; err != nil {
		return fmt.Errorf("failed to clear files: %w", err)
	}
	if len(files) == 0 {
		return nil
	}

	rows := make([]pullrequestModel.File, len(files))
	for i, f := range files {
		f.ID = 0
		f.PullRequestID = pullRequestID
		rows[i] = f
	}
	if err := db.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to store files: %w", err)
	}
	return nil
}

// Files lists the changed files of the current head.
func (r *repository) Files(ctx context.Context, pullRequestID uint) ([]pullrequestModel.File, error) {
	var rows []pullrequestModel.File
	err := r.db.WithContext(ctx).
		Where("pull_request_id = ?", pullRequestID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return rows, nil
}
