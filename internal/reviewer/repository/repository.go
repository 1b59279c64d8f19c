// Package repository provides data access for requested reviewers and their history.
package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/prmetrics/internal/dedup"
	reviewerModel "github.com/festy23/prmetrics/internal/reviewer/model"
)

// Repository defines requested reviewer data access.
type Repository interface {
	// Add requests the reviewer unless already requested and reports whether it did.
	Add(ctx context.Context, reviewer *reviewerModel.RequestedReviewer) (bool, error)

	// Remove withdraws the request and reports whether exactly one row was removed.
	Remove(ctx context.Context, pullRequestID uint, githubReviewerID int64) (bool, error)

	// AppendHistory records an applied change.
	AppendHistory(ctx context.Context, history *reviewerModel.History) error

	// List returns currently requested reviewers.
	List(ctx context.Context, pullRequestID uint) ([]reviewerModel.RequestedReviewer, error)

	// History returns reviewer request history in order.
	History(ctx context.Context, pullRequestID uint) ([]reviewerModel.History, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new reviewer repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// Add requests the reviewer unless already requested.
func (r *repository) Add(ctx context.Context, reviewer *reviewerModel.RequestedReviewer) (bool, error) {
	return dedup.InsertOnce(ctx, r.db, reviewer, dedup.Key{
		"pull_request_id":    reviewer.PullRequestID,
		"github_reviewer_id": reviewer.GithubReviewerID,
	})
}

// Remove withdraws the request.
func (r *repository) Remove(ctx context.Context, pullRequestID uint, githubReviewerID int64) (bool, error) {
	return dedup.DeleteOnce(ctx, r.db, &reviewerModel.RequestedReviewer{}, dedup.Key{
		"pull_request_id":    pullRequestID,
		"github_reviewer_id": githubReviewerID,
	})
}

// AppendHistory records an applied change.
func (r *repository) AppendHistory(ctx context.Context, history *reviewerModel.History) error {
	if err := r.db.WithContext(ctx).Create(history).Error; err != nil {
		return fmt.Errorf("failed to append reviewer history: %w", err)
	}
	return nil
}

// List returns currently requested reviewers.
func (r *repository) List(ctx context.Context, pullRequestID uint) ([]reviewerModel.RequestedReviewer, error) {
	var rows []reviewerModel.RequestedReviewer
	err := r.db.WithContext(ctx).
		Where("pull_request_id = ?", pullRequestID).
		Order("github_reviewer_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list requested reviewers: %w", err)
	}
	return rows, nil
}

// History returns reviewer request history in order.
func (r *repository) History(ctx context.Context, pullRequestID uint) ([]reviewerModel.History, error) {
	var rows []reviewerModel.History
	err := r.db.WithContext(ctx).
		Where("pull_request_id = ?", pullRequestID).
		Order("changed_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviewer history: %w", err)
	}
	return rows, nil
}
