// Package repository provides data access for reviews and review comments.
package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/prmetrics/internal/dedup"
	reviewModel "github.com/festy23/prmetrics/internal/review/model"
)

// ErrCommentNotFound indicates that no comment with the GitHub id is stored.
var ErrCommentNotFound = errors.New("review comment not found")

// Repository defines review data access.
type Repository interface {
	// AddReview stores a submission unless its GitHub id was already seen.
	AddReview(ctx context.Context, review *reviewModel.Review) (bool, error)

	// ListReviews returns the reviews of a pull request ordered by submission time.
	ListReviews(ctx context.Context, pullRequestID uint) ([]reviewModel.Review, error)

	// AddComment stores a comment unless its GitHub id was already seen.
	AddComment(ctx context.Context, comment *reviewModel.Comment) (bool, error)

	// GetComment finds a comment by GitHub id.
	GetComment(ctx context.Context, githubCommentID int64) (*reviewModel.Comment, error)

	// UpdateComment overwrites the comment's body and update time.
	UpdateComment(ctx context.Context, comment *reviewModel.Comment) error
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new review repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// AddReview stores a submission unless its GitHub id was already seen.
func (r *repository) AddReview(ctx context.Context, review *reviewModel.Review) (bool, error) {
	return dedup.InsertOnce(ctx, r.db, review, dedup.Key{"github_review_id": review.GithubReviewID})
}

// ListReviews returns the reviews of a pull request ordered by submission time.
func (r *repository) ListReviews(ctx context.Context, pullRequestID uint) ([]reviewModel.Review, error) {
	var reviews []reviewModel.Review
	err := r.db.WithContext(ctx).
		Where("pull_request_id = ?", pullRequestID).
		Order("submitted_at, github_review_id").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// AddComment stores a comment unless its GitHub id was already seen.
func (r *repository) AddComment(ctx context.Context, comment *reviewModel.Comment) (bool, error) {
	return dedup.InsertOnce(ctx, r.db, comment, dedup.Key{"github_comment_id": comment.GithubCommentID})
}

// GetComment finds a comment by GitHub id.
func (r *repository) GetComment(ctx context.Context, githubCommentID int64) (*reviewModel.Comment, error) {
	var comment reviewModel.Comment
	err := r.db.WithContext(ctx).Where("github_comment_id = ?", githubCommentID).First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review comment: %w", err)
	}
	return &comment, nil
}

// UpdateComment overwrites the comment's body and update time.
func (r *repository) UpdateComment(ctx context.Context, comment *reviewModel.Comment) error {
	err := r.db.WithContext(ctx).
		Model(&reviewModel.Comment{}).
		Where("id = ?", comment.ID).
		Updates(map[string]interface{}{
			"body":       comment.Body,
			"updated_at": comment.UpdatedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update review comment: %w", err)
	}
	return nil
}
