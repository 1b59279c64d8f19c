// Package repository stores derived metric records.
package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/festy23/prmetrics/internal/dedup"
	derivedModel "github.com/festy23/prmetrics/internal/derived/model"
)

// ErrNotDerived indicates that a derived record has not been computed yet.
var ErrNotDerived = errors.New("derived metric not computed")

// Repository defines derived metric persistence. Size, lifecycle and activity are
// written once per pull request; sessions and response times are replaced in full.
type Repository interface {
	// CreateSize stores the size record unless one exists and reports whether it did.
	CreateSize(ctx context.Context, size *derivedModel.PullRequestSize) (bool, error)

	// CreateLifecycle stores the lifecycle record unless one exists.
	CreateLifecycle(ctx context.Context, lifecycle *derivedModel.PullRequestLifecycle) (bool, error)

	// CreateActivity stores the review activity record unless one exists.
	CreateActivity(ctx context.Context, activity *derivedModel.ReviewActivity) (bool, error)

	// UpsertSession replaces the session of (pull request, reviewer).
	UpsertSession(ctx context.Context, session *derivedModel.ReviewSession) error

	// UpsertResponseTime replaces the response time record of a pull request.
	UpsertResponseTime(ctx context.Context, rt *derivedModel.ReviewResponseTime) error

	// GetSize returns the size record.
	GetSize(ctx context.Context, pullRequestID uint) (*derivedModel.PullRequestSize, error)

	// GetLifecycle returns the lifecycle record.
	GetLifecycle(ctx context.Context, pullRequestID uint) (*derivedModel.PullRequestLifecycle, error)

	// GetActivity returns the review activity record.
	GetActivity(ctx context.Context, pullRequestID uint) (*derivedModel.ReviewActivity, error)

	// GetSession returns the session of (pull request, reviewer).
	GetSession(ctx context.Context, pullRequestID uint, reviewerID int64) (*derivedModel.ReviewSession, error)

	// GetResponseTime returns the response time record.
	GetResponseTime(ctx context.Context, pullRequestID uint) (*derivedModel.ReviewResponseTime, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new derived metrics repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

func (r *repository) CreateSize(ctx context.Context, size *derivedModel.PullRequestSize) (bool, error) {
	return dedup.InsertOnce(ctx, r.db, size, dedup.Key{"pull_request_id": size.PullRequestID})
}

func (r *repository) CreateLifecycle(
	ctx context.Context,
	lifecycle *derivedModel.PullRequestLifecycle,
) (bool, error) {
	return dedup.InsertOnce(ctx, r.db, lifecycle, dedup.Key{"pull_request_id": lifecycle.PullRequestID})
}

func (r *repository) CreateActivity(ctx context.Context, activity *derivedModel.ReviewActivity) (bool, error) {
	return dedup.InsertOnce(ctx, r.db, activity, dedup.Key{"pull_request_id": activity.PullRequestID})
}

func (r *repository) UpsertSession(ctx context.Context, session *derivedModel.ReviewSession) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "pull_request_id"}, {Name: "reviewer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"review_count",
			"first_activity_at",
			"last_activity_at",
			"session_duration_minutes",
			"calculated_at",
		}),
	}).Create(session).Error
	if err != nil {
		return fmt.Errorf("failed to upsert review session: %w", err)
	}
	return nil
}

func (r *repository) UpsertResponseTime(ctx context.Context, rt *derivedModel.ReviewResponseTime) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "pull_request_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"changes_requested_count",
			"last_changes_requested_at",
			"first_approve_after_changes_at",
			"changes_resolution_minutes",
			"resolved",
			"calculated_at",
		}),
	}).Create(rt).Error
	if err != nil {
		return fmt.Errorf("failed to upsert review response time: %w", err)
	}
	return nil
}

func (r *repository) GetSize(ctx context.Context, pullRequestID uint) (*derivedModel.PullRequestSize, error) {
	var size derivedModel.PullRequestSize
	if err := r.first(ctx, &size, "pull_request_id = ?", pullRequestID); err != nil {
		return nil, err
	}
	return &size, nil
}

func (r *repository) GetLifecycle(
	ctx context.Context,
	pullRequestID uint,
) (*derivedModel.PullRequestLifecycle, error) {
	var lifecycle derivedModel.PullRequestLifecycle
	if err := r.first(ctx, &lifecycle, "pull_request_id = ?", pullRequestID); err != nil {
		return nil, err
	}
	return &lifecycle, nil
}

func (r *repository) GetActivity(ctx context.Context, pullRequestID uint) (*derivedModel.ReviewActivity, error) {
	var activity derivedModel.ReviewActivity
	if err := r.first(ctx, &activity, "pull_request_id = ?", pullRequestID); err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *repository) GetSession(
	ctx context.Context,
	pullRequestID uint,
	reviewerID int64,
) (*derivedModel.ReviewSession, error) {
	var session derivedModel.ReviewSession
	if err := r.first(ctx, &session, "pull_request_id = ? AND reviewer_id = ?", pullRequestID, reviewerID); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) GetResponseTime(
	ctx context.Context,
	pullRequestID uint,
) (*derivedModel.ReviewResponseTime, error) {
	var rt derivedModel.ReviewResponseTime
	if err := r.first(ctx, &rt, "pull_request_id = ?", pullRequestID); err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *repository) first(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	err := r.db.WithContext(ctx).Where(query, args...).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotDerived
	}
	if err != nil {
		return fmt.Errorf("failed to load derived metric: %w", err)
	}
	return nil
}
