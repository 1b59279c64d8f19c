// Package repository provides data access layer for statistics module.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	derivedModel "github.com/festy23/prmetrics/internal/derived/model"
	pullrequestModel "github.com/festy23/prmetrics/internal/pullrequest/model"
	"github.com/festy23/prmetrics/internal/statistics/model"
)

// Repository defines read-only queries for statistics.
type Repository interface {
	// Load returns pull requests of the project created in [from, to) with their
	// derived records and reviews. Nil bounds are open.
	Load(ctx context.Context, projectID uint, from, to *time.Time) (*model.Snapshot, error)

	// EarliestCreatedAt returns the creation time of the project's first pull request.
	EarliestCreatedAt(ctx context.Context, projectID uint) (time.Time, bool, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new statistics repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{
		db:     db,
		logger: logger,
	}
}

// Load returns the snapshot for a project and range.
func (r *repository) Load(ctx context.Context, projectID uint, from, to *time.Time) (*model.Snapshot, error) {
	db := r.db.WithContext(ctx)

	query := db.Where("project_id = ?", projectID)
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at < ?", *to)
	}

	var prs []pullrequestModel.PullRequest
	if err := query.Order("created_at, id").Find(&prs).Error; err != nil {
		r.logger.Errorw("failed to load pull requests", "project_id", projectID, "error", err)
		return nil, fmt.Errorf("failed to load pull requests: %w", err)
	}

	snapshot := &model.Snapshot{
		PullRequests: prs,
		Sizes:        map[uint]derivedModel.PullRequestSize{},
		Lifecycles:   map[uint]derivedModel.PullRequestLifecycle{},
		Activities:   map[uint]derivedModel.ReviewActivity{},
	}
	if len(prs) == 0 {
		return snapshot, nil
	}

	ids := lo.Map(prs, func(pr pullrequestModel.PullRequest, _ int) uint { return pr.ID })

	var sizes []derivedModel.PullRequestSize
	if err := db.Where("pull_request_id IN ?", ids).Find(&sizes).Error; err != nil {
		return nil, fmt.Errorf("failed to load sizes: %w", err)
	}
	var lifecycles []derivedModel.PullRequestLifecycle
	if err := db.Where("pull_request_id IN ?", ids).Find(&lifecycles).Error; err != nil {
		return nil, fmt.Errorf("failed to load lifecycles: %w", err)
	}
	var activities []derivedModel.ReviewActivity
	if err := db.Where("pull_request_id IN ?", ids).Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("failed to load review activities: %w", err)
	}
	if err := db.Where("pull_request_id IN ?", ids).
		Order("submitted_at, github_review_id").
		Find(&snapshot.Reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}

	snapshot.Sizes = lo.KeyBy(sizes, func(s derivedModel.PullRequestSize) uint { return s.PullRequestID })
	snapshot.Lifecycles = lo.KeyBy(lifecycles, func(l derivedModel.PullRequestLifecycle) uint { return l.PullRequestID })
	snapshot.Activities = lo.KeyBy(activities, func(a derivedModel.ReviewActivity) uint { return a.PullRequestID })

	r.logger.Debugw("statistics snapshot loaded",
		"project_id", projectID,
		"pull_requests", len(prs),
		"reviews", len(snapshot.Reviews),
	)
	return snapshot, nil
}

// EarliestCreatedAt returns the creation time of the project's first pull request.
func (r *repository) EarliestCreatedAt(ctx context.Context, projectID uint) (time.Time, bool, error) {
	var pr pullrequestModel.PullRequest
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at").
		First(&pr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to find earliest pull request: %w", err)
	}
	return pr.CreatedAt, true, nil
}
