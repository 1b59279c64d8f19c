// Package repository provides data access for current labels and label history.
package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/prmetrics/internal/dedup"
	labelModel "github.com/festy23/prmetrics/internal/label/model"
)

// Repository defines label data access.
type Repository interface {
	// Add applies the label unless it is already applied and reports whether it did.
	Add(ctx context.Context, label *labelModel.Label) (bool, error)

	// Remove deletes the label and reports whether exactly one row was removed.
	Remove(ctx context.Context, pullRequestID uint, name string) (bool, error)

	// AppendHistory records an applied change.
	AppendHistory(ctx context.Context, history *labelModel.History) error

	// List returns current labels ordered by name.
	List(ctx context.Context, pullRequestID uint) ([]labelModel.Label, error)

	// History returns label history in order.
	History(ctx context.Context, pullRequestID uint) ([]labelModel.History, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new label repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// Add applies the label unless it is already applied.
func (r *repository) Add(ctx context.Context, label *labelModel.Label) (bool, error) {
	return dedup.InsertOnce(ctx, r.db, label, dedup.Key{
		"pull_request_id": label.PullRequestID,
		"name":            label.Name,
	})
}

// Remove deletes the label.
func (r *repository) Remove(ctx context.Context, pullRequestID uint, name string) (bool, error) {
	return dedup.DeleteOnce(ctx, r.db, &labelModel.Label{}, dedup.Key{
		"pull_request_id": pullRequestID,
		"name":            name,
	})
}

// AppendHistory records an applied change.
func (r *repository) AppendHistory(ctx context.Context, history *labelModel.History) error {
	if err := r.db.WithContext(ctx).Create(history).Error; err != nil {
		return fmt.Errorf("failed to append label history: %w", err)
	}
	return nil
}

// List returns current labels ordered by name.
func (r *repository) List(ctx context.Context, pullRequestID uint) ([]labelModel.Label, error) {
	var labels []labelModel.Label
	err := r.db.WithContext(ctx).
		Where("pull_request_id = ?", pullRequestID).
		Order("name").
		Find(&labels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return labels, nil
}

// History returns label history in order.
func (r *repository) History(ctx context.Context, pullRequestID uint) ([]labelModel.History, error) {
	var rows []labelModel.History
	err := r.db.WithContext(ctx).
		Where("pull_request_id = ?", pullRequestID).
		Order("changed_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list label history: %w", err)
	}
	return rows, nil
}
