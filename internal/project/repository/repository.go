// Package repository provides data access for projects.
package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	projectModel "github.com/festy23/prmetrics/internal/project/model"
)

// Repository defines project lookups used by webhook handlers and statistics queries.
type Repository interface {
	// FindByAPIKey returns the project registered for the API key.
	FindByAPIKey(ctx context.Context, apiKey string) (*projectModel.Project, error)

	// GetOwnedByUser returns the project if it exists and belongs to the user.
	GetOwnedByUser(ctx context.Context, userID string, projectID uint) (*projectModel.Project, error)

	// Create registers a project.
	Create(ctx context.Context, project *projectModel.Project) error
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new project repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// FindByAPIKey returns the project registered for the API key.
func (r *repository) FindByAPIKey(ctx context.Context, apiKey string) (*projectModel.Project, error) {
	if apiKey == "" {
		return nil, projectModel.ErrInvalidAPIKey
	}

	var project projectModel.Project
	err := r.db.WithContext(ctx).Where("api_key = ?", apiKey).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, projectModel.ErrInvalidAPIKey
	}
	if err != nil {
		r.logger.Errorw("failed to find project by api key", "error", err)
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return &project, nil
}

// GetOwnedByUser returns the project if it exists and belongs to the user.
func (r *repository) GetOwnedByUser(
	ctx context.Context,
	userID string,
	projectID uint,
) (*projectModel.Project, error) {
	var project projectModel.Project
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", projectID, userID).
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, projectModel.ErrProjectNotFound
	}
	if err != nil {
		r.logger.Errorw("failed to get project", "project_id", projectID, "error", err)
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

// Create registers a project.
func (r *repository) Create(ctx context.Context, project *projectModel.Project) error {
	if project.TimeZone == "" {
		project.TimeZone = "UTC"
	}
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}
