// Package service applies labeled and unlabeled webhooks.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/prmetrics/internal/event"
	"github.com/festy23/prmetrics/internal/ingest"
	labelModel "github.com/festy23/prmetrics/internal/label/model"
	"github.com/festy23/prmetrics/internal/label/repository"
	projectModel "github.com/festy23/prmetrics/internal/project/model"
	pullrequestModel "github.com/festy23/prmetrics/internal/pullrequest/model"
	pullrequestRepository "github.com/festy23/prmetrics/internal/pullrequest/repository"
)

// Webhook kinds handled by this service.
const (
	KindAdded   = "label.added"
	KindRemoved = "label.removed"
)

// Service defines the label webhook handlers.
type Service interface {
	// Added applies the label. Fails with ErrPullRequestNotFound for an unknown pull request.
	Added(ctx context.Context, apiKey string, payload *labelModel.Payload) error

	// Removed removes the label. Unknown pull requests and absent labels are no-ops.
	Removed(ctx context.Context, apiKey string, payload *labelModel.Payload) error
}

type service struct {
	runner *ingest.Runner
	logger *zap.SugaredLogger
}

// New creates a new label service instance.
func New(runner *ingest.Runner, logger *zap.SugaredLogger) Service {
	return &service{runner: runner, logger: logger}
}

// Added applies the label and records history once per logical add.
func (s *service) Added(ctx context.Context, apiKey string, payload *labelModel.Payload) error {
	return s.runner.Run(ctx, KindAdded, apiKey, payload,
		func(ctx context.Context, db *gorm.DB, project *projectModel.Project) ([]event.Event, error) {
			at := payload.OccurredAt.In(project.Location())

			pr, err := pullrequestRepository.New(db, s.logger).LockByNumber(ctx, project.ID, payload.Number)
			if err != nil {
				return nil, err
			}

			repo := repository.New(db, s.logger)
			inserted, err := repo.Add(ctx, &labelModel.Label{
				PullRequestID: pr.ID,
				Name:          payload.Name,
				AddedAt:       at,
			})
			if err != nil {
				return nil, err
			}
			if !inserted {
				s.runner.Absorbed(KindAdded, ingest.ReasonDuplicate,
					"pull_request_id", pr.ID,
					"label", payload.Name,
				)
				return nil, nil
			}

			return s.record(ctx, repo, project, pr, payload.Name, labelModel.ActionAdded, at)
		})
}

// Removed removes the label and records history only if a row was deleted.
func (s *service) Removed(ctx context.Context, apiKey string, payload *labelModel.Payload) error {
	return s.runner.Run(ctx, KindRemoved, apiKey, payload,
		func(ctx context.Context, db *gorm.DB, project *projectModel.Project) ([]event.Event, error) {
			at := payload.OccurredAt.In(project.Location())

			pr, err := pullrequestRepository.New(db, s.logger).LockByNumber(ctx, project.ID, payload.Number)
			if errors.Is(err, pullrequestModel.ErrPullRequestNotFound) {
				s.runner.Absorbed(KindRemoved, ingest.ReasonNotFound,
					"project_id", project.ID,
					"number", payload.Number,
				)
				return nil, nil
			}
			if err != nil {
				return nil, err
			}

			repo := repository.New(db, s.logger)
			removed, err := repo.Remove(ctx, pr.ID, payload.Name)
			if err != nil {
				return nil, err
			}
			if !removed {
				s.runner.Absorbed(KindRemoved, ingest.ReasonDuplicate,
					"pull_request_id", pr.ID,
					"label", payload.Name,
				)
				return nil, nil
			}

			return s.record(ctx, repo, project, pr, payload.Name, labelModel.ActionRemoved, at)
		})
}

func (s *service) record(
	ctx context.Context,
	repo repository.Repository,
	project *projectModel.Project,
	pr *pullrequestModel.PullRequest,
	name string,
	action labelModel.Action,
	at time.Time,
) ([]event.Event, error) {
	err := repo.AppendHistory(ctx, &labelModel.History{
		PullRequestID: pr.ID,
		Name:          name,
		Action:        action,
		ChangedAt:     at,
	})
	if err != nil {
		return nil, err
	}

	return []event.Event{{
		Kind:          event.KindLabelChanged,
		ProjectID:     project.ID,
		PullRequestID: pr.ID,
		OccurredAt:    at,
		Label:         name,
		Action:        string(action),
	}}, nil
}
