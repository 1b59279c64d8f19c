// Package service applies review_requested and review_request_removed webhooks.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/prmetrics/internal/event"
	"github.com/festy23/prmetrics/internal/ingest"
	projectModel "github.com/festy23/prmetrics/internal/project/model"
	pullrequestModel "github.com/festy23/prmetrics/internal/pullrequest/model"
	pullrequestRepository "github.com/festy23/prmetrics/internal/pullrequest/repository"
	reviewerModel "github.com/festy23/prmetrics/internal/reviewer/model"
	"github.com/festy23/prmetrics/internal/reviewer/repository"
)

// Webhook kinds handled by this service.
const (
	KindAdded   = "reviewer.added"
	KindRemoved = "reviewer.removed"
)

// Service defines the requested reviewer webhook handlers.
type Service interface {
	// Added requests a reviewer. Fails with ErrPullRequestNotFound for an unknown pull request.
	Added(ctx context.Context, apiKey string, payload *reviewerModel.Payload) error

	// Removed withdraws a review request. Unknown pull requests and absent requests are no-ops.
	Removed(ctx context.Context, apiKey string, payload *reviewerModel.Payload) error
}

type service struct {
	runner *ingest.Runner
	logger *zap.SugaredLogger
}

// New creates a new reviewer service instance.
func New(runner *ingest.Runner, logger *zap.SugaredLogger) Service {
	return &service{runner: runner, logger: logger}
}

// Added requests a reviewer and records history once per logical add.
func (s *service) Added(ctx context.Context, apiKey string, payload *reviewerModel.Payload) error {
	return s.runner.Run(ctx, KindAdded, apiKey, payload,
		func(ctx context.Context, db *gorm.DB, project *projectModel.Project) ([]event.Event, error) {
			at := payload.OccurredAt.In(project.Location())

			pr, err := pullrequestRepository.New(db, s.logger).LockByNumber(ctx, project.ID, payload.Number)
			if err != nil {
				return nil, err
			}

			repo := repository.New(db, s.logger)
			inserted, err := repo.Add(ctx, &reviewerModel.RequestedReviewer{
				PullRequestID:    pr.ID,
				GithubReviewerID: payload.ReviewerID,
				Login:            payload.ReviewerLogin,
				RequestedAt:      at,
			})
			if err != nil {
				return nil, err
			}
			if !inserted {
				s.runner.Absorbed(KindAdded, ingest.ReasonDuplicate,
					"pull_request_id", pr.ID,
					"reviewer_id", payload.ReviewerID,
				)
				return nil, nil
			}

			return s.record(ctx, repo, project, pr, payload, reviewerModel.ActionAdded, at)
		})
}

// Removed withdraws the request and records history only if a row was deleted.
func (s *service) Removed(ctx context.Context, apiKey string, payload *reviewerModel.Payload) error {
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
			removed, err := repo.Remove(ctx, pr.ID, payload.ReviewerID)
			if err != nil {
				return nil, err
			}
			if !removed {
				s.runner.Absorbed(KindRemoved, ingest.ReasonDuplicate,
					"pull_request_id", pr.ID,
					"reviewer_id", payload.ReviewerID,
				)
				return nil, nil
			}

			return s.record(ctx, repo, project, pr, payload, reviewerModel.ActionRemoved, at)
		})
}

func (s *service) record(
	ctx context.Context,
	repo repository.Repository,
	project *projectModel.Project,
	pr *pullrequestModel.PullRequest,
	payload *reviewerModel.Payload,
	action reviewerModel.Action,
	at time.Time,
) ([]event.Event, error) {
	err := repo.AppendHistory(ctx, &reviewerModel.History{
		PullRequestID:    pr.ID,
		GithubReviewerID: payload.ReviewerID,
		Login:            payload.ReviewerLogin,
		Action:           action,
		ChangedAt:        at,
	})
	if err != nil {
		return nil, err
	}

	return []event.Event{{
		Kind:          event.KindReviewerChanged,
		ProjectID:     project.ID,
		PullRequestID: pr.ID,
		OccurredAt:    at,
		ReviewerID:    payload.ReviewerID,
		Action:        string(action),
	}}, nil
}
