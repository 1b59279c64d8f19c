// Package service applies review submission and review comment webhooks.
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/prmetrics/internal/event"
	"github.com/festy23/prmetrics/internal/ingest"
	projectModel "github.com/festy23/prmetrics/internal/project/model"
	pullrequestModel "github.com/festy23/prmetrics/internal/pullrequest/model"
	pullrequestRepository "github.com/festy23/prmetrics/internal/pullrequest/repository"
	reviewModel "github.com/festy23/prmetrics/internal/review/model"
	"github.com/festy23/prmetrics/internal/review/repository"
)

// Webhook kinds handled by this service.
const (
	KindSubmitted      = "review.submitted"
	KindCommentCreated = "review_comment.created"
	KindCommentEdited  = "review_comment.edited"
)

// Service defines the review webhook handlers.
type Service interface {
	// Submitted stores a review once per GitHub review id and always republishes
	// the submission so review metrics converge.
	Submitted(ctx context.Context, apiKey string, payload *reviewModel.SubmittedPayload) error

	// CommentCreated stores a review comment once per GitHub comment id.
	CommentCreated(ctx context.Context, apiKey string, payload *reviewModel.CommentPayload) error

	// CommentEdited overwrites the comment body unless the edit is older than the stored one.
	CommentEdited(ctx context.Context, apiKey string, payload *reviewModel.CommentPayload) error
}

type service struct {
	runner *ingest.Runner
	logger *zap.SugaredLogger
}

// New creates a new review service instance.
func New(runner *ingest.Runner, logger *zap.SugaredLogger) Service {
	return &service{runner: runner, logger: logger}
}

// Submitted stores the review.
func (s *service) Submitted(ctx context.Context, apiKey string, payload *reviewModel.SubmittedPayload) error {
	payload.State = string(reviewModel.ParseState(payload.State))

	return s.runner.Run(ctx, KindSubmitted, apiKey, payload,
		func(ctx context.Context, db *gorm.DB, project *projectModel.Project) ([]event.Event, error) {
			loc := project.Location()

			pr, err := pullrequestRepository.New(db, s.logger).LockByNumber(ctx, project.ID, payload.Number)
			if errors.Is(err, pullrequestModel.ErrPullRequestNotFound) {
				s.runner.Absorbed(KindSubmitted, ingest.ReasonNotFound,
					"project_id", project.ID,
					"number", payload.Number,
					"github_review_id", payload.GithubReviewID,
				)
				return nil, nil
			}
			if err != nil {
				return nil, err
			}

			inserted, err := repository.New(db, s.logger).AddReview(ctx, &reviewModel.Review{
				PullRequestID:  pr.ID,
				GithubReviewID: payload.GithubReviewID,
				ReviewerID:     payload.ReviewerID,
				ReviewerLogin:  payload.ReviewerLogin,
				State:          reviewModel.State(payload.State),
				CommentCount:   payload.CommentCount,
				SubmittedAt:    payload.SubmittedAt.In(loc),
			})
			if err != nil {
				return nil, err
			}
			if !inserted {
				s.runner.Absorbed(KindSubmitted, ingest.ReasonDuplicate,
					"pull_request_id", pr.ID,
					"github_review_id", payload.GithubReviewID,
				)
			}

			return []event.Event{{
				Kind:          event.KindReviewSubmitted,
				ProjectID:     project.ID,
				PullRequestID: pr.ID,
				OccurredAt:    payload.SubmittedAt.In(loc),
				ReviewerID:    payload.ReviewerID,
				ToState:       payload.State,
			}}, nil
		})
}

// CommentCreated stores the comment.
func (s *service) CommentCreated(ctx context.Context, apiKey string, payload *reviewModel.CommentPayload) error {
	return s.runner.Run(ctx, KindCommentCreated, apiKey, payload,
		func(ctx context.Context, db *gorm.DB, project *projectModel.Project) ([]event.Event, error) {
			pr, err := pullrequestRepository.New(db, s.logger).LockByNumber(ctx, project.ID, payload.Number)
			if err != nil {
				return nil, err
			}

			comment := toComment(pr.ID, payload, project)
			inserted, err := repository.New(db, s.logger).AddComment(ctx, comment)
			if err != nil {
				return nil, err
			}
			if !inserted {
				s.runner.Absorbed(KindCommentCreated, ingest.ReasonDuplicate,
					"pull_request_id", pr.ID,
					"github_comment_id", payload.GithubCommentID,
				)
				return nil, nil
			}
			return []event.Event{commentEvent(project, comment, "CREATED")}, nil
		})
}

// CommentEdited applies the edit last-write-wins by update time. An edit for a
// comment never seen creates it, since created and edited may arrive out of order.
func (s *service) CommentEdited(ctx context.Context, apiKey string, payload *reviewModel.CommentPayload) error {
	return s.runner.Run(ctx, KindCommentEdited, apiKey, payload,
		func(ctx context.Context, db *gorm.DB, project *projectModel.Project) ([]event.Event, error) {
			pr, err := pullrequestRepository.New(db, s.logger).LockByNumber(ctx, project.ID, payload.Number)
			if err != nil {
				return nil, err
			}

			repo := repository.New(db, s.logger)
			incoming := toComment(pr.ID, payload, project)

			stored, err := repo.GetComment(ctx, payload.GithubCommentID)
			if errors.Is(err, repository.ErrCommentNotFound) {
				if _, err := repo.AddComment(ctx, incoming); err != nil {
					return nil, err
				}
				return []event.Event{commentEvent(project, incoming, "EDITED")}, nil
			}
			if err != nil {
				return nil, err
			}

			if incoming.UpdatedAt.Before(stored.UpdatedAt) {
				s.runner.Absorbed(KindCommentEdited, ingest.ReasonStateConflict,
					"pull_request_id", pr.ID,
					"github_comment_id", payload.GithubCommentID,
					"stored_updated_at", stored.UpdatedAt,
					"incoming_updated_at", incoming.UpdatedAt,
				)
				return nil, nil
			}

			stored.Body = incoming.Body
			stored.UpdatedAt = incoming.UpdatedAt
			if err := repo.UpdateComment(ctx, stored); err != nil {
				return nil, err
			}
			return []event.Event{commentEvent(project, stored, "EDITED")}, nil
		})
}

func toComment(pullRequestID uint, p *reviewModel.CommentPayload, project *projectModel.Project) *reviewModel.Comment {
	loc := project.Location()
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = p.CreatedAt
	}
	return &reviewModel.Comment{
		PullRequestID:   pullRequestID,
		GithubCommentID: p.GithubCommentID,
		GithubReviewID:  p.GithubReviewID,
		AuthorID:        p.AuthorID,
		AuthorLogin:     p.AuthorLogin,
		Path:            p.Path,
		Body:            p.Body,
		CreatedAt:       p.CreatedAt.In(loc),
		UpdatedAt:       updatedAt.In(loc),
	}
}

func commentEvent(project *projectModel.Project, c *reviewModel.Comment, action string) event.Event {
	return event.Event{
		Kind:          event.KindReviewCommentChanged,
		ProjectID:     project.ID,
		PullRequestID: c.PullRequestID,
		OccurredAt:    c.UpdatedAt,
		ReviewerID:    c.AuthorID,
		Action:        action,
	}
}
