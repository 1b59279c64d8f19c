// Package service applies pull request lifecycle webhooks to the aggregate.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/prmetrics/internal/event"
	"github.com/festy23/prmetrics/internal/ingest"
	projectModel "github.com/festy23/prmetrics/internal/project/model"
	pullrequestModel "github.com/festy23/prmetrics/internal/pullrequest/model"
	"github.com/festy23/prmetrics/internal/pullrequest/repository"
)

// Webhook kinds handled by this service.
const (
	KindOpened           = "pull_request.opened"
	KindSynchronize      = "pull_request.synchronize"
	KindClosed           = "pull_request.closed"
	KindConvertedToDraft = "pull_request.converted_to_draft"
	KindReadyForReview   = "pull_request.ready_for_review"
)

// Service defines the pull request webhook handlers.
type Service interface {
	// Opened creates the pull request. A redelivery is a no-op that republishes the opened event.
	Opened(ctx context.Context, apiKey string, payload *pullrequestModel.OpenedPayload) error

	// Synchronized records new commits and, when the head commit is part of the
	// delivered list, replaces head commit and change stats.
	Synchronized(ctx context.Context, apiKey string, payload *pullrequestModel.SynchronizePayload) error

	// Closed moves the pull request to MERGED or CLOSED.
	Closed(ctx context.Context, apiKey string, payload *pullrequestModel.ClosedPayload) error

	// ConvertedToDraft moves an OPEN pull request to DRAFT.
	ConvertedToDraft(ctx context.Context, apiKey string, payload *pullrequestModel.StateChangePayload) error

	// ReadyForReview moves a DRAFT pull request to OPEN.
	ReadyForReview(ctx context.Context, apiKey string, payload *pullrequestModel.StateChangePayload) error
}

type service struct {
	runner *ingest.Runner
	logger *zap.SugaredLogger
}

// New creates a new pull request service instance.
func New(runner *ingest.Runner, logger *zap.SugaredLogger) Service {
	return &service{runner: runner, logger: logger}
}

// Opened creates the pull request with its initial state history, commits and files.
func (s *service) Opened(ctx context.Context, apiKey string, payload *pullrequestModel.OpenedPayload) error {
	return s.runner.Run(ctx, KindOpened, apiKey, payload,
		func(ctx context.Context, db *gorm.DB, project *projectModel.Project) ([]event.Event, error) {
			loc := project.Location()
			commitCount := payload.CommitCount
			if commitCount == 0 {
				commitCount = len(lo.UniqBy(payload.Commits, commitSHA))
			}

			pr, err := pullrequestModel.New(pullrequestModel.OpenParams{
				ProjectID:           project.ID,
				Number:              payload.Number,
				GithubPullRequestID: payload.GithubPullRequestID,
				Author:              payload.Author,
				HeadCommitSHA:       payload.HeadCommitSHA,
				Title:               payload.Title,
				Link:                payload.Link,
				Draft:               payload.Draft,
				Stats: pullrequestModel.ChangeStats{
					ChangedFiles: payload.ChangedFiles,
					Additions:    payload.Additions,
					Deletions:    payload.Deletions,
				},
				CommitCount: commitCount,
				CreatedAt:   payload.CreatedAt.In(loc),
			})
			if err != nil {
				return nil, err
			}

			repo := repository.New(db, s.logger)
			inserted, err := repo.Create(ctx, pr)
			if err != nil {
				return nil, err
			}
			if !inserted {
				existing, err := repo.GetByNumber(ctx, project.ID, payload.Number)
				if err != nil {
					return nil, err
				}
				s.runner.Absorbed(KindOpened, ingest.ReasonDuplicate,
					"project_id", project.ID,
					"number", payload.Number,
				)
				return []event.Event{openedEvent(existing, payload.OccurredAt.In(loc))}, nil
			}

			err = repo.AppendStateHistory(ctx, &pullrequestModel.StateHistory{
				PullRequestID: pr.ID,
				ToState:       pr.State,
				ChangedAt:     pr.CreatedAt,
			})
			if err != nil {
				return nil, err
			}
			if _, err := repo.AddCommits(ctx, pr.ID, toCommits(payload.Commits, loc)); err != nil {
				return nil, err
			}
			if err := repo.ReplaceFiles(ctx, pr.ID, toFiles(payload.Files)); err != nil {
				return nil, err
			}

			s.logger.Infow("pull request opened",
				"project_id", project.ID,
				"pull_request_id", pr.ID,
				"number", pr.Number,
				"state", pr.State,
			)
			return []event.Event{openedEvent(pr, payload.OccurredAt.In(loc))}, nil
		})
}

// Synchronized applies a push to the pull request.
func (s *service) Synchronized(
	ctx context.Context,
	apiKey string,
	payload *pullrequestModel.SynchronizePayload,
) error {
	return s.runner.Run(ctx, KindSynchronize, apiKey, payload,
		func(ctx context.Context, db *gorm.DB, project *projectModel.Project) ([]event.Event, error) {
			loc := project.Location()
			repo := repository.New(db, s.logger)

			pr, ok, err := s.lock(ctx, repo, KindSynchronize, project, payload.Number)
			if err != nil || !ok {
				return nil, err
			}
			if pr.State.IsTerminal() {
				s.runner.Absorbed(KindSynchronize, ingest.ReasonStateConflict,
					"pull_request_id", pr.ID,
					"state", pr.State,
				)
				return nil, nil
			}

			stored, err := repo.CommitSHAs(ctx, pr.ID)
			if err != nil {
				return nil, err
			}
			delivered := lo.UniqBy(payload.Commits, commitSHA)
			deliveredSHAs := lo.Map(delivered, func(c pullrequestModel.CommitPayload, _ int) string {
				return c.SHA
			})
			newSHAs := lo.Without(deliveredSHAs, stored...)
			isNewer := lo.Contains(deliveredSHAs, payload.HeadCommitSHA)

			newCommits := lo.Filter(delivered, func(c pullrequestModel.CommitPayload, _ int) bool {
				return lo.Contains(newSHAs, c.SHA)
			})
			if _, err := repo.AddCommits(ctx, pr.ID, toCommits(newCommits, loc)); err != nil {
				return nil, err
			}

			if isNewer {
				stats := pullrequestModel.ChangeStats{
					ChangedFiles: payload.ChangedFiles,
					Additions:    payload.Additions,
					Deletions:    payload.Deletions,
				}
				if err := pr.ApplySynchronize(payload.HeadCommitSHA, stats, len(deliveredSHAs)); err != nil {
					return nil, err
				}
				if err := repo.Save(ctx, pr); err != nil {
					return nil, err
				}
				if err := repo.ReplaceFiles(ctx, pr.ID, toFiles(payload.Files)); err != nil {
					return nil, err
				}
			} else {
				s.logger.Infow("stale synchronize, head commit not in delivered list",
					"pull_request_id", pr.ID,
					"head_commit_sha", payload.HeadCommitSHA,
				)
			}

			return []event.Event{{
				Kind:          event.KindCommitsSynchronized,
				ProjectID:     project.ID,
				PullRequestID: pr.ID,
				OccurredAt:    payload.OccurredAt.In(loc),
				NewCommits:    newSHAs,
				IsNewer:       isNewer,
			}}, nil
		})
}

// Closed moves the pull request to a terminal state. A repeated close is absorbed
// and the closed event is republished so closure metrics converge.
func (s *service) Closed(ctx context.Context, apiKey string, payload *pullrequestModel.ClosedPayload) error {
	return s.runner.Run(ctx, KindClosed, apiKey, payload,
		func(ctx context.Context, db *gorm.DB, project *projectModel.Project) ([]event.Event, error) {
			loc := project.Location()
			repo := repository.New(db, s.logger)

			pr, ok, err := s.lock(ctx, repo, KindClosed, project, payload.Number)
			if err != nil || !ok {
				return nil, err
			}

			closedAt := payload.ClosedAt.In(loc)
			transition, err := pr.Close(payload.Merged, closedAt)
			if pullrequestModel.IsStateConflict(err) {
				s.runner.Absorbed(KindClosed, ingest.ReasonStateConflict,
					"pull_request_id", pr.ID,
					"state", pr.State,
				)
				if pr.ClosedAt != nil {
					closedAt = *pr.ClosedAt
				}
				return []event.Event{closedEvent(project.ID, pr, closedAt)}, nil
			}
			if err != nil {
				return nil, err
			}

			if err := s.persistTransition(ctx, repo, pr, transition, *pr.ClosedAt); err != nil {
				return nil, err
			}
			return []event.Event{closedEvent(project.ID, pr, *pr.ClosedAt)}, nil
		})
}

// ConvertedToDraft moves an OPEN pull request to DRAFT.
func (s *service) ConvertedToDraft(
	ctx context.Context,
	apiKey string,
	payload *pullrequestModel.StateChangePayload,
) error {
	return s.changeState(ctx, KindConvertedToDraft, apiKey, payload,
		(*pullrequestModel.PullRequest).ConvertToDraft)
}

// ReadyForReview moves a DRAFT pull request to OPEN.
func (s *service) ReadyForReview(
	ctx context.Context,
	apiKey string,
	payload *pullrequestModel.StateChangePayload,
) error {
	return s.changeState(ctx, KindReadyForReview, apiKey, payload,
		(*pullrequestModel.PullRequest).MarkReadyForReview)
}

func (s *service) changeState(
	ctx context.Context,
	kind string,
	apiKey string,
	payload *pullrequestModel.StateChangePayload,
	command func(*pullrequestModel.PullRequest) (pullrequestModel.Transition, error),
) error {
	return s.runner.Run(ctx, kind, apiKey, payload,
		func(ctx context.Context, db *gorm.DB, project *projectModel.Project) ([]event.Event, error) {
			at := payload.OccurredAt.In(project.Location())
			repo := repository.New(db, s.logger)

			pr, ok, err := s.lock(ctx, repo, kind, project, payload.Number)
			if err != nil || !ok {
				return nil, err
			}

			transition, err := command(pr)
			if pullrequestModel.IsStateConflict(err) {
				s.runner.Absorbed(kind, ingest.ReasonStateConflict,
					"pull_request_id", pr.ID,
					"state", pr.State,
					"error", err,
				)
				return nil, nil
			}
			if err != nil {
				return nil, err
			}

			if err := s.persistTransition(ctx, repo, pr, transition, at); err != nil {
				return nil, err
			}
			return []event.Event{{
				Kind:          event.KindPullRequestStateChanged,
				ProjectID:     project.ID,
				PullRequestID: pr.ID,
				OccurredAt:    at,
				FromState:     string(transition.From),
				ToState:       string(transition.To),
			}}, nil
		})
}

// lock loads the pull request under a row lock. An unknown pull request is absorbed
// since GitHub does not guarantee delivery order.
func (s *service) lock(
	ctx context.Context,
	repo repository.Repository,
	kind string,
	project *projectModel.Project,
	number int,
) (*pullrequestModel.PullRequest, bool, error) {
	pr, err := repo.LockByNumber(ctx, project.ID, number)
	if errors.Is(err, pullrequestModel.ErrPullRequestNotFound) {
		s.runner.Absorbed(kind, ingest.ReasonNotFound,
			"project_id", project.ID,
			"number", number,
		)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return pr, true, nil
}

func (s *service) persistTransition(
	ctx context.Context,
	repo repository.Repository,
	pr *pullrequestModel.PullRequest,
	transition pullrequestModel.Transition,
	at time.Time,
) error {
	if err := repo.Save(ctx, pr); err != nil {
		return err
	}
	if err := repo.AppendStateHistory(ctx, &pullrequestModel.StateHistory{
		PullRequestID: pr.ID,
		FromState:     transition.From,
		ToState:       transition.To,
		ChangedAt:     at,
	}); err != nil {
		return err
	}

	s.logger.Infow("pull request state changed",
		"pull_request_id", pr.ID,
		"from", transition.From,
		"to", transition.To,
	)
	return nil
}

func openedEvent(pr *pullrequestModel.PullRequest, at time.Time) event.Event {
	return event.Event{
		Kind:          event.KindPullRequestOpened,
		ProjectID:     pr.ProjectID,
		PullRequestID: pr.ID,
		OccurredAt:    at,
		ToState:       string(pr.State),
	}
}

func closedEvent(projectID uint, pr *pullrequestModel.PullRequest, at time.Time) event.Event {
	return event.Event{
		Kind:          event.KindPullRequestClosed,
		ProjectID:     projectID,
		PullRequestID: pr.ID,
		OccurredAt:    at,
		ToState:       string(pr.State),
	}
}

func commitSHA(c pullrequestModel.CommitPayload) string {
	return c.SHA
}

func toCommits(payloads []pullrequestModel.CommitPayload, loc *time.Location) []pullrequestModel.Commit {
	return lo.Map(lo.UniqBy(payloads, commitSHA), func(c pullrequestModel.CommitPayload, _ int) pullrequestModel.Commit {
		return pullrequestModel.Commit{SHA: c.SHA, CommittedAt: c.CommittedAt.In(loc)}
	})
}

func toFiles(payloads []pullrequestModel.FilePayload) []pullrequestModel.File {
	return lo.Map(payloads, func(f pullrequestModel.FilePayload, _ int) pullrequestModel.File {
		return pullrequestModel.File{
			Path:      f.Path,
			Status:    pullrequestModel.FileStatus(strings.ToLower(f.Status)),
			Additions: f.Additions,
			Deletions: f.Deletions,
		}
	})
}
