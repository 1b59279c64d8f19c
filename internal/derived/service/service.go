// Package service is the derived-metrics engine. Every computation is idempotent:
// once-per-pull-request records are created if absent, and per-review records are
// recomputed in full from stored history, so redelivered events converge.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/prmetrics/internal/database/tx"
	"github.com/festy23/prmetrics/internal/derived/calculator"
	"github.com/festy23/prmetrics/internal/derived/repository"
	"github.com/festy23/prmetrics/internal/event"
	"github.com/festy23/prmetrics/internal/metrics"
	pullrequestModel "github.com/festy23/prmetrics/internal/pullrequest/model"
	pullrequestRepository "github.com/festy23/prmetrics/internal/pullrequest/repository"
	reviewRepository "github.com/festy23/prmetrics/internal/review/repository"
	reviewerRepository "github.com/festy23/prmetrics/internal/reviewer/repository"
)

// Derived record names used in metrics and logs.
const (
	recordSize         = "size"
	recordLifecycle    = "lifecycle"
	recordActivity     = "activity"
	recordSession      = "session"
	recordResponseTime = "response_time"
)

// Results recorded per computation.
const (
	resultCreated = "created"
	resultSkipped = "skipped"
	resultUpdated = "updated"
)

// Service defines the derived-metrics engine.
type Service interface {
	// DeriveMetricsForPullRequest computes the size record once per pull request.
	DeriveMetricsForPullRequest(ctx context.Context, pullRequestID uint) error

	// DeriveClosureMetrics computes lifecycle and review activity once per pull request.
	DeriveClosureMetrics(
		ctx context.Context,
		pullRequestID uint,
		finalState pullrequestModel.State,
		at time.Time,
	) error

	// DeriveReviewMetrics recomputes the reviewer's session and the pull request's
	// response time from every stored review.
	DeriveReviewMetrics(ctx context.Context, pullRequestID uint, reviewerID int64) error

	// Subscribe registers the engine on the dispatcher.
	Subscribe(d *event.Dispatcher)
}

// Option configures the service.
type Option func(*service)

// WithClock overrides the time source used for CalculatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

type service struct {
	db          *gorm.DB
	calc        *calculator.Calculator
	lockTimeout time.Duration
	now         func() time.Time
	logger      *zap.SugaredLogger
}

// New creates the derived-metrics engine.
func New(
	db *gorm.DB,
	calc *calculator.Calculator,
	lockTimeout time.Duration,
	logger *zap.SugaredLogger,
	opts ...Option,
) Service {
	s := &service{
		db:          db,
		calc:        calc,
		lockTimeout: lockTimeout,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers handlers for opened, closed and review submitted events.
func (s *service) Subscribe(d *event.Dispatcher) {
	d.Subscribe(event.KindPullRequestOpened, func(ctx context.Context, e event.Event) error {
		return s.DeriveMetricsForPullRequest(ctx, e.PullRequestID)
	})
	d.Subscribe(event.KindPullRequestClosed, func(ctx context.Context, e event.Event) error {
		return s.DeriveClosureMetrics(ctx, e.PullRequestID, pullrequestModel.State(e.ToState), e.OccurredAt)
	})
	d.Subscribe(event.KindReviewSubmitted, func(ctx context.Context, e event.Event) error {
		return s.DeriveReviewMetrics(ctx, e.PullRequestID, e.ReviewerID)
	})
}

// DeriveMetricsForPullRequest computes the size record.
func (s *service) DeriveMetricsForPullRequest(ctx context.Context, pullRequestID uint) error {
	return tx.Run(ctx, s.db, s.lockTimeout, func(db *gorm.DB) error {
		prRepo := pullrequestRepository.New(db, s.logger)
		pr, err := prRepo.GetByID(ctx, pullRequestID)
		if err != nil {
			return err
		}
		files, err := prRepo.Files(ctx, pr.ID)
		if err != nil {
			return err
		}

		created, err := repository.New(db, s.logger).CreateSize(ctx, s.calc.Size(pr, files, s.now()))
		if err != nil {
			return err
		}
		s.record(recordSize, created, pr.ID)
		return nil
	})
}

// DeriveClosureMetrics computes lifecycle and review activity. Timing comes from the
// stored aggregate; finalState and at only cross-check the triggering event.
func (s *service) DeriveClosureMetrics(
	ctx context.Context,
	pullRequestID uint,
	finalState pullrequestModel.State,
	at time.Time,
) error {
	return tx.Run(ctx, s.db, s.lockTimeout, func(db *gorm.DB) error {
		pr, err := pullrequestRepository.New(db, s.logger).GetByID(ctx, pullRequestID)
		if err != nil {
			return err
		}
		if !pr.State.IsTerminal() {
			s.logger.Warnw("closure metrics requested for live pull request",
				"pull_request_id", pr.ID,
				"state", pr.State,
			)
			return nil
		}
		if finalState != "" && finalState != pr.State {
			s.logger.Warnw("closure event state differs from stored state",
				"pull_request_id", pr.ID,
				"event_state", finalState,
				"stored_state", pr.State,
				"event_at", at,
			)
		}

		reviews, err := reviewRepository.New(db, s.logger).ListReviews(ctx, pr.ID)
		if err != nil {
			return err
		}
		reviewerHistory, err := reviewerRepository.New(db, s.logger).History(ctx, pr.ID)
		if err != nil {
			return err
		}
		commits, err := pullrequestRepository.New(db, s.logger).Commits(ctx, pr.ID)
		if err != nil {
			return err
		}

		now := s.now()
		repo := repository.New(db, s.logger)

		created, err := repo.CreateLifecycle(ctx, calculator.Lifecycle(pr, len(reviews), now))
		if err != nil {
			return err
		}
		s.record(recordLifecycle, created, pr.ID)

		created, err = repo.CreateActivity(ctx, calculator.Activity(pr.ID, reviews, reviewerHistory, commits, now))
		if err != nil {
			return err
		}
		s.record(recordActivity, created, pr.ID)
		return nil
	})
}

// DeriveReviewMetrics recomputes session and response time under the pull request lock.
func (s *service) DeriveReviewMetrics(ctx context.Context, pullRequestID uint, reviewerID int64) error {
	return tx.Run(ctx, s.db, s.lockTimeout, func(db *gorm.DB) error {
		pr, err := pullrequestRepository.New(db, s.logger).LockByID(ctx, pullRequestID)
		if err != nil {
			return err
		}

		reviews, err := reviewRepository.New(db, s.logger).ListReviews(ctx, pr.ID)
		if err != nil {
			return err
		}

		now := s.now()
		repo := repository.New(db, s.logger)

		if session := calculator.Session(pr.ID, reviewerID, reviews, now); session != nil {
			if err := repo.UpsertSession(ctx, session); err != nil {
				return err
			}
			metrics.DerivationsTotal.WithLabelValues(recordSession, resultUpdated).Inc()
		}

		if err := repo.UpsertResponseTime(ctx, calculator.ResponseTime(pr.ID, reviews, now)); err != nil {
			return err
		}
		metrics.DerivationsTotal.WithLabelValues(recordResponseTime, resultUpdated).Inc()
		return nil
	})
}

func (s *service) record(name string, created bool, pullRequestID uint) {
	result := resultSkipped
	if created {
		result = resultCreated
	}
	metrics.DerivationsTotal.WithLabelValues(name, result).Inc()
	s.logger.Debugw("derived metric computed",
		"record", name,
		"result", result,
		"pull_request_id", pullRequestID,
	)
}
