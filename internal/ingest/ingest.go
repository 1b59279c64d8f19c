// Package ingest runs webhook handlers: project lookup, payload validation, one
// database transaction per delivery, and event publication after commit.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/prmetrics/internal/database/tx"
	"github.com/festy23/prmetrics/internal/event"
	"github.com/festy23/prmetrics/internal/metrics"
	projectModel "github.com/festy23/prmetrics/internal/project/model"
	projectRepository "github.com/festy23/prmetrics/internal/project/repository"
	"github.com/festy23/prmetrics/internal/validation"
)

// Webhook outcomes recorded in metrics.
const (
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeTransient = "transient"
	OutcomeFailed    = "failed"
)

// Reasons a delivery is absorbed as a no-op.
const (
	ReasonDuplicate     = "duplicate"
	ReasonStateConflict = "state_conflict"
	ReasonNotFound      = "not_found"
)

// Work applies one webhook inside the transaction and returns the events to publish
// once it commits. Repositories used by Work must be built on db.
type Work func(ctx context.Context, db *gorm.DB, project *projectModel.Project) ([]event.Event, error)

// Runner executes webhook work against the database.
type Runner struct {
	db          *gorm.DB
	projects    projectRepository.Repository
	publisher   event.Publisher
	lockTimeout time.Duration
	logger      *zap.SugaredLogger
}

// New creates a runner.
func New(
	db *gorm.DB,
	projects projectRepository.Repository,
	publisher event.Publisher,
	lockTimeout time.Duration,
	logger *zap.SugaredLogger,
) *Runner {
	return &Runner{
		db:          db,
		projects:    projects,
		publisher:   publisher,
		lockTimeout: lockTimeout,
		logger:      logger,
	}
}

// Run resolves the project for apiKey, validates payload, runs work in a transaction
// and publishes the returned events after commit.
func (r *Runner) Run(ctx context.Context, kind, apiKey string, payload interface{}, work Work) (err error) {
	start := time.Now()
	defer func() {
		metrics.WebhooksTotal.WithLabelValues(kind, outcome(err)).Inc()
		metrics.WebhookDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	project, err := r.projects.FindByAPIKey(ctx, apiKey)
	if err != nil {
		return err
	}

	if err := validation.Struct(payload); err != nil {
		r.logger.Infow("rejected webhook payload",
			"kind", kind,
			"project_id", project.ID,
			"error", err,
		)
		return err
	}

	var events []event.Event
	err = tx.Run(ctx, r.db, r.lockTimeout, func(db *gorm.DB) error {
		var workErr error
		events, workErr = work(ctx, db, project)
		return workErr
	})
	if err != nil {
		if errors.Is(err, tx.ErrTransient) {
			r.logger.Warnw("webhook transaction failed transiently",
				"kind", kind,
				"project_id", project.ID,
				"error", err,
			)
		}
		return err
	}

	if len(events) == 0 {
		return nil
	}
	if err := r.publisher.Publish(ctx, events...); err != nil {
		r.logger.Errorw("failed to publish events",
			"kind", kind,
			"project_id", project.ID,
			"count", len(events),
			"error", err,
		)
		return fmt.Errorf("failed to publish events: %w", err)
	}
	for _, e := range events {
		metrics.EventsPublishedTotal.WithLabelValues(string(e.Kind)).Inc()
	}
	return nil
}

// Absorbed records a delivery that was accepted without changing anything.
func (r *Runner) Absorbed(kind, reason string, keysAndValues ...interface{}) {
	metrics.DuplicatesTotal.WithLabelValues(kind, reason).Inc()
	fields := append([]interface{}{"kind", kind, "reason", reason}, keysAndValues...)
	if reason == ReasonNotFound {
		r.logger.Warnw("webhook for unknown pull request ignored", fields...)
		return
	}
	r.logger.Infow("webhook absorbed", fields...)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeAccepted
	case errors.Is(err, tx.ErrTransient):
		return OutcomeTransient
	case errors.Is(err, projectModel.ErrInvalidAPIKey), errors.Is(err, validation.ErrInvalidArgument):
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}
