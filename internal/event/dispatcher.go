package event

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Dispatcher delivers events to subscribed handlers in the caller's goroutine.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
	logger   *zap.SugaredLogger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[Kind][]Handler),
		logger:   logger,
	}
}

// Subscribe registers h for events of the given kind.
func (d *Dispatcher) Subscribe(kind Kind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = append(d.handlers[kind], h)
}

// Dispatch runs every handler subscribed to e.Kind. All handlers run even if one fails.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) error {
	d.mu.RLock()
	handlers := d.handlers[e.Kind]
	d.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			d.logger.Errorw("event handler failed",
				"kind", e.Kind,
				"pull_request_id", e.PullRequestID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("dispatch %s: %w", e.Kind, errors.Join(errs...))
	}
	return nil
}

// Publish dispatches events in order and stops at the first failure.
func (d *Dispatcher) Publish(ctx context.Context, events ...Event) error {
	for _, e := range events {
		if err := d.Dispatch(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
