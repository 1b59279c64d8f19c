// Package eventtest provides a publisher that records events for assertions.
package eventtest

import (
	"context"
	"sync"

	"github.com/festy23/prmetrics/internal/event"
)

// Recorder implements event.Publisher by keeping every published event.
type Recorder struct {
	mu     sync.Mutex
	events []event.Event
	Err    error
}

// Publish records events and returns Err.
func (r *Recorder) Publish(_ context.Context, events ...event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return r.Err
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfKind returns recorded events of the given kind.
func (r *Recorder) OfKind(kind event.Kind) []event.Event {
	var out []event.Event
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
