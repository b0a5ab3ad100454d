package events

import (
	"context"
	"log/slog"
)

// Worker drains an event channel into a store. The async Publisher runs one
// internally; it can also be run standalone under an errgroup when events
// come from an external queue.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

// NewWorker creates a worker draining inbox into store.
func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context is cancelled or the channel closes.
// Append failures are logged and skipped; events are notifications, not state.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.Error("failed to append event", "kind", string(event.Kind), "error", err)
			}
		}
	}
}
