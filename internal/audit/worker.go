package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from the publisher inbox and persists them.
// It keeps background processing out of the request path.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context is cancelled. Store failures are
// logged, not fatal: a broken audit sink must not take the server down.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to append audit event",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
