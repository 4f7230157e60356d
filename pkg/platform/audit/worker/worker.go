package worker

import (
	"context"
	"log/slog"

	audit "assetgate/pkg/platform/audit"
)

// Worker consumes audit events from a channel, persists them, and forwards
// them to an optional external sink. A sink failure is logged, never fatal;
// a store failure stops the worker.
type Worker struct {
	store  audit.Store
	sink   audit.Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, sink audit.Sink, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
			if w.sink == nil {
				continue
			}
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.WarnContext(ctx, "audit sink publish failed",
					"submission_id", event.SubmissionID,
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
