package worker

import (
	"context"
	"log/slog"

	audit "medidrop/pkg/platform/audit"
)

// Worker consumes audit entries from a channel and persists them. The
// catalog gate feeds it high-volume denial entries so purchase evaluation
// never blocks on the audit store.
type Worker struct {
	log    *audit.Log
	inbox  <-chan audit.Entry
	logger *slog.Logger
}

func New(log *audit.Log, inbox <-chan audit.Entry, logger *slog.Logger) *Worker {
	return &Worker{log: log, inbox: inbox, logger: logger}
}

// Run drains the inbox until ctx is cancelled. Append failures are logged
// and the entry dropped; denial entries are advisory and must not wedge
// the worker.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.log.Append(ctx, entry); err != nil {
				w.logger.Error("append audit entry from worker", "error", err, "kind", entry.Kind)
			}
		}
	}
}
