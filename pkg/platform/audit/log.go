package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence contract for audit entries. Implementations are
// append-only: nothing updates or deletes an entry once written.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListBySubject(ctx context.Context, subjectType SubjectType, subjectID string) ([]Entry, error)
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}

// Log captures structured audit entries. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Log struct {
	store Store
}

func NewLog(store Store) *Log {
	return &Log{store: store}
}

// Append persists an entry, filling in ID, timestamp and category when the
// caller left them zero.
func (l *Log) Append(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.Category == "" {
		entry.Category = entry.Kind.Category()
	}
	return l.store.Append(ctx, entry)
}

// ListBySubject returns the full trail for one aggregate, oldest first.
func (l *Log) ListBySubject(ctx context.Context, subjectType SubjectType, subjectID string) ([]Entry, error) {
	return l.store.ListBySubject(ctx, subjectType, subjectID)
}

// ListRecent returns the most recent entries across all subjects.
func (l *Log) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	return l.store.ListRecent(ctx, limit)
}
