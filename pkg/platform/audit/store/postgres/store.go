package postgres

import (
	"context"
	"database/sql"
	"fmt"

	audit "medidrop/pkg/platform/audit"

	"github.com/google/uuid"
)

// Store persists audit entries in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE audit_entries (
//	    id           UUID PRIMARY KEY,
//	    category     TEXT NOT NULL,
//	    subject_type TEXT NOT NULL,
//	    subject_id   TEXT NOT NULL,
//	    kind         TEXT NOT NULL,
//	    timestamp    TIMESTAMPTZ NOT NULL,
//	    actor_id     TEXT NOT NULL DEFAULT '',
//	    decision     TEXT NOT NULL DEFAULT '',
//	    reason       TEXT NOT NULL DEFAULT '',
//	    detail       TEXT NOT NULL DEFAULT '',
//	    request_id   TEXT NOT NULL DEFAULT ''
//	);
//	CREATE INDEX audit_entries_subject_idx ON audit_entries (subject_type, subject_id, timestamp);
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts one entry. Duplicate IDs are ignored so replayed writes
// stay idempotent.
func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	const query = `
		INSERT INTO audit_entries (
			id, category, subject_type, subject_id, kind, timestamp,
			actor_id, decision, reason, detail, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		string(entry.Category),
		string(entry.SubjectType),
		entry.SubjectID,
		string(entry.Kind),
		entry.Timestamp,
		entry.ActorID,
		entry.Decision,
		entry.Reason,
		entry.Detail,
		entry.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListBySubject(ctx context.Context, subjectType audit.SubjectType, subjectID string) ([]audit.Entry, error) {
	const query = `
		SELECT id, category, subject_type, subject_id, kind, timestamp,
		       actor_id, decision, reason, detail, request_id
		FROM audit_entries
		WHERE subject_type = $1 AND subject_id = $2
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, string(subjectType), subjectID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries by subject: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Entry, error) {
	const query = `
		SELECT id, category, subject_type, subject_id, kind, timestamp,
		       actor_id, decision, reason, detail, request_id
		FROM audit_entries
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry
	for rows.Next() {
		var (
			entry       audit.Entry
			id          uuid.UUID
			category    string
			subjectType string
			kind        string
		)
		if err := rows.Scan(
			&id, &category, &subjectType, &entry.SubjectID, &kind, &entry.Timestamp,
			&entry.ActorID, &entry.Decision, &entry.Reason, &entry.Detail, &entry.RequestID,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.ID = id
		entry.Category = audit.EventCategory(category)
		entry.SubjectType = audit.SubjectType(subjectType)
		entry.Kind = audit.EventKind(kind)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
