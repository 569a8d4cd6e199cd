// Package handler exposes the compliance audit trail to admins.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	dErrors "medidrop/pkg/domain-errors"
	"medidrop/pkg/platform/audit"
	"medidrop/pkg/platform/httputil"
)

const defaultLimit = 100

// Handler wires audit-trail query endpoints to the audit log.
type Handler struct {
	log    *audit.Log
	logger *slog.Logger
}

// New constructs a compliance handler with its dependencies.
func New(log *audit.Log, logger *slog.Logger) *Handler {
	return &Handler{log: log, logger: logger}
}

// RegisterAdmin mounts the audit query endpoints on the router.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/audit/entries", h.HandleListEntries)
}

// HandleListEntries handles GET /admin/audit/entries. With subject_type
// and subject_id it returns one aggregate's full trail oldest first;
// without them it returns the most recent entries across all subjects.
func (h *Handler) HandleListEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	subjectType := q.Get("subject_type")
	subjectID := q.Get("subject_id")

	var (
		entries []audit.Entry
		err     error
	)
	switch {
	case subjectType != "" && subjectID != "":
		entries, err = h.log.ListBySubject(ctx, audit.SubjectType(subjectType), subjectID)
	case subjectType == "" && subjectID == "":
		limit := defaultLimit
		if raw := q.Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit < 1 || limit > 1000 {
				httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 1000"))
				return
			}
		}
		entries, err = h.log.ListRecent(ctx, limit)
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "subject_type and subject_id must be given together"))
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "audit trail query failed", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query audit trail"))
		return
	}

	out := make([]*EntryResponse, len(entries))
	for i := range entries {
		out[i] = FromEntry(&entries[i])
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": out})
}

// EntryResponse is the HTTP representation of an audit entry.
type EntryResponse struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	SubjectType string    `json:"subject_type"`
	SubjectID   string    `json:"subject_id"`
	Kind        string    `json:"kind"`
	Timestamp   time.Time `json:"timestamp"`
	ActorID     string    `json:"actor_id,omitempty"`
	Decision    string    `json:"decision,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
}

// FromEntry converts an audit entry to its HTTP representation.
func FromEntry(e *audit.Entry) *EntryResponse {
	return &EntryResponse{
		ID:          e.ID.String(),
		Category:    string(e.Category),
		SubjectType: string(e.SubjectType),
		SubjectID:   e.SubjectID,
		Kind:        string(e.Kind),
		Timestamp:   e.Timestamp,
		ActorID:     e.ActorID,
		Decision:    e.Decision,
		Reason:      e.Reason,
		Detail:      e.Detail,
		RequestID:   e.RequestID,
	}
}
