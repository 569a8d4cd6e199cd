package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medidrop/internal/compliance/handler"
	dErrors "medidrop/pkg/domain-errors"
	"medidrop/pkg/platform/audit"
	auditmemory "medidrop/pkg/platform/audit/store/memory"
	"medidrop/pkg/testutil"
)

type entriesEnvelope struct {
	Entries []handler.EntryResponse `json:"entries"`
}

func newRouter(t *testing.T, log *audit.Log) *chi.Mux {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	handler.New(log, logger).RegisterAdmin(router)
	return router
}

func seedTrail(t *testing.T, log *audit.Log) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	entries := []audit.Entry{
		{SubjectType: audit.SubjectSeller, SubjectID: "seller-a", Kind: audit.KindSubmittedForReview, Timestamp: base},
		{SubjectType: audit.SubjectSeller, SubjectID: "seller-a", Kind: audit.KindReviewResolved, Decision: "approved", Timestamp: base.Add(time.Hour)},
		{SubjectType: audit.SubjectListing, SubjectID: "listing-1", Kind: audit.KindPurchaseBlocked, Reason: "seller_unverified", Timestamp: base.Add(2 * time.Hour)},
	}
	for _, e := range entries {
		require.NoError(t, log.Append(ctx, e))
	}
}

func TestListEntriesBySubject(t *testing.T) {
	log := audit.NewLog(auditmemory.NewInMemoryStore())
	seedTrail(t, log)
	router := newRouter(t, log)

	req := testutil.NewRequest(t, http.MethodGet, "/admin/audit/entries?subject_type=seller&subject_id=seller-a")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[entriesEnvelope](t, rr)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, string(audit.KindSubmittedForReview), resp.Entries[0].Kind)
	assert.Equal(t, string(audit.KindReviewResolved), resp.Entries[1].Kind)
	assert.Equal(t, "approved", resp.Entries[1].Decision)
}

func TestListEntriesRecent(t *testing.T) {
	log := audit.NewLog(auditmemory.NewInMemoryStore())
	seedTrail(t, log)
	router := newRouter(t, log)

	req := testutil.NewRequest(t, http.MethodGet, "/admin/audit/entries?limit=2")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[entriesEnvelope](t, rr)
	require.Len(t, resp.Entries, 2)
	// Newest first.
	assert.Equal(t, string(audit.KindPurchaseBlocked), resp.Entries[0].Kind)
}

func TestListEntriesValidation(t *testing.T) {
	log := audit.NewLog(auditmemory.NewInMemoryStore())
	router := newRouter(t, log)

	t.Run("subject_type without subject_id", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/admin/audit/entries?subject_type=seller")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, dErrors.CodeValidation)
	})

	t.Run("limit out of range", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/admin/audit/entries?limit=5000")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, dErrors.CodeValidation)
	})
}
