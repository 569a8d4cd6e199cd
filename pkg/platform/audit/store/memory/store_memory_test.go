package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "medidrop/pkg/platform/audit"
)

func entryAt(subjectID string, kind audit.EventKind, ts time.Time) audit.Entry {
	return audit.Entry{
		SubjectType: audit.SubjectSeller,
		SubjectID:   subjectID,
		Kind:        kind,
		Timestamp:   ts,
	}
}

func TestListBySubjectKeepsAppendOrder(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(ctx, entryAt("seller-a", audit.KindSubmittedForReview, base)))
	require.NoError(t, store.Append(ctx, entryAt("seller-b", audit.KindSubmittedForReview, base.Add(time.Minute))))
	require.NoError(t, store.Append(ctx, entryAt("seller-a", audit.KindReviewResolved, base.Add(2*time.Minute))))

	trail, err := store.ListBySubject(ctx, audit.SubjectSeller, "seller-a")
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, audit.KindSubmittedForReview, trail[0].Kind)
	assert.Equal(t, audit.KindReviewResolved, trail[1].Kind)

	other, err := store.ListBySubject(ctx, audit.SubjectSeller, "seller-c")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestListRecentNewestFirstWithLimit(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, entryAt("seller-a", audit.KindRegistryChecked, base.Add(time.Duration(i)*time.Minute))))
	}

	recent, err := store.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, base.Add(4*time.Minute), recent[0].Timestamp)
	assert.Equal(t, base.Add(2*time.Minute), recent[2].Timestamp)

	all, err := store.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestLogFillsDefaults(t *testing.T) {
	store := NewInMemoryStore()
	log := audit.NewLog(store)
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, audit.Entry{
		SubjectType: audit.SubjectSeller,
		SubjectID:   "seller-a",
		Kind:        audit.KindLicenseExpired,
	}))

	trail, err := log.ListBySubject(ctx, audit.SubjectSeller, "seller-a")
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.NotZero(t, trail[0].ID)
	assert.False(t, trail[0].Timestamp.IsZero())
	assert.Equal(t, audit.KindLicenseExpired.Category(), trail[0].Category)
}
