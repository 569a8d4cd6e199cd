//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medidrop/internal/registry"
	"medidrop/pkg/platform/sentinel"
	"medidrop/pkg/testutil/containers"
)

func TestRedisSaveAndFind(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	cache := NewRedis(rc.Client, time.Minute)
	ctx := context.Background()

	_, err := cache.Find(ctx, "EG", "EG-PH-10021")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	checkedAt := time.Now().UTC().Truncate(time.Second)
	saved := registry.Result{
		Valid:            true,
		ConfirmedCountry: "EG",
		Source:           "eg-moh",
		CheckedAt:        checkedAt,
	}
	require.NoError(t, cache.Save(ctx, "EG", "EG-PH-10021", saved))

	found, err := cache.Find(ctx, "EG", "EG-PH-10021")
	require.NoError(t, err)
	assert.Equal(t, saved, found)

	// Keys include the country, so the same license in another
	// jurisdiction misses.
	_, err = cache.Find(ctx, "AE", "EG-PH-10021")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedisEntriesExpire(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	cache := NewRedis(rc.Client, 100*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, "EG", "EG-PH-10021", registry.Result{Valid: true}))

	_, err := cache.Find(ctx, "EG", "EG-PH-10021")
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)

	_, err = cache.Find(ctx, "EG", "EG-PH-10021")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestCachedCheckerWithRedis(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	inner := registry.NewStaticChecker(registry.Record{
		LicenseNumber: "EG-PH-10021",
		Country:       "EG",
		Valid:         true,
	})
	checker := NewCachedChecker(inner, NewRedis(rc.Client, time.Minute))

	first, err := checker.Check(ctx, "EG", "EG-PH-10021")
	require.NoError(t, err)
	assert.True(t, first.Valid)

	// The answer now comes from Redis even after the registry record
	// disappears.
	inner.Remove("EG-PH-10021")

	second, err := checker.Check(ctx, "EG", "EG-PH-10021")
	require.NoError(t, err)
	assert.True(t, second.Valid)
}
