// Package cache memoizes registry answers so daily sweeps and repeat
// verifications do not hammer national registries. Entries expire on a TTL;
// a stale answer is worse than a slow one.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"medidrop/internal/registry"
	"medidrop/pkg/domain"
	"medidrop/pkg/platform/sentinel"
)

// Cache stores registry results keyed by (country, license number).
type Cache interface {
	Save(ctx context.Context, country domain.CountryCode, licenseNumber string, result registry.Result) error
	Find(ctx context.Context, country domain.CountryCode, licenseNumber string) (registry.Result, error)
}

func cacheKey(country domain.CountryCode, licenseNumber string) string {
	return fmt.Sprintf("registry:%s:%s", country, licenseNumber)
}

// -----------------------------------------------------------------------------
// In-memory implementation
// -----------------------------------------------------------------------------

type cachedResult struct {
	result   registry.Result
	storedAt time.Time
}

// InMemory provides an in-memory cache with TTL expiration.
type InMemory struct {
	mu       sync.RWMutex
	results  map[string]cachedResult
	cacheTTL time.Duration
}

func NewInMemory(cacheTTL time.Duration) *InMemory {
	return &InMemory{
		results:  make(map[string]cachedResult),
		cacheTTL: cacheTTL,
	}
}

func (c *InMemory) Save(_ context.Context, country domain.CountryCode, licenseNumber string, result registry.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[cacheKey(country, licenseNumber)] = cachedResult{result: result, storedAt: time.Now()}
	return nil
}

// Find returns sentinel.ErrNotFound if the result is absent or expired
// past the cache TTL.
func (c *InMemory) Find(_ context.Context, country domain.CountryCode, licenseNumber string) (registry.Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if cached, ok := c.results[cacheKey(country, licenseNumber)]; ok {
		if time.Since(cached.storedAt) < c.cacheTTL {
			return cached.result, nil
		}
	}
	return registry.Result{}, sentinel.ErrNotFound
}

// -----------------------------------------------------------------------------
// Redis implementation
// -----------------------------------------------------------------------------

// Redis caches registry results in Redis with TTL-based expiry handled by
// the server.
type Redis struct {
	client   goredis.UniversalClient
	cacheTTL time.Duration
}

func NewRedis(client goredis.UniversalClient, cacheTTL time.Duration) *Redis {
	return &Redis{client: client, cacheTTL: cacheTTL}
}

type redisPayload struct {
	Valid            bool      `json:"valid"`
	ConfirmedCountry string    `json:"confirmed_country"`
	Source           string    `json:"source"`
	CheckedAt        time.Time `json:"checked_at"`
}

func (c *Redis) Save(ctx context.Context, country domain.CountryCode, licenseNumber string, result registry.Result) error {
	payload, err := json.Marshal(redisPayload{
		Valid:            result.Valid,
		ConfirmedCountry: result.ConfirmedCountry.String(),
		Source:           result.Source,
		CheckedAt:        result.CheckedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal registry result: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(country, licenseNumber), payload, c.cacheTTL).Err(); err != nil {
		return fmt.Errorf("save registry result: %w", err)
	}
	return nil
}

func (c *Redis) Find(ctx context.Context, country domain.CountryCode, licenseNumber string) (registry.Result, error) {
	raw, err := c.client.Get(ctx, cacheKey(country, licenseNumber)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return registry.Result{}, sentinel.ErrNotFound
		}
		return registry.Result{}, fmt.Errorf("find registry result: %w", err)
	}
	var payload redisPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return registry.Result{}, fmt.Errorf("decode registry result: %w", err)
	}
	return registry.Result{
		Valid:            payload.Valid,
		ConfirmedCountry: domain.CountryCode(payload.ConfirmedCountry),
		Source:           payload.Source,
		CheckedAt:        payload.CheckedAt,
	}, nil
}

// CachedChecker consults the cache before the wrapped checker and saves
// fresh answers back. Cache failures degrade to a direct check.
type CachedChecker struct {
	inner registry.Checker
	cache Cache
}

func NewCachedChecker(inner registry.Checker, cache Cache) *CachedChecker {
	return &CachedChecker{inner: inner, cache: cache}
}

func (c *CachedChecker) Check(ctx context.Context, country domain.CountryCode, licenseNumber string) (registry.Result, error) {
	if result, err := c.cache.Find(ctx, country, licenseNumber); err == nil {
		return result, nil
	}
	result, err := c.inner.Check(ctx, country, licenseNumber)
	if err != nil {
		return registry.Result{}, err
	}
	_ = c.cache.Save(ctx, country, licenseNumber, result)
	return result, nil
}
