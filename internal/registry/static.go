package registry

import (
	"context"
	"sync"
	"time"

	"medidrop/pkg/domain"
	"medidrop/pkg/platform/sentinel"
)

// StaticChecker answers from a fixed in-memory record set. Used in dev and
// tests in place of a live registry.
type StaticChecker struct {
	mu      sync.RWMutex
	records map[string]Record
	// Delay simulates registry latency so timeout handling can be exercised.
	Delay time.Duration
}

// Record is one known license in the static registry.
type Record struct {
	LicenseNumber string
	Country       domain.CountryCode
	Valid         bool
}

func NewStaticChecker(records ...Record) *StaticChecker {
	c := &StaticChecker{records: make(map[string]Record)}
	for _, r := range records {
		c.records[r.LicenseNumber] = r
	}
	return c
}

// Add registers or replaces a record.
func (c *StaticChecker) Add(r Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[r.LicenseNumber] = r
}

// Remove drops a record, making subsequent checks miss.
func (c *StaticChecker) Remove(licenseNumber string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, licenseNumber)
}

func (c *StaticChecker) Check(ctx context.Context, _ domain.CountryCode, licenseNumber string) (Result, error) {
	if c.Delay > 0 {
		select {
		case <-time.After(c.Delay):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	c.mu.RLock()
	rec, ok := c.records[licenseNumber]
	c.mu.RUnlock()
	if !ok {
		return Result{}, sentinel.ErrNotFound
	}
	return Result{
		Valid:            rec.Valid,
		ConfirmedCountry: rec.Country,
		Source:           "static",
		CheckedAt:        time.Now(),
	}, nil
}
