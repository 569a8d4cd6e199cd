// Package registry talks to national license registries (EDA, DHA, SFDA
// and peers). The core never depends on a concrete registry: a Checker may
// be absent entirely, in which case every verification routes to manual
// review.
package registry

import (
	"context"
	"time"

	"medidrop/pkg/domain"
)

// Result is a registry's answer for one license number.
type Result struct {
	Valid            bool
	ConfirmedCountry domain.CountryCode
	Source           string
	CheckedAt        time.Time
}

// Checker is the external registry verification contract.
type Checker interface {
	Check(ctx context.Context, country domain.CountryCode, licenseNumber string) (Result, error)
}
