package store

import (
	"context"

	"medidrop/internal/prescription/models"
	"medidrop/pkg/domain"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return sentinel.ErrNotFound when the requested prescription does not exist
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures

// Store is the prescription persistence contract.
//
// Execute runs validate and mutate while holding the per-prescription
// lock, so a cancel racing a review pickup resolves to exactly one of the
// two. A validate error aborts with no mutation.
type Store interface {
	Create(ctx context.Context, p *models.Prescription) error
	FindByID(ctx context.Context, id domain.PrescriptionID) (*models.Prescription, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*models.Prescription, error)
	ListByState(ctx context.Context, state models.State) ([]*models.Prescription, error)
	Execute(ctx context.Context, id domain.PrescriptionID,
		validate func(*models.Prescription) error,
		mutate func(*models.Prescription)) (*models.Prescription, error)
}
