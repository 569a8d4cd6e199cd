package store

import (
	"context"

	"medidrop/internal/seller/models"
	"medidrop/pkg/domain"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return sentinel.ErrNotFound when the requested seller does not exist
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures

// Store is the seller persistence contract.
//
// Execute runs validate and mutate while holding the per-seller lock
// (mutex in memory, SELECT ... FOR UPDATE in postgres), so a concurrent
// ResolveReview and expiry-sweep suspension on the same seller cannot
// interleave. A validate error aborts with no mutation.
type Store interface {
	Create(ctx context.Context, seller *models.Seller) error
	FindByID(ctx context.Context, id domain.SellerID) (*models.Seller, error)
	ListByState(ctx context.Context, state models.VerificationState) ([]*models.Seller, error)
	Execute(ctx context.Context, id domain.SellerID,
		validate func(*models.Seller) error,
		mutate func(*models.Seller)) (*models.Seller, error)
}
