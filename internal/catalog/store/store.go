package store

import (
	"context"

	"medidrop/internal/catalog/models"
	"medidrop/pkg/domain"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return sentinel.ErrNotFound when the requested listing does not exist
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures

// Store is the listing persistence contract.
//
// Execute runs validate and mutate while holding the per-listing lock, so
// an auto-pause and an admin flag on the same listing cannot interleave. A
// validate error aborts with no mutation.
type Store interface {
	Create(ctx context.Context, listing *models.ProductListing) error
	FindByID(ctx context.Context, id domain.ListingID) (*models.ProductListing, error)
	ListBySeller(ctx context.Context, sellerID domain.SellerID) ([]*models.ProductListing, error)
	Execute(ctx context.Context, id domain.ListingID,
		validate func(*models.ProductListing) error,
		mutate func(*models.ProductListing)) (*models.ProductListing, error)
}
