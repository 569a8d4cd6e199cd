package store

import (
	"context"
	"sync"

	"medidrop/internal/catalog/models"
	"medidrop/pkg/domain"
	"medidrop/pkg/platform/sentinel"
)

// InMemory stores listings in memory for tests and single-node dev.
type InMemory struct {
	mu       sync.RWMutex
	listings map[domain.ListingID]*models.ProductListing
}

func NewInMemory() *InMemory {
	return &InMemory{listings: make(map[domain.ListingID]*models.ProductListing)}
}

func (s *InMemory) Create(_ context.Context, listing *models.ProductListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.listings[listing.ID]; exists {
		return sentinel.ErrConflict
	}
	s.listings[listing.ID] = clone(listing)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ListingID) (*models.ProductListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	listing, ok := s.listings[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(listing), nil
}

func (s *InMemory) ListBySeller(_ context.Context, sellerID domain.SellerID) ([]*models.ProductListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ProductListing
	for _, listing := range s.listings {
		if listing.SellerID == sellerID {
			out = append(out, clone(listing))
		}
	}
	return out, nil
}

// Execute holds the store lock across validate and mutate so the
// validate-then-mutate pair is atomic per listing.
func (s *InMemory) Execute(_ context.Context, id domain.ListingID,
	validate func(*models.ProductListing) error,
	mutate func(*models.ProductListing)) (*models.ProductListing, error) {

	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(listing); err != nil {
		return nil, err
	}
	mutate(listing)
	return clone(listing), nil
}

func clone(l *models.ProductListing) *models.ProductListing {
	cp := *l
	cp.Tags = append([]string(nil), l.Tags...)
	return &cp
}
