package store

import (
	"context"
	"sync"

	"medidrop/internal/docstore"
	"medidrop/internal/seller/models"
	"medidrop/pkg/domain"
	"medidrop/pkg/platform/sentinel"
)

// InMemory stores sellers in memory for tests and single-node dev.
type InMemory struct {
	mu      sync.RWMutex
	sellers map[domain.SellerID]*models.Seller
}

func NewInMemory() *InMemory {
	return &InMemory{sellers: make(map[domain.SellerID]*models.Seller)}
}

func (s *InMemory) Create(_ context.Context, seller *models.Seller) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sellers[seller.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := cloneSeller(seller)
	s.sellers[seller.ID] = cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.SellerID) (*models.Seller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seller, ok := s.sellers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneSeller(seller), nil
}

func (s *InMemory) ListByState(_ context.Context, state models.VerificationState) ([]*models.Seller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Seller
	for _, seller := range s.sellers {
		if seller.State == state {
			out = append(out, cloneSeller(seller))
		}
	}
	return out, nil
}

// Execute holds the store lock across validate and mutate so the
// validate-then-mutate pair is atomic per seller.
func (s *InMemory) Execute(_ context.Context, id domain.SellerID,
	validate func(*models.Seller) error,
	mutate func(*models.Seller)) (*models.Seller, error) {

	s.mu.Lock()
	defer s.mu.Unlock()
	seller, ok := s.sellers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(seller); err != nil {
		return nil, err
	}
	mutate(seller)
	return cloneSeller(seller), nil
}

func cloneSeller(in *models.Seller) *models.Seller {
	cp := *in
	if in.LicenseExpiry != nil {
		t := *in.LicenseExpiry
		cp.LicenseExpiry = &t
	}
	if in.LastRegistryCheck != nil {
		t := *in.LastRegistryCheck
		cp.LastRegistryCheck = &t
	}
	cp.PharmacistIDRefs = append([]docstore.Ref(nil), in.PharmacistIDRefs...)
	return &cp
}
