package store

import (
	"context"
	"sync"

	"medidrop/internal/prescription/models"
	"medidrop/pkg/domain"
	"medidrop/pkg/platform/sentinel"
)

// InMemory stores prescriptions in memory for tests and single-node dev.
type InMemory struct {
	mu            sync.RWMutex
	prescriptions map[domain.PrescriptionID]*models.Prescription
}

func NewInMemory() *InMemory {
	return &InMemory{prescriptions: make(map[domain.PrescriptionID]*models.Prescription)}
}

func (s *InMemory) Create(_ context.Context, p *models.Prescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.prescriptions[p.ID]; exists {
		return sentinel.ErrConflict
	}
	s.prescriptions[p.ID] = clonePrescription(p)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.PrescriptionID) (*models.Prescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prescriptions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clonePrescription(p), nil
}

func (s *InMemory) ListByBuyer(_ context.Context, buyerID string) ([]*models.Prescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Prescription
	for _, p := range s.prescriptions {
		if p.BuyerID == buyerID {
			out = append(out, clonePrescription(p))
		}
	}
	return out, nil
}

func (s *InMemory) ListByState(_ context.Context, state models.State) ([]*models.Prescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Prescription
	for _, p := range s.prescriptions {
		if p.State == state {
			out = append(out, clonePrescription(p))
		}
	}
	return out, nil
}

// Execute holds the store lock across validate and mutate so the
// validate-then-mutate pair is atomic per prescription.
func (s *InMemory) Execute(_ context.Context, id domain.PrescriptionID,
	validate func(*models.Prescription) error,
	mutate func(*models.Prescription)) (*models.Prescription, error) {

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prescriptions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	mutate(p)
	return clonePrescription(p), nil
}

func clonePrescription(in *models.Prescription) *models.Prescription {
	cp := *in
	if in.ReviewedAt != nil {
		t := *in.ReviewedAt
		cp.ReviewedAt = &t
	}
	return &cp
}
