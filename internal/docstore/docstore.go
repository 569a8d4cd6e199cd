// Package docstore abstracts the document storage the core depends on for
// uploaded licenses, pharmacist IDs and prescriptions. The core only ever
// handles opaque refs; document bytes never cross into business logic.
package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Ref is an opaque handle to a stored document.
type Ref string

func (r Ref) String() string { return string(r) }

// Store is the external document store contract.
type Store interface {
	Put(ctx context.Context, data []byte) (Ref, error)
	Exists(ctx context.Context, ref Ref) (bool, error)
}

// InMemory keeps documents in process memory for tests and single-node dev.
type InMemory struct {
	mu   sync.RWMutex
	docs map[Ref][]byte
}

func NewInMemory() *InMemory {
	return &InMemory{docs: make(map[Ref][]byte)}
}

func (s *InMemory) Put(_ context.Context, data []byte) (Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := Ref(uuid.NewString())
	s.docs[ref] = append([]byte(nil), data...)
	return ref, nil
}

func (s *InMemory) Exists(_ context.Context, ref Ref) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[ref]
	return ok, nil
}
