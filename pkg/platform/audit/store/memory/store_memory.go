package memory

import (
	"context"
	"sort"
	"sync"

	audit "medidrop/pkg/platform/audit"
)

type subjectKey struct {
	subjectType audit.SubjectType
	subjectID   string
}

// InMemoryStore keeps audit entries in memory for tests and single-node dev.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[subjectKey][]audit.Entry
	all     []audit.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[subjectKey][]audit.Entry)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[subjectKey][]audit.Entry)
	s.all = nil
}

func (s *InMemoryStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := subjectKey{entry.SubjectType, entry.SubjectID}
	s.entries[key] = append(s.entries[key], entry)
	s.all = append(s.all, entry)
	return nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subjectType audit.SubjectType, subjectID string) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Entry{}, s.entries[subjectKey{subjectType, subjectID}]...), nil
}

// ListRecent returns the most recent N entries across all subjects, newest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recent := append([]audit.Entry{}, s.all...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}

// Count reports the total number of entries. Used by idempotence tests.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.all)
}

// CountByKind reports how many entries of one kind have been appended.
func (s *InMemoryStore) CountByKind(kind audit.EventKind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.all {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
