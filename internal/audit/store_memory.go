package audit

import (
	"context"
	"sync"

	id "dealgate/pkg/domain"
)

// InMemoryStore keeps the trail in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryStore) ListByDeal(_ context.Context, dealID id.DealID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, entry := range s.entries {
		if entry.DealID == dealID {
			out = append(out, entry)
		}
	}
	return out, nil
}
