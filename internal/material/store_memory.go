package material

import (
	"context"
	"sync"
	"time"

	id "dealgate/pkg/domain"
)

// InMemoryStore keeps material revisions in process memory.
type InMemoryStore struct {
	mu        sync.RWMutex
	revisions map[id.DealID][]Revision
}

// NewInMemoryStore creates an empty in-memory material store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{revisions: make(map[id.DealID][]Revision)}
}

// Save persists one revision.
func (s *InMemoryStore) Save(_ context.Context, revision Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revisions[revision.DealID] = append(s.revisions[revision.DealID], revision)
	return nil
}

// ListByDeal returns revisions on the deal with CreatedAt <= until.
func (s *InMemoryStore) ListByDeal(_ context.Context, dealID id.DealID, until time.Time) ([]Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Revision
	for _, rev := range s.revisions[dealID] {
		if rev.CreatedAt.After(until) {
			continue
		}
		out = append(out, rev)
	}
	return out, nil
}
