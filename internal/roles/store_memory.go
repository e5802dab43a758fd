package roles

import (
	"context"
	"sync"
	"time"

	id "dealgate/pkg/domain"
)

// InMemoryStore keeps role assignments in process memory.
type InMemoryStore struct {
	mu          sync.RWMutex
	assignments map[id.DealID][]Assignment
}

// NewInMemoryStore creates an empty in-memory role directory.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{assignments: make(map[id.DealID][]Assignment)}
}

// Assign records an actor-role assignment.
func (s *InMemoryStore) Assign(_ context.Context, assignment Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[assignment.DealID] = append(s.assignments[assignment.DealID], assignment)
	return nil
}

// ListByDeal returns assignments on the deal with AssignedAt <= until.
func (s *InMemoryStore) ListByDeal(_ context.Context, dealID id.DealID, until time.Time) ([]Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Assignment
	for _, a := range s.assignments[dealID] {
		if a.AssignedAt.After(until) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
