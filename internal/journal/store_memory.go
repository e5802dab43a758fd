package journal

import (
	"context"
	"sync"
	"time"

	id "dealgate/pkg/domain"
)

// InMemoryStore keeps the event journal in process memory. It favors clarity
// over performance and is the default backing for tests and single-node runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.DealID][]Event
}

// NewInMemoryStore creates an empty in-memory event store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.DealID][]Event)}
}

// Append persists one event. The slice stays in canonical order on insert so
// reads never re-sort.
func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := append(s.events[event.DealID], event)
	SortCanonical(events)
	s.events[event.DealID] = events
	return nil
}

// ListByDeal returns a copy of the deal's events with CreatedAt <= until.
func (s *InMemoryStore) ListByDeal(_ context.Context, dealID id.DealID, until time.Time) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, event := range s.events[dealID] {
		if event.CreatedAt.After(until) {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}
