package deal

import (
	"context"
	"errors"
	"sync"

	id "dealgate/pkg/domain"
)

// ErrNotFound is returned when a requested deal does not exist.
var ErrNotFound = errors.New("deal not found")

// Store is the deal registry.
type Store interface {
	Create(ctx context.Context, deal Deal) error
	Get(ctx context.Context, dealID id.DealID) (Deal, error)
	List(ctx context.Context) ([]Deal, error)
}

// InMemoryStore keeps the registry in process memory.
type InMemoryStore struct {
	mu    sync.RWMutex
	deals map[id.DealID]Deal
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{deals: make(map[id.DealID]Deal)}
}

func (s *InMemoryStore) Create(_ context.Context, deal Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deals[deal.ID] = deal
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, dealID id.DealID) (Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	deal, ok := s.deals[dealID]
	if !ok {
		return Deal{}, ErrNotFound
	}
	return deal, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Deal, 0, len(s.deals))
	for _, deal := range s.deals {
		out = append(out, deal)
	}
	return out, nil
}
