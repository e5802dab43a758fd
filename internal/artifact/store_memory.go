package artifact

import (
	"context"
	"sort"
	"sync"
	"time"

	id "dealgate/pkg/domain"
)

type stored struct {
	record Record
	data   []byte
}

// InMemoryStore keeps artifact bytes in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	byHash map[string]stored
	byID   map[id.ArtifactID]string
}

// NewInMemoryStore creates an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byHash: make(map[string]stored),
		byID:   make(map[id.ArtifactID]string),
	}
}

// Put stores bytes for a deal, deduplicating by content hash.
func (s *InMemoryStore) Put(_ context.Context, dealID id.DealID, filename string, data []byte, createdAt time.Time) (Record, bool, error) {
	hash := HashBytes(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byHash[hash]; ok {
		if existing.record.DealID != dealID {
			return Record{}, false, ErrDealMismatch
		}
		return existing.record, false, nil
	}
	record := Record{
		ID:        id.NewArtifactID(),
		DealID:    dealID,
		Hash:      hash,
		Filename:  filename,
		Size:      int64(len(data)),
		CreatedAt: createdAt,
	}
	s.byHash[hash] = stored{record: record, data: append([]byte{}, data...)}
	s.byID[record.ID] = hash
	return record, true, nil
}

// Get returns an artifact record and its bytes by ID.
func (s *InMemoryStore) Get(_ context.Context, artifactID id.ArtifactID) (Record, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.byID[artifactID]
	if !ok {
		return Record{}, nil, ErrNotFound
	}
	existing := s.byHash[hash]
	return existing.record, append([]byte{}, existing.data...), nil
}

// GetByHash returns an artifact record by content hash.
func (s *InMemoryStore) GetByHash(_ context.Context, hash string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	existing, ok := s.byHash[hash]
	if !ok {
		return Record{}, ErrNotFound
	}
	return existing.record, nil
}

// ListByDeal returns records owned by the deal with CreatedAt <= until.
func (s *InMemoryStore) ListByDeal(_ context.Context, dealID id.DealID, until time.Time) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, existing := range s.byHash {
		if existing.record.DealID != dealID || existing.record.CreatedAt.After(until) {
			continue
		}
		out = append(out, existing.record)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
