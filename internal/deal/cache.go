package deal

import (
	"context"
	"sync"
	"time"

	"dealgate/internal/lifecycle"
	id "dealgate/pkg/domain"
)

// ProjectionCache memoizes lifecycle projections by (deal, T). Projections
// are pure functions of the event prefix at T, so entries never need
// invalidation: a new append defines a new T, not a new value for an old one.
// A nil cache disables memoization.
type ProjectionCache interface {
	Get(ctx context.Context, dealID id.DealID, at time.Time) (lifecycle.Projection, bool, error)
	Set(ctx context.Context, dealID id.DealID, at time.Time, proj lifecycle.Projection) error
}

// maxCachedProjections caps the in-memory cache; eviction is wholesale since
// entries are trivially recomputable.
const maxCachedProjections = 16384

type projectionKey struct {
	dealID id.DealID
	at     int64 // UnixNano
}

// InMemoryProjectionCache is the process-local cache twin.
type InMemoryProjectionCache struct {
	mu      sync.RWMutex
	entries map[projectionKey]lifecycle.Projection
}

func NewInMemoryProjectionCache() *InMemoryProjectionCache {
	return &InMemoryProjectionCache{entries: make(map[projectionKey]lifecycle.Projection)}
}

func (c *InMemoryProjectionCache) Get(_ context.Context, dealID id.DealID, at time.Time) (lifecycle.Projection, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	proj, ok := c.entries[projectionKey{dealID: dealID, at: at.UnixNano()}]
	return proj, ok, nil
}

func (c *InMemoryProjectionCache) Set(_ context.Context, dealID id.DealID, at time.Time, proj lifecycle.Projection) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= maxCachedProjections {
		c.entries = make(map[projectionKey]lifecycle.Projection)
	}
	c.entries[projectionKey{dealID: dealID, at: at.UnixNano()}] = proj
	return nil
}
