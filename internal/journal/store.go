package journal

import (
	"context"
	"errors"
	"time"

	id "dealgate/pkg/domain"
)

// ErrNotFound is returned when a requested event does not exist.
var ErrNotFound = errors.New("event not found")

// Store is the append-only event store collaborator. Implementations must
// guarantee that Append is all-or-nothing and that ListByDeal returns events
// in the canonical (CreatedAt, ID) order.
type Store interface {
	// Append persists one event. No partial write may ever become visible.
	Append(ctx context.Context, event Event) error
	// ListByDeal returns all events for a deal with CreatedAt <= until, in
	// canonical order.
	ListByDeal(ctx context.Context, dealID id.DealID, until time.Time) ([]Event, error)
}
