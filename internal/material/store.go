package material

import (
	"context"
	"time"

	id "dealgate/pkg/domain"
)

// Store is the material store collaborator. Revisions are append-only.
type Store interface {
	// Save persists one revision.
	Save(ctx context.Context, revision Revision) error
	// ListByDeal returns every revision on the deal with CreatedAt <= until.
	ListByDeal(ctx context.Context, dealID id.DealID, until time.Time) ([]Revision, error)
}
