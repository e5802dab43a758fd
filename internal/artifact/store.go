package artifact

import (
	"context"
	"errors"
	"time"

	id "dealgate/pkg/domain"
)

// ErrNotFound is returned when a requested artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// ErrDealMismatch is returned when identical bytes are uploaded under a
// different deal than the one that owns them.
var ErrDealMismatch = errors.New("artifact content belongs to another deal")

// Store is the artifact store collaborator: content-addressed put/get, scoped
// per deal.
type Store interface {
	// Put stores bytes for a deal, recorded at createdAt. If the content
	// hash already exists under the same deal, the existing record is
	// returned with created=false. If it exists under a different deal,
	// ErrDealMismatch is returned.
	Put(ctx context.Context, dealID id.DealID, filename string, data []byte, createdAt time.Time) (record Record, created bool, err error)
	// Get returns an artifact record and its bytes by ID.
	Get(ctx context.Context, artifactID id.ArtifactID) (Record, []byte, error)
	// GetByHash returns an artifact record by content hash.
	GetByHash(ctx context.Context, hash string) (Record, error)
	// ListByDeal returns records owned by the deal with CreatedAt <= until.
	ListByDeal(ctx context.Context, dealID id.DealID, until time.Time) ([]Record, error)
}
