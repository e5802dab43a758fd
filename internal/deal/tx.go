package deal

import (
	"context"
	"sync"
	"time"

	id "dealgate/pkg/domain"
	dErrors "dealgate/pkg/domain-errors"
)

// Serializer provides the per-deal critical section for evaluate-and-append.
// Reads never take it; only appends do.
type Serializer interface {
	WithDeal(ctx context.Context, dealID id.DealID, fn func(ctx context.Context) error) error
}

// shardedSerializer distributes deals across N mutex shards by a hash of the
// deal ID, so unrelated deals rarely contend while two appends to the same
// deal always serialize.
const numDealShards = 128

// defaultAppendTimeout bounds the critical section.
const defaultAppendTimeout = 5 * time.Second

type shardedSerializer struct {
	shards  [numDealShards]sync.Mutex
	timeout time.Duration
}

// NewSerializer returns the sharded per-deal serializer.
func NewSerializer() Serializer {
	return &shardedSerializer{timeout: defaultAppendTimeout}
}

func (s *shardedSerializer) WithDeal(ctx context.Context, dealID id.DealID, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "append aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	shard := hashDealID(dealID) % numDealShards
	s.shards[shard].Lock()
	defer s.shards[shard].Unlock()

	// Check again after acquiring the lock.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "append aborted: context cancelled")
	}

	return fn(ctx)
}

// hashDealID uses FNV-1a over the ID's canonical string form.
func hashDealID(dealID id.DealID) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	s := dealID.String()
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
