package deal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dealgate/internal/lifecycle"
	id "dealgate/pkg/domain"
)

const (
	// Redis key prefix for cached projections
	projectionKeyPrefix = "dealgate:proj:"

	// defaultProjectionTTL bounds cache growth; entries are recomputable.
	defaultProjectionTTL = 24 * time.Hour
)

// RedisProjectionCache shares the projection cache across instances. This is
// the production-recommended cache for distributed deployments.
type RedisProjectionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisProjectionCache constructs a Redis-backed projection cache.
func NewRedisProjectionCache(client *redis.Client) *RedisProjectionCache {
	return &RedisProjectionCache{client: client, ttl: defaultProjectionTTL}
}

func redisProjectionKey(dealID id.DealID, at time.Time) string {
	return fmt.Sprintf("%s%s:%d", projectionKeyPrefix, dealID.String(), at.UnixNano())
}

func (c *RedisProjectionCache) Get(ctx context.Context, dealID id.DealID, at time.Time) (lifecycle.Projection, bool, error) {
	raw, err := c.client.Get(ctx, redisProjectionKey(dealID, at)).Bytes()
	if errors.Is(err, redis.Nil) {
		return lifecycle.Projection{}, false, nil
	}
	if err != nil {
		return lifecycle.Projection{}, false, err
	}
	var proj lifecycle.Projection
	if err := json.Unmarshal(raw, &proj); err != nil {
		// A corrupt entry is a miss; the caller recomputes and overwrites.
		return lifecycle.Projection{}, false, nil
	}
	return proj, true, nil
}

func (c *RedisProjectionCache) Set(ctx context.Context, dealID id.DealID, at time.Time, proj lifecycle.Projection) error {
	raw, err := json.Marshal(proj)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisProjectionKey(dealID, at), raw, c.ttl).Err()
}
