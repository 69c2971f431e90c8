package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingMarker = "pending"

// RedisCache shares reservations across replicas. A key holds the pending marker while
// its request runs and the JSON response afterwards.
type RedisCache struct {
	client redis.Cmdable
	prefix string
}

func NewRedisCache(client redis.Cmdable, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (r *RedisCache) Reserve(ctx context.Context, key string, ttl time.Duration) (*Response, bool, error) {
	key = r.prefix + key

	ok, err := r.client.SetNX(ctx, key, pendingMarker, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if ok {
		return nil, true, nil
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between the two calls; the caller may retry.
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if string(raw) == pendingMarker {
		return nil, false, nil
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false, fmt.Errorf("failed to decode stored response: %w", err)
	}
	return &resp, false, nil
}

func (r *RedisCache) Complete(ctx context.Context, key string, resp Response, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+key, data, ttl).Err()
}

func (r *RedisCache) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
