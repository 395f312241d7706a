// Package redis implements rate limit storage on Redis for deployments
// where several kiosk hosts should share one set of counters.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/netboard/netboard-kiosk/internal/nkioskd/ratelimit"
)

// Store keeps fixed-window counters in Redis
type Store struct {
	client *redis.Client
}

// NewStore wraps an existing Redis client as a rate limit store
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// counterKey flattens a LimitKey into the Redis keyspace
func counterKey(key ratelimit.LimitKey) string {
	return fmt.Sprintf("rate:%s:%s:%s", key.Type, key.RemoteIP, key.Endpoint)
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ratelimit.ErrStoreError, err)
}

// Increment counts an attempt and returns the running total
func (s *Store) Increment(ctx context.Context, key ratelimit.LimitKey, limit ratelimit.Limit) (int, error) {
	k := counterKey(key)

	pipe := s.client.Pipeline()
	incrCmd := pipe.Incr(ctx, k)
	// NX keeps the window fixed from the first attempt
	pipe.ExpireNX(ctx, k, limit.Period)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, storeErr(err)
	}

	count := int(incrCmd.Val())
	if count > limit.Rate+limit.BurstSize {
		return count, ratelimit.ErrLimitExceeded
	}

	return count, nil
}

// Reset deletes the counter so the caller starts a fresh window
func (s *Store) Reset(ctx context.Context, key ratelimit.LimitKey) error {
	if err := s.client.Del(ctx, counterKey(key)).Err(); err != nil {
		return storeErr(err)
	}
	return nil
}

// Status reports the current standing without counting an attempt
func (s *Store) Status(ctx context.Context, key ratelimit.LimitKey, limit ratelimit.Limit) (*ratelimit.LimitStatus, error) {
	k := counterKey(key)

	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, k)
	ttlCmd := pipe.TTL(ctx, k)

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, storeErr(err)
	}

	count := 0
	if val, err := getCmd.Result(); err == nil {
		count, _ = strconv.Atoi(val)
	}

	reset := time.Now().Add(limit.Period)
	if ttl, err := ttlCmd.Result(); err == nil && ttl > 0 {
		reset = time.Now().Add(ttl)
	}

	remaining := limit.Rate + limit.BurstSize - count
	if remaining < 0 {
		remaining = 0
	}

	return &ratelimit.LimitStatus{
		Limit:     limit,
		Remaining: remaining,
		Reset:     reset,
	}, nil
}
