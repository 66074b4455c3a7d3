package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:failures:"

// RedisStore is a Store backed by Redis, for deployments running more than
// one instance behind a load balancer. Entries expire after the reset window
// so Redis handles staleness on its own; no janitor is needed.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store on an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	fields, err := s.client.HGetAll(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return Entry{}, false, fmt.Errorf("ratelimit: redis get %q: %w", key, err)
	}
	if len(fields) == 0 {
		return Entry{}, false, nil
	}

	count, err := strconv.Atoi(fields["failure_count"])
	if err != nil {
		return Entry{}, false, fmt.Errorf("ratelimit: corrupt failure_count for %q: %w", key, err)
	}
	lastUnix, err := strconv.ParseInt(fields["last_attempt"], 10, 64)
	if err != nil {
		return Entry{}, false, fmt.Errorf("ratelimit: corrupt last_attempt for %q: %w", key, err)
	}

	return Entry{
		FailureCount: count,
		LastAttempt:  time.Unix(0, lastUnix).UTC(),
	}, true, nil
}

// Put implements Store. The hash expires after the reset window, so stale
// entries vanish without explicit reaping.
func (s *RedisStore) Put(ctx context.Context, key string, e Entry) error {
	rkey := redisKeyPrefix + key
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, rkey,
		"failure_count", e.FailureCount,
		"last_attempt", e.LastAttempt.UnixNano())
	pipe.Expire(ctx, rkey, FailureResetWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ratelimit: redis put %q: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("ratelimit: redis delete %q: %w", key, err)
	}
	return nil
}
