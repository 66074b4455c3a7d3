// Package redis provides the shared Redis client used for cross-instance
// rate-limit state.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskhub/taskhub-api/internal/config"
)

// connectTimeout bounds the startup ping.
const connectTimeout = 5 * time.Second

// NewClient connects to Redis using the given configuration and verifies the
// connection with a ping before returning.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: failed to connect to %s: %w", cfg.Addr, err)
	}
	return client, nil
}
