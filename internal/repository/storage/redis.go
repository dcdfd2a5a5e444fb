// Package storage opens the Redis client that holds players, match rooms and snapshots.
package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/royal-ur/internal/config"
)

// New - dials Redis with the relay settings and fails fast when it does not answer.
func New(ctx context.Context, conf config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        conf.GetRedisAddr(),
		Password:    conf.Password,
		DB:          conf.DB,
		DialTimeout: conf.DialTimeout,
	})

	if err := HealthCheck(client)(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// HealthCheck returns a readiness check of the match store.
func HealthCheck(client redis.UniversalClient) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis at %v does not answer: %w", client, err)
		}

		return nil
	}
}
