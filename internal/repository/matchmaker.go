package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const matchmakerKey = "matchmaker:queue"

// MatchmakerQueue is the FIFO of users waiting for an opponent.
type MatchmakerQueue interface {
	Enqueue(ctx context.Context, userID string) error
	Remove(ctx context.Context, userID string) error
	// PopPair takes the two longest waiting users. ok is false when fewer than two wait.
	PopPair(ctx context.Context) (first, second string, ok bool, err error)
	Len(ctx context.Context) (int64, error)
}

type dbMatchmaker struct {
	client *redis.Client
}

func NewMatchmakerQueue(client *redis.Client) MatchmakerQueue {
	return &dbMatchmaker{
		client: client,
	}
}

// Enqueue puts the user at the back of the queue; a user already waiting is moved there, never duplicated.
func (that *dbMatchmaker) Enqueue(ctx context.Context, userID string) error {
	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, matchmakerKey, 0, userID)
		pipe.RPush(ctx, matchmakerKey, userID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue player: %w", err)
	}

	return nil
}

func (that *dbMatchmaker) Remove(ctx context.Context, userID string) error {
	if err := that.client.LRem(ctx, matchmakerKey, 0, userID).Err(); err != nil {
		return fmt.Errorf("failed to remove player from queue: %w", err)
	}

	return nil
}

func (that *dbMatchmaker) PopPair(ctx context.Context) (string, string, bool, error) {
	users, err := that.client.LPopCount(ctx, matchmakerKey, 2).Result()
	if errors.Is(err, redis.Nil) {
		return "", "", false, nil
	}

	if err != nil {
		return "", "", false, fmt.Errorf("failed to pop players: %w", err)
	}

	if len(users) < 2 {
		if len(users) == 1 {
			if err = that.client.LPush(ctx, matchmakerKey, users[0]).Err(); err != nil {
				return "", "", false, fmt.Errorf("failed to requeue player: %w", err)
			}
		}

		return "", "", false, nil
	}

	return users[0], users[1], true, nil
}

func (that *dbMatchmaker) Len(ctx context.Context) (int64, error) {
	length, err := that.client.LLen(ctx, matchmakerKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}

	return length, nil
}
