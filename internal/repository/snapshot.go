package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/royal-ur/internal/apperror"
	"github.com/rocketscienceinc/royal-ur/internal/entity"
)

// SnapshotRepository keeps the latest game state relayed for each match.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *entity.Snapshot) error
	Get(ctx context.Context, matchID string) (*entity.Snapshot, error)
}

type dbSnapshot struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotRepository(client *redis.Client, ttl time.Duration) SnapshotRepository {
	return &dbSnapshot{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbSnapshot) Save(ctx context.Context, snapshot *entity.Snapshot) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal snapshot: %w", err)
	}

	if err = that.client.Set(ctx, snapshotKey(snapshot.MatchID), snapshotJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set snapshot: %w", err)
	}

	return nil
}

// Get returns apperror.ErrNotFound when nothing was relayed for the match yet or the snapshot expired.
func (that *dbSnapshot) Get(ctx context.Context, matchID string) (*entity.Snapshot, error) {
	response, err := that.client.Get(ctx, snapshotKey(matchID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snapshot entity.Snapshot
	if err = json.Unmarshal([]byte(response), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}

func snapshotKey(matchID string) string {
	return "snapshot:" + matchID
}
