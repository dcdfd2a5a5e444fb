package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/rocketscienceinc/royal-ur/internal/pkg"
)

type MatchmakerService interface {
	// Add queues the user. When an opponent is waiting a match is created with both seated
	// and the two user ids are returned, longest waiting first.
	Add(ctx context.Context, userID string) (*entity.Match, []string, error)
	Remove(ctx context.Context, userID string) error
}

type matchmakerQueue interface {
	Enqueue(ctx context.Context, userID string) error
	Remove(ctx context.Context, userID string) error
	PopPair(ctx context.Context) (string, string, bool, error)
}

type matchmakerService struct {
	logger    *slog.Logger
	queue     matchmakerQueue
	matchRepo matchRepo

	// pairing pops two entries; one relay process pairs at a time.
	mu sync.Mutex
}

func NewMatchmakerService(logger *slog.Logger, queue matchmakerQueue, matchRepo matchRepo) MatchmakerService {
	return &matchmakerService{
		logger:    logger.With("component", "matchmaker"),
		queue:     queue,
		matchRepo: matchRepo,
	}
}

func (that *matchmakerService) Add(ctx context.Context, userID string) (*entity.Match, []string, error) {
	log := that.logger.With("method", "Add")

	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.queue.Enqueue(ctx, userID); err != nil {
		return nil, nil, fmt.Errorf("failed to enqueue: %w", err)
	}

	first, second, ok, err := that.queue.PopPair(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to pair: %w", err)
	}

	if !ok {
		log.Debug("player waiting for an opponent", "userID", userID)
		return nil, nil, nil
	}

	match := entity.NewMatch(pkg.GenerateMatchID())
	match.Seat(first)
	match.Seat(second)

	if err = that.matchRepo.CreateOrUpdate(ctx, match); err != nil {
		return nil, nil, fmt.Errorf("failed to create match: %w", err)
	}

	log.Info("players matched", "matchID", match.ID, "light", first, "dark", second)

	return match, []string{first, second}, nil
}

func (that *matchmakerService) Remove(ctx context.Context, userID string) error {
	if err := that.queue.Remove(ctx, userID); err != nil {
		return fmt.Errorf("failed to leave matchmaking: %w", err)
	}

	return nil
}
