package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/rocketscienceinc/royal-ur/internal/protocol"
	"github.com/rocketscienceinc/royal-ur/internal/service"
)

type MatchUseCase interface {
	CreateMatch(ctx context.Context, presence entity.Presence) (*protocol.MatchResponse, error)
	JoinMatch(ctx context.Context, matchID string, presence entity.Presence) (*protocol.MatchResponse, []entity.Presence, error)
	LeaveMatch(ctx context.Context, matchID, userID string) ([]entity.Presence, error)
	// SendData returns the packet peers must receive and who they are.
	SendData(ctx context.Context, matchID string, sender entity.Presence, opCode int, data []byte) (*protocol.MatchDataMessage, []entity.Presence, error)
	FindMatch(ctx context.Context, userID string) (*entity.Match, []string, error)
	CancelMatchmaking(ctx context.Context, userID string) error
}

type matchService interface {
	Create(ctx context.Context, presence entity.Presence) (*entity.Match, error)
	Join(ctx context.Context, matchID string, presence entity.Presence) (*entity.Match, *entity.Snapshot, error)
	Leave(ctx context.Context, matchID, userID string) (*entity.Match, error)
	Relay(ctx context.Context, matchID, userID string, opCode int, data []byte) ([]byte, []entity.Presence, error)
}

type matchmakerService interface {
	Add(ctx context.Context, userID string) (*entity.Match, []string, error)
	Remove(ctx context.Context, userID string) error
}

type matchUseCase struct {
	logger            *slog.Logger
	matchService      matchService
	matchmakerService matchmakerService
}

func NewMatchUseCase(logger *slog.Logger, matchService matchService, matchmakerService matchmakerService) MatchUseCase {
	return &matchUseCase{
		logger:            logger.With("component", "matchUseCase"),
		matchService:      matchService,
		matchmakerService: matchmakerService,
	}
}

func (that *matchUseCase) CreateMatch(ctx context.Context, presence entity.Presence) (*protocol.MatchResponse, error) {
	match, err := that.matchService.Create(ctx, presence)
	if err != nil {
		return nil, fmt.Errorf("could not create match: %w", err)
	}

	return matchResponse(match, presence.UserID, ""), nil
}

// JoinMatch also returns the participants already present, who must hear about the join.
func (that *matchUseCase) JoinMatch(ctx context.Context, matchID string, presence entity.Presence) (*protocol.MatchResponse, []entity.Presence, error) {
	match, snapshot, err := that.matchService.Join(ctx, matchID, presence)
	if err != nil {
		return nil, nil, fmt.Errorf("could not join match: %w", err)
	}

	metadata, err := service.SnapshotMetadata(snapshot)
	if err != nil {
		return nil, nil, fmt.Errorf("could not render metadata: %w", err)
	}

	that.logger.Info("player joined match", "matchID", matchID, "userID", presence.UserID, "resync", metadata != "")

	return matchResponse(match, presence.UserID, metadata), match.Others(presence.UserID), nil
}

func (that *matchUseCase) LeaveMatch(ctx context.Context, matchID, userID string) ([]entity.Presence, error) {
	match, err := that.matchService.Leave(ctx, matchID, userID)
	if err != nil {
		return nil, fmt.Errorf("could not leave match: %w", err)
	}

	return match.Others(userID), nil
}

func (that *matchUseCase) SendData(
	ctx context.Context, matchID string, sender entity.Presence, opCode int, data []byte,
) (*protocol.MatchDataMessage, []entity.Presence, error) {
	out, peers, err := that.matchService.Relay(ctx, matchID, sender.UserID, opCode, data)
	if err != nil {
		return nil, nil, fmt.Errorf("could not relay data: %w", err)
	}

	message := &protocol.MatchDataMessage{
		MatchID: matchID,
		OpCode:  opCode,
		Data:    out,
		Sender:  &sender,
	}

	return message, peers, nil
}

func (that *matchUseCase) FindMatch(ctx context.Context, userID string) (*entity.Match, []string, error) {
	match, users, err := that.matchmakerService.Add(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("could not find match: %w", err)
	}

	return match, users, nil
}

func (that *matchUseCase) CancelMatchmaking(ctx context.Context, userID string) error {
	if err := that.matchmakerService.Remove(ctx, userID); err != nil {
		return fmt.Errorf("could not cancel matchmaking: %w", err)
	}

	return nil
}

func matchResponse(match *entity.Match, userID, metadata string) *protocol.MatchResponse {
	color, _ := match.ColorOf(userID)

	return &protocol.MatchResponse{
		MatchID:   match.ID,
		Color:     color,
		Presences: match.Presences,
		Metadata:  metadata,
	}
}
