package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/royal-ur/internal/apperror"
	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/rocketscienceinc/royal-ur/internal/pkg"
	"github.com/rocketscienceinc/royal-ur/internal/protocol"
	"github.com/rocketscienceinc/royal-ur/internal/ur"
)

type MatchService interface {
	Create(ctx context.Context, presence entity.Presence) (*entity.Match, error)
	Join(ctx context.Context, matchID string, presence entity.Presence) (*entity.Match, *entity.Snapshot, error)
	Leave(ctx context.Context, matchID, userID string) (*entity.Match, error)
	// Relay checks and stores game traffic sent by userID.
	// It returns the data peers must receive and the peers present.
	Relay(ctx context.Context, matchID, userID string, opCode int, data []byte) ([]byte, []entity.Presence, error)
}

type matchRepo interface {
	CreateOrUpdate(ctx context.Context, match *entity.Match) error
	GetByID(ctx context.Context, id string) (*entity.Match, error)
}

type snapshotRepo interface {
	Save(ctx context.Context, snapshot *entity.Snapshot) error
	Get(ctx context.Context, matchID string) (*entity.Snapshot, error)
}

type matchService struct {
	logger        *slog.Logger
	matchRepo     matchRepo
	snapshotRepo  snapshotRepo
	validateMoves bool
}

func NewMatchService(logger *slog.Logger, matchRepo matchRepo, snapshotRepo snapshotRepo, validateMoves bool) MatchService {
	return &matchService{
		logger:        logger.With("component", "matchService"),
		matchRepo:     matchRepo,
		snapshotRepo:  snapshotRepo,
		validateMoves: validateMoves,
	}
}

func (that *matchService) Create(ctx context.Context, presence entity.Presence) (*entity.Match, error) {
	match := entity.NewMatch(pkg.GenerateMatchID())
	match.AddPresence(presence)

	if err := that.matchRepo.CreateOrUpdate(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	return match, nil
}

// Join seats the player and returns the latest snapshot, nil when nothing was relayed yet.
// Joining a match one is already present in refreshes the presence.
func (that *matchService) Join(ctx context.Context, matchID string, presence entity.Presence) (*entity.Match, *entity.Snapshot, error) {
	match, err := that.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get match: %w", err)
	}

	if !match.CanSeat(presence.UserID) {
		return nil, nil, fmt.Errorf("%w: %s", apperror.ErrMatchFull, matchID)
	}

	match.RemovePresence(presence.UserID)
	match.AddPresence(presence)

	if err = that.matchRepo.CreateOrUpdate(ctx, match); err != nil {
		return nil, nil, fmt.Errorf("failed to update match: %w", err)
	}

	snapshot, err := that.snapshotRepo.Get(ctx, matchID)
	if errors.Is(err, apperror.ErrNotFound) {
		return match, nil, nil
	}

	if err != nil {
		return nil, nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return match, snapshot, nil
}

func (that *matchService) Leave(ctx context.Context, matchID, userID string) (*entity.Match, error) {
	match, err := that.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	if _, ok := match.RemovePresence(userID); !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrNotInMatch, matchID)
	}

	if err = that.matchRepo.CreateOrUpdate(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	return match, nil
}

func (that *matchService) Relay(ctx context.Context, matchID, userID string, opCode int, data []byte) ([]byte, []entity.Presence, error) {
	match, err := that.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get match: %w", err)
	}

	if !match.HasUser(userID) {
		return nil, nil, fmt.Errorf("%w: %s", apperror.ErrNotInMatch, matchID)
	}

	out, err := that.relay(ctx, match, userID, opCode, data)
	if err != nil {
		return nil, nil, err
	}

	return out, match.Others(userID), nil
}

func (that *matchService) relay(ctx context.Context, match *entity.Match, userID string, opCode int, data []byte) ([]byte, error) {
	if opCode != protocol.OpCodeMove {
		return data, nil
	}

	if that.validateMoves {
		return that.relayValidated(ctx, match, userID, data)
	}

	state, err := protocol.ParseSnapshot(data)
	if err != nil {
		that.logger.Debug("relaying data without a snapshot", "matchID", match.ID, "error", err)
		return data, nil
	}

	if err = that.store(ctx, match.ID, state); err != nil {
		return nil, err
	}

	return data, nil
}

// relayValidated accepts a packet only from the player on turn and only if it follows from the stored state.
// The stored state is then advanced by the relay itself.
func (that *matchService) relayValidated(ctx context.Context, match *entity.Match, userID string, data []byte) ([]byte, error) {
	payload, err := protocol.ParseGamePayload(data)
	if err != nil {
		return nil, err
	}

	snapshot, err := that.snapshotRepo.Get(ctx, match.ID)
	if errors.Is(err, apperror.ErrNotFound) {
		snapshot = &entity.Snapshot{MatchID: match.ID, State: ur.NewGame()}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	stored := snapshot.State
	if color, _ := match.ColorOf(userID); color != stored.CurrentTurn {
		return nil, fmt.Errorf("%w: %s to move", apperror.ErrNotYourTurn, stored.CurrentTurn)
	}

	var next *entity.GameState

	switch payload.Op {
	case protocol.OpMove:
		if payload.Move == nil {
			return nil, fmt.Errorf("%w: move packet without a move", apperror.ErrMalformedPayload)
		}

		next, err = ur.ApplyMove(stored, *payload.Move)
		if err != nil {
			return nil, fmt.Errorf("move rejected: %w", err)
		}

		data, err = protocol.NewMovePayload(*payload.Move, next)
	case protocol.OpState:
		next, err = that.checkTransition(stored, payload.State)
		if err != nil {
			return nil, err
		}

		data, err = protocol.NewStatePayload(next)
	default:
		return nil, fmt.Errorf("%w: unknown op %q", apperror.ErrMalformedPayload, payload.Op)
	}

	if err != nil {
		return nil, err
	}

	if err = that.store(ctx, match.ID, next); err != nil {
		return nil, err
	}

	return data, nil
}

// checkTransition accepts a roll or a skipped turn announced by the player on turn.
func (that *matchService) checkTransition(stored, announced *entity.GameState) (*entity.GameState, error) {
	if announced == nil {
		return nil, fmt.Errorf("%w: state packet without a state", apperror.ErrMalformedPayload)
	}

	switch {
	case stored.IsRolling() && announced.IsMoving() && announced.RollValue != nil:
		next, _, err := ur.Roll(stored, *announced.RollValue)
		if err != nil {
			return nil, fmt.Errorf("roll rejected: %w", err)
		}
		return next, nil
	case stored.IsMoving() && announced.IsRolling():
		next, err := ur.SkipTurn(stored)
		if err != nil {
			return nil, fmt.Errorf("skip rejected: %w", err)
		}
		return next, nil
	default:
		return nil, fmt.Errorf("%w: %s cannot follow %s", apperror.ErrWrongPhase, announced.Phase, stored.Phase)
	}
}

func (that *matchService) store(ctx context.Context, matchID string, state *entity.GameState) error {
	snapshot := &entity.Snapshot{
		MatchID:   matchID,
		State:     state,
		UpdatedAt: time.Now().UTC(),
	}

	if err := that.snapshotRepo.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	return nil
}

// SnapshotMetadata renders a stored snapshot the way match:join carries it.
func SnapshotMetadata(snapshot *entity.Snapshot) (string, error) {
	if snapshot == nil || snapshot.State == nil {
		return "", nil
	}

	raw, err := json.Marshal(protocol.GamePayload{Op: protocol.OpState, State: snapshot.State})
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	return string(raw), nil
}
