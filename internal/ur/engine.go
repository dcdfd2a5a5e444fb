// Package ur is the rules engine: legal-move generation, move application and win detection.
// Every function is pure; callers receive a fresh state and the input is never mutated.
package ur

import (
	"fmt"

	"github.com/rocketscienceinc/royal-ur/internal/apperror"
	"github.com/rocketscienceinc/royal-ur/internal/board"
	"github.com/rocketscienceinc/royal-ur/internal/dice"
	"github.com/rocketscienceinc/royal-ur/internal/entity"
)

// NewGame returns the initial position: every piece in reserve, light to roll.
func NewGame() *entity.GameState {
	return &entity.GameState{
		Light:       entity.NewPlayerSide(entity.Light),
		Dark:        entity.NewPlayerSide(entity.Dark),
		CurrentTurn: entity.Light,
		Phase:       entity.PhaseRolling,
		History:     []string{},
	}
}

// GetValidMoves lists the legal moves of the side to move for the roll.
// A roll of 0 or a terminal state yields no moves.
func GetValidMoves(state *entity.GameState, rollValue int) []entity.MoveAction {
	moves := make([]entity.MoveAction, 0, entity.PiecesPerSide)

	if state == nil || state.IsEnded() || rollValue <= 0 || rollValue > dice.MaxRoll {
		return moves
	}

	mover := state.CurrentTurn
	for _, piece := range state.Side(mover).Pieces {
		if piece.IsFinished {
			continue
		}

		toIndex := piece.Position + rollValue
		if !canLand(state, mover, toIndex) {
			continue
		}

		moves = append(moves, entity.MoveAction{
			PieceID:   piece.ID,
			FromIndex: piece.Position,
			ToIndex:   toIndex,
		})
	}

	return moves
}

// canLand - checks overshoot, own blocking and rosette safety.
func canLand(state *entity.GameState, mover entity.Color, toIndex int) bool {
	if toIndex > entity.FinishIndex {
		return false
	}

	if toIndex == entity.FinishIndex {
		return true
	}

	if _, occupied := state.Side(mover).PieceAt(toIndex); occupied {
		return false
	}

	if _, ok := opponentAt(state, mover, toIndex); ok && board.IsRosetteIndex(toIndex) {
		return false
	}

	return true
}

// opponentAt finds the opposing piece standing on the square the mover's path index maps to.
func opponentAt(state *entity.GameState, mover entity.Color, toIndex int) (int, bool) {
	target, ok := board.CoordAt(mover, toIndex)
	if !ok {
		return 0, false
	}

	opponent := mover.Opponent()
	for i, piece := range state.Side(opponent).Pieces {
		if !piece.OnBoard() {
			continue
		}

		coord, _ := board.CoordAt(opponent, piece.Position)
		if coord == target {
			return i, true
		}
	}

	return 0, false
}

// IsCapture reports whether the move would send an opposing piece back to reserve.
func IsCapture(state *entity.GameState, move entity.MoveAction) bool {
	if move.ToIndex >= entity.FinishIndex || board.IsRosetteIndex(move.ToIndex) {
		return false
	}

	_, ok := opponentAt(state, state.CurrentTurn, move.ToIndex)
	return ok
}

// Roll moves a rolling state into the moving phase and returns the moves the roll allows.
func Roll(state *entity.GameState, rollValue int) (*entity.GameState, []entity.MoveAction, error) {
	if state.IsEnded() {
		return nil, nil, apperror.ErrGameFinished
	}

	if !state.IsRolling() {
		return nil, nil, fmt.Errorf("%w: cannot roll while %s", apperror.ErrWrongPhase, state.Phase)
	}

	if rollValue < 0 || rollValue > dice.MaxRoll {
		return nil, nil, fmt.Errorf("%w: roll %d", apperror.ErrIllegalMove, rollValue)
	}

	next := state.Clone()
	next.RollValue = &rollValue
	next.Phase = entity.PhaseMoving
	next.Seq++

	return next, GetValidMoves(next, rollValue), nil
}

// SkipTurn passes the turn when the pending roll allows no move.
func SkipTurn(state *entity.GameState) (*entity.GameState, error) {
	if !state.IsMoving() || state.RollValue == nil {
		return nil, fmt.Errorf("%w: cannot skip while %s", apperror.ErrWrongPhase, state.Phase)
	}

	if len(GetValidMoves(state, *state.RollValue)) > 0 {
		return nil, fmt.Errorf("%w: %s has moves for roll %d", apperror.ErrIllegalMove, state.CurrentTurn, *state.RollValue)
	}

	next := state.Clone()
	next.History = append(next.History, fmt.Sprintf("%s rolled %d but had no moves.", state.CurrentTurn, *state.RollValue))
	next.CurrentTurn = state.CurrentTurn.Opponent()
	next.Phase = entity.PhaseRolling
	next.RollValue = nil
	next.Seq++

	return next, nil
}

// ApplyMove commits a legal move and decides who plays next.
// A move absent from GetValidMoves is rejected and the state is left untouched.
func ApplyMove(state *entity.GameState, move entity.MoveAction) (*entity.GameState, error) {
	if err := validateMove(state, move); err != nil {
		return nil, fmt.Errorf("invalid move: %w", err)
	}

	next := state.Clone()
	mover := next.CurrentTurn
	own := next.Side(mover)
	opponent := next.Side(mover.Opponent())

	entry := fmt.Sprintf("%s moved %s from %d to %d.", mover, move.PieceID, move.FromIndex, move.ToIndex)

	if idx, ok := opponentAt(next, mover, move.ToIndex); ok && move.ToIndex < entity.FinishIndex {
		entry += fmt.Sprintf(" Captured %s.", opponent.Pieces[idx].ID)
		opponent.Pieces[idx].Position = entity.ReserveIndex
	}

	idx, ok := own.PieceFor(move.PieceID, move.FromIndex)
	if !ok {
		return nil, fmt.Errorf("invalid move: %w: no %s piece %s on %d", apperror.ErrIllegalMove, mover, move.PieceID, move.FromIndex)
	}
	own.Pieces[idx].Position = move.ToIndex

	if move.IsFinishing() {
		own.Pieces[idx].IsFinished = true
		own.FinishedCount++
		entry += " Scored."
	}

	next.RollValue = nil
	next.Seq++

	switch {
	case own.FinishedCount == entity.PiecesPerSide:
		winner := mover
		next.Winner = &winner
		next.Phase = entity.PhaseEnded
		entry += fmt.Sprintf(" %s wins.", mover)
	case !move.IsFinishing() && board.IsRosetteIndex(move.ToIndex):
		next.Phase = entity.PhaseRolling
		entry += " Landed on a rosette, rolls again."
	default:
		next.CurrentTurn = mover.Opponent()
		next.Phase = entity.PhaseRolling
	}

	next.History = append(next.History, entry)

	return next, nil
}

// validateMove - checks that the move is one of the legal moves of the pending roll.
func validateMove(state *entity.GameState, move entity.MoveAction) error {
	if state.IsEnded() {
		return apperror.ErrGameFinished
	}

	if !state.IsMoving() || state.RollValue == nil {
		return fmt.Errorf("%w: cannot move while %s", apperror.ErrWrongPhase, state.Phase)
	}

	if !IsValidMove(state, *state.RollValue, move) {
		return fmt.Errorf("%w: %s", apperror.ErrIllegalMove, move)
	}

	return nil
}

// IsValidMove reports whether move is among GetValidMoves(state, rollValue).
func IsValidMove(state *entity.GameState, rollValue int, move entity.MoveAction) bool {
	for _, candidate := range GetValidMoves(state, rollValue) {
		if candidate == move {
			return true
		}
	}

	return false
}
