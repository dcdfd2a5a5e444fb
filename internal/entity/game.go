package entity

import (
	"errors"
	"fmt"
)

type Color string

const (
	Light Color = "light"
	Dark  Color = "dark"
)

type Phase string

const (
	PhaseRolling Phase = "rolling"
	PhaseMoving  Phase = "moving"
	PhaseEnded   Phase = "ended"
)

const (
	PiecesPerSide = 7

	// ReserveIndex is the path index of a piece that has not entered the board yet.
	ReserveIndex = -1
	// FinishIndex is the path index of a scored piece. It has no board coordinate.
	FinishIndex = 14
	// PathLength is the number of on-board squares of one color's path.
	PathLength = 14

	// WarZoneStart and WarZoneEnd bound the path indices both colors share.
	// Equal indices in this range name the same square for either color.
	WarZoneStart = 4
	WarZoneEnd   = 11

	maxRollValue = 4
)

var (
	ErrUnknownColor = errors.New("unknown color")
	ErrUnknownPhase = errors.New("unknown phase")
	ErrInvalidState = errors.New("invalid game state")
)

func (that Color) Opponent() Color {
	if that == Light {
		return Dark
	}
	return Light
}

func (that Color) Validate() error {
	switch that {
	case Light, Dark:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownColor, string(that))
	}
}

func (that Phase) Validate() error {
	switch that {
	case PhaseRolling, PhaseMoving, PhaseEnded:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPhase, string(that))
	}
}

type Piece struct {
	ID         string `json:"id"`
	Position   int    `json:"position"`
	IsFinished bool   `json:"isFinished"`
}

func (that Piece) InReserve() bool {
	return !that.IsFinished && that.Position == ReserveIndex
}

func (that Piece) OnBoard() bool {
	return !that.IsFinished && that.Position >= 0 && that.Position < FinishIndex
}

type PlayerSide struct {
	Pieces        [PiecesPerSide]Piece `json:"pieces"`
	FinishedCount int                  `json:"finishedCount"`
}

func NewPlayerSide(color Color) PlayerSide {
	var side PlayerSide
	for i := range side.Pieces {
		side.Pieces[i] = Piece{
			ID:       fmt.Sprintf("%s-%d", color, i),
			Position: ReserveIndex,
		}
	}

	return side
}

// PieceAt returns the index into Pieces of the unfinished piece standing on the path index.
func (that *PlayerSide) PieceAt(position int) (int, bool) {
	for i, piece := range that.Pieces {
		if !piece.IsFinished && piece.Position == position {
			return i, true
		}
	}

	return 0, false
}

func (that *PlayerSide) PieceByID(id string) (int, bool) {
	for i, piece := range that.Pieces {
		if piece.ID == id {
			return i, true
		}
	}

	return 0, false
}

// PieceFor finds the unfinished piece with the id standing on the position.
func (that *PlayerSide) PieceFor(id string, position int) (int, bool) {
	for i, piece := range that.Pieces {
		if piece.ID == id && piece.Position == position && !piece.IsFinished {
			return i, true
		}
	}

	return 0, false
}

func (that *PlayerSide) ReserveCount() int {
	count := 0
	for _, piece := range that.Pieces {
		if piece.InReserve() {
			count++
		}
	}

	return count
}

// GameState is the whole match aggregate. It is the unit of transmission between clients and the relay.
type GameState struct {
	Light       PlayerSide `json:"light"`
	Dark        PlayerSide `json:"dark"`
	CurrentTurn Color      `json:"currentTurn"`
	Phase       Phase      `json:"phase"`
	RollValue   *int       `json:"rollValue"`
	Winner      *Color     `json:"winner"`
	History     []string   `json:"history"`
	Seq         uint64     `json:"seq,omitempty"`
}

func (that *GameState) Side(color Color) *PlayerSide {
	if color == Dark {
		return &that.Dark
	}
	return &that.Light
}

func (that *GameState) IsEnded() bool {
	return that.Phase == PhaseEnded || that.Winner != nil
}

func (that *GameState) IsRolling() bool {
	return that.Phase == PhaseRolling
}

func (that *GameState) IsMoving() bool {
	return that.Phase == PhaseMoving
}

// Clone returns a deep copy; the history slice is not shared.
func (that *GameState) Clone() *GameState {
	clone := *that

	if that.RollValue != nil {
		roll := *that.RollValue
		clone.RollValue = &roll
	}

	if that.Winner != nil {
		winner := *that.Winner
		clone.Winner = &winner
	}

	clone.History = make([]string, len(that.History))
	copy(clone.History, that.History)

	return &clone
}

// Validate checks the structural invariants of a state received from outside.
func (that *GameState) Validate() error {
	if err := that.CurrentTurn.Validate(); err != nil {
		return fmt.Errorf("current turn: %w", err)
	}

	if err := that.Phase.Validate(); err != nil {
		return fmt.Errorf("phase: %w", err)
	}

	if err := that.validateRoll(); err != nil {
		return err
	}

	ids := make(map[string]struct{}, 2*PiecesPerSide)
	for _, color := range []Color{Light, Dark} {
		if err := that.Side(color).validate(color, ids); err != nil {
			return err
		}
	}

	for _, piece := range that.Light.Pieces {
		if piece.Position < WarZoneStart || piece.Position > WarZoneEnd {
			continue
		}

		if idx, ok := that.Dark.PieceAt(piece.Position); ok {
			return fmt.Errorf("%w: %s and %s share war zone index %d",
				ErrInvalidState, piece.ID, that.Dark.Pieces[idx].ID, piece.Position)
		}
	}

	if (that.Winner != nil) != (that.Phase == PhaseEnded) {
		return fmt.Errorf("%w: phase %s with winner set %t", ErrInvalidState, that.Phase, that.Winner != nil)
	}

	if that.Winner != nil {
		if err := that.Winner.Validate(); err != nil {
			return fmt.Errorf("winner: %w", err)
		}

		if that.Side(*that.Winner).FinishedCount != PiecesPerSide {
			return fmt.Errorf("%w: winner %s has not finished every piece", ErrInvalidState, *that.Winner)
		}
	}

	return nil
}

// validateRoll - a moving phase always carries the roll it is waiting on.
func (that *GameState) validateRoll() error {
	if that.RollValue != nil && (*that.RollValue < 0 || *that.RollValue > maxRollValue) {
		return fmt.Errorf("%w: roll value %d", ErrInvalidState, *that.RollValue)
	}

	if that.Phase == PhaseMoving && that.RollValue == nil {
		return fmt.Errorf("%w: moving phase without a roll", ErrInvalidState)
	}

	return nil
}

// validate - checks one side and records its piece ids in seen.
func (that *PlayerSide) validate(color Color, seen map[string]struct{}) error {
	finished := 0
	squares := make(map[int]string, PiecesPerSide)

	for _, piece := range that.Pieces {
		if piece.ID == "" {
			return fmt.Errorf("%w: %s piece without id", ErrInvalidState, color)
		}

		if _, ok := seen[piece.ID]; ok {
			return fmt.Errorf("%w: duplicate piece id %s", ErrInvalidState, piece.ID)
		}
		seen[piece.ID] = struct{}{}

		if piece.Position < ReserveIndex || piece.Position > FinishIndex {
			return fmt.Errorf("%w: piece %s at %d", ErrInvalidState, piece.ID, piece.Position)
		}

		if piece.IsFinished != (piece.Position == FinishIndex) {
			return fmt.Errorf("%w: piece %s at %d finished %t", ErrInvalidState, piece.ID, piece.Position, piece.IsFinished)
		}

		if piece.IsFinished {
			finished++
		}

		if !piece.OnBoard() {
			continue
		}

		if other, ok := squares[piece.Position]; ok {
			return fmt.Errorf("%w: %s and %s share index %d", ErrInvalidState, other, piece.ID, piece.Position)
		}
		squares[piece.Position] = piece.ID
	}

	if finished != that.FinishedCount {
		return fmt.Errorf("%w: %s finished count %d, pieces finished %d", ErrInvalidState, color, that.FinishedCount, finished)
	}

	return nil
}

type MoveAction struct {
	PieceID   string `json:"pieceId"`
	FromIndex int    `json:"fromIndex"`
	ToIndex   int    `json:"toIndex"`
}

func (that MoveAction) IsFinishing() bool {
	return that.ToIndex == FinishIndex
}

func (that MoveAction) String() string {
	return fmt.Sprintf("%s %d->%d", that.PieceID, that.FromIndex, that.ToIndex)
}
