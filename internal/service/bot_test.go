package service

import (
	"testing"

	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/rocketscienceinc/royal-ur/internal/ur"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func darkToMove(roll int, positions map[string]int) *entity.GameState {
	state := ur.NewGame()
	state.CurrentTurn = entity.Dark
	state.Phase = entity.PhaseMoving
	state.RollValue = &roll

	for id, position := range positions {
		for _, color := range []entity.Color{entity.Light, entity.Dark} {
			side := state.Side(color)
			if idx, ok := side.PieceByID(id); ok {
				side.Pieces[idx].Position = position
			}
		}
	}

	return state
}

func TestBotService_GetMove(t *testing.T) {
	bot := NewBotService()

	t.Run("Prefers finishing a piece", func(t *testing.T) {
		// Given: dark can finish from 12, capture on 6, or land on rosette 7
		state := darkToMove(2, map[string]int{
			"dark-0":  12,
			"dark-1":  4,
			"dark-2":  5,
			"light-0": 6,
		})

		// When: the bot chooses
		move, err := bot.GetMove(state, 2)
		require.NoError(t, err)

		// Then: it scores
		assert.Equal(t, entity.MoveAction{PieceID: "dark-0", FromIndex: 12, ToIndex: 14}, *move)
	})

	t.Run("Prefers capture over rosette", func(t *testing.T) {
		state := darkToMove(2, map[string]int{
			"dark-1":  4,
			"dark-2":  5,
			"light-0": 6,
		})

		move, err := bot.GetMove(state, 2)
		require.NoError(t, err)

		assert.Equal(t, entity.MoveAction{PieceID: "dark-1", FromIndex: 4, ToIndex: 6}, *move)
	})

	t.Run("Prefers rosette over plain progress", func(t *testing.T) {
		state := darkToMove(2, map[string]int{
			"dark-1": 8,
			"dark-2": 5,
		})

		move, err := bot.GetMove(state, 2)
		require.NoError(t, err)

		assert.Equal(t, entity.MoveAction{PieceID: "dark-2", FromIndex: 5, ToIndex: 7}, *move)
	})

	t.Run("Falls back to the piece furthest along", func(t *testing.T) {
		state := darkToMove(1, map[string]int{
			"dark-1": 8,
			"dark-2": 4,
		})

		move, err := bot.GetMove(state, 1)
		require.NoError(t, err)

		assert.Equal(t, entity.MoveAction{PieceID: "dark-1", FromIndex: 8, ToIndex: 9}, *move)
	})

	t.Run("Reserve entries tie-break on piece id", func(t *testing.T) {
		state := darkToMove(1, nil)

		move, err := bot.GetMove(state, 1)
		require.NoError(t, err)

		assert.Equal(t, "dark-0", move.PieceID)
	})

	t.Run("Always picks a legal move", func(t *testing.T) {
		state := darkToMove(3, map[string]int{
			"dark-0":  10,
			"dark-1":  13,
			"light-3": 7,
		})

		move, err := bot.GetMove(state, 3)
		require.NoError(t, err)

		assert.Contains(t, ur.GetValidMoves(state, 3), *move)
	})

	t.Run("No moves returns ErrNoAvailableMoves", func(t *testing.T) {
		state := darkToMove(0, nil)

		move, err := bot.GetMove(state, 0)

		require.ErrorIs(t, err, ErrNoAvailableMoves)
		assert.Nil(t, move)
	})
}
