package service

import (
	"errors"

	"github.com/rocketscienceinc/royal-ur/internal/board"
	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/rocketscienceinc/royal-ur/internal/ur"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// move priorities, highest first.
const (
	priorityAdvance = iota
	priorityRosette
	priorityCapture
	priorityFinish
)

type BotService interface {
	GetMove(state *entity.GameState, rollValue int) (*entity.MoveAction, error)
}

type botService struct{}

func NewBotService() BotService {
	return &botService{}
}

// GetMove picks the bot's move: finish, then capture, then rosette, then plain progress.
// Ties go to the piece furthest along its path, then to the lowest piece id.
func (that *botService) GetMove(state *entity.GameState, rollValue int) (*entity.MoveAction, error) {
	moves := ur.GetValidMoves(state, rollValue)
	if len(moves) == 0 {
		return nil, ErrNoAvailableMoves
	}

	best := moves[0]
	bestPriority := movePriority(state, best)

	for _, move := range moves[1:] {
		priority := movePriority(state, move)
		if better(priority, move, bestPriority, best) {
			best, bestPriority = move, priority
		}
	}

	return &best, nil
}

func movePriority(state *entity.GameState, move entity.MoveAction) int {
	switch {
	case move.IsFinishing():
		return priorityFinish
	case ur.IsCapture(state, move):
		return priorityCapture
	case board.IsRosetteIndex(move.ToIndex):
		return priorityRosette
	default:
		return priorityAdvance
	}
}

func better(priority int, move entity.MoveAction, bestPriority int, best entity.MoveAction) bool {
	if priority != bestPriority {
		return priority > bestPriority
	}

	if move.FromIndex != best.FromIndex {
		return move.FromIndex > best.FromIndex
	}

	return move.PieceID < best.PieceID
}
