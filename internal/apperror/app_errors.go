package apperror

import "errors"

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrWrongPhase       = errors.New("action not allowed in the current phase")
	ErrIllegalMove      = errors.New("illegal move")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrStaleSnapshot    = errors.New("snapshot is older than the local state")

	ErrTimeout      = errors.New("operation timed out")
	ErrNotConnected = errors.New("not connected to the relay")
	ErrRejected     = errors.New("rejected by the relay")

	ErrNotFound       = errors.New("not found")
	ErrMatchNotFound  = errors.New("match not found")
	ErrMatchFull      = errors.New("match is full")
	ErrNotInMatch     = errors.New("player is not in the match")
	ErrPlayerNotFound = errors.New("player not found")
	ErrUnauthorized   = errors.New("unauthorized")
)
