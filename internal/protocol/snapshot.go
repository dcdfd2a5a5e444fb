package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/royal-ur/internal/apperror"
	"github.com/rocketscienceinc/royal-ur/internal/entity"
)

type snapshotEnvelope struct {
	State     json.RawMessage `json:"state"`
	GameState json.RawMessage `json:"gameState"`
}

type turnMarker struct {
	CurrentTurn string `json:"currentTurn"`
}

// ParseSnapshot extracts a game state from a relay payload or join metadata.
// The state may sit under "state", under "gameState", or be the payload itself,
// and it is only accepted when it carries a current turn.
func ParseSnapshot(raw []byte) (*entity.GameState, error) {
	var envelope snapshotEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedPayload, err)
	}

	candidate := raw
	switch {
	case present(envelope.State):
		candidate = envelope.State
	case present(envelope.GameState):
		candidate = envelope.GameState
	}

	var marker turnMarker
	if err := json.Unmarshal(candidate, &marker); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedPayload, err)
	}

	if marker.CurrentTurn == "" {
		return nil, fmt.Errorf("%w: no current turn", apperror.ErrMalformedPayload)
	}

	var state entity.GameState
	if err := json.Unmarshal(candidate, &state); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedPayload, err)
	}

	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedPayload, err)
	}

	if state.History == nil {
		state.History = []string{}
	}

	return &state, nil
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
