// Package protocol holds the wire format shared by the relay server and its clients.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/royal-ur/internal/apperror"
	"github.com/rocketscienceinc/royal-ur/internal/entity"
)

// Actions of the websocket envelope.
const (
	ActionMatchCreate      = "match:create"
	ActionMatchJoin        = "match:join"
	ActionMatchLeave       = "match:leave"
	ActionMatchData        = "match:data"
	ActionMatchPresence    = "match:presence"
	ActionMatchmakerAdd    = "matchmaker:add"
	ActionMatchmakerRemove = "matchmaker:remove"
	ActionMatchmakerMatch  = "matchmaker:matched"
	ActionError            = "error"
)

// OpCodeMove tags match data carrying game traffic.
const OpCodeMove = 1

const (
	OpMove  = "move"
	OpState = "state"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
	// RequestID is echoed on the reply so a client can wait for it.
	RequestID string `json:"requestId,omitempty"`
}

type MatchRequest struct {
	MatchID string `json:"matchId"`
}

// MatchResponse answers match:create and match:join.
type MatchResponse struct {
	MatchID   string            `json:"matchId"`
	Color     entity.Color      `json:"color"`
	Presences []entity.Presence `json:"presences"`
	// Metadata is the latest stored snapshot as JSON, empty for a fresh match.
	Metadata string `json:"metadata,omitempty"`
}

// MatchDataMessage travels in both directions; Sender is filled by the relay.
type MatchDataMessage struct {
	MatchID string           `json:"matchId"`
	OpCode  int              `json:"opCode"`
	Data    json.RawMessage  `json:"data"`
	Sender  *entity.Presence `json:"sender,omitempty"`
}

type MatchmakerMatched struct {
	MatchID string `json:"matchId"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

// DeviceAuthRequest is the body of POST /auth/device.
type DeviceAuthRequest struct {
	DeviceID string `json:"deviceId"`
	Username string `json:"username,omitempty"`
}

type DeviceAuthResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
}

// GamePayload is the data of an OpCodeMove packet.
type GamePayload struct {
	Op    string             `json:"op"`
	Move  *entity.MoveAction `json:"move,omitempty"`
	State *entity.GameState  `json:"state,omitempty"`
}

func NewMovePayload(move entity.MoveAction, state *entity.GameState) ([]byte, error) {
	return marshalPayload(GamePayload{Op: OpMove, Move: &move, State: state})
}

func NewStatePayload(state *entity.GameState) ([]byte, error) {
	return marshalPayload(GamePayload{Op: OpState, State: state})
}

func ParseGamePayload(raw []byte) (*GamePayload, error) {
	var payload GamePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedPayload, err)
	}

	return &payload, nil
}

func marshalPayload(payload GamePayload) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", payload.Op, err)
	}

	return raw, nil
}

// NewMessage wraps payload into the envelope.
func NewMessage(action string, payload any) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", action, err)
	}

	return &Message{Action: action, Payload: raw}, nil
}
