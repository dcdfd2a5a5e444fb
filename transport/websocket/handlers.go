package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/royal-ur/internal/apperror"
	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/rocketscienceinc/royal-ur/internal/protocol"
)

// clientErrors are reported to the client by their own text; anything else is internal.
var clientErrors = []error{
	apperror.ErrMatchNotFound,
	apperror.ErrMatchFull,
	apperror.ErrNotInMatch,
	apperror.ErrNotYourTurn,
	apperror.ErrWrongPhase,
	apperror.ErrIllegalMove,
	apperror.ErrGameFinished,
	apperror.ErrMalformedPayload,
}

func errorMessage(err error) string {
	for _, known := range clientErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}

	return "internal error"
}

func (that *Server) handleMatchCreate(ctx context.Context, client *client, msg *protocol.Message) error {
	log := that.logger.With("method", "handleMatchCreate", "userID", client.presence.UserID)

	resp, err := that.matchUseCase.CreateMatch(ctx, client.presence)
	if err != nil {
		that.sendError(client, msg, errorMessage(err))
		return fmt.Errorf("failed to create match: %w", err)
	}

	client.joined(resp.MatchID)
	that.send(client, msg.Action, msg.RequestID, resp)

	log.Info("match created", "matchID", resp.MatchID)

	return nil
}

func (that *Server) handleMatchJoin(ctx context.Context, client *client, msg *protocol.Message) error {
	log := that.logger.With("method", "handleMatchJoin", "userID", client.presence.UserID)

	var req protocol.MatchRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil || req.MatchID == "" {
		that.sendError(client, msg, "matchId is required")
		return fmt.Errorf("invalid join request: %w", apperror.ErrMalformedPayload)
	}

	resp, others, err := that.matchUseCase.JoinMatch(ctx, req.MatchID, client.presence)
	if err != nil {
		that.sendError(client, msg, errorMessage(err))
		return fmt.Errorf("failed to join match %s: %w", req.MatchID, err)
	}

	client.joined(resp.MatchID)
	that.send(client, msg.Action, msg.RequestID, resp)
	that.broadcastPresence(others, entity.PresenceEvent{MatchID: resp.MatchID, Joins: []entity.Presence{client.presence}})

	log.Info("player joined match", "matchID", resp.MatchID, "color", resp.Color)

	return nil
}

func (that *Server) handleMatchLeave(ctx context.Context, client *client, msg *protocol.Message) error {
	var req protocol.MatchRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil || req.MatchID == "" {
		that.sendError(client, msg, "matchId is required")
		return fmt.Errorf("invalid leave request: %w", apperror.ErrMalformedPayload)
	}

	others, err := that.matchUseCase.LeaveMatch(ctx, req.MatchID, client.presence.UserID)
	if err != nil {
		that.sendError(client, msg, errorMessage(err))
		return fmt.Errorf("failed to leave match %s: %w", req.MatchID, err)
	}

	client.left(req.MatchID)
	that.send(client, msg.Action, msg.RequestID, req)
	that.broadcastPresence(others, entity.PresenceEvent{MatchID: req.MatchID, Leaves: []entity.Presence{client.presence}})

	return nil
}

// handleMatchData relays game traffic to the other participants. The sender gets nothing back unless it fails.
func (that *Server) handleMatchData(ctx context.Context, client *client, msg *protocol.Message) error {
	var req protocol.MatchDataMessage
	if err := json.Unmarshal(msg.Payload, &req); err != nil || req.MatchID == "" {
		that.sendError(client, msg, apperror.ErrMalformedPayload.Error())
		return fmt.Errorf("invalid match data: %w", apperror.ErrMalformedPayload)
	}

	out, peers, err := that.matchUseCase.SendData(ctx, req.MatchID, client.presence, req.OpCode, req.Data)
	if err != nil {
		that.sendError(client, msg, errorMessage(err))
		return fmt.Errorf("failed to relay data in %s: %w", req.MatchID, err)
	}

	that.sendTo(peers, protocol.ActionMatchData, out)

	return nil
}

// handleMatchmakerAdd queues the player. Once paired, both players are told which match to join.
func (that *Server) handleMatchmakerAdd(ctx context.Context, client *client, msg *protocol.Message) error {
	log := that.logger.With("method", "handleMatchmakerAdd", "userID", client.presence.UserID)

	match, users, err := that.matchUseCase.FindMatch(ctx, client.presence.UserID)
	if err != nil {
		that.sendError(client, msg, errorMessage(err))
		return fmt.Errorf("failed to queue player: %w", err)
	}

	that.send(client, msg.Action, msg.RequestID, struct{}{})

	if match == nil {
		log.Debug("player queued")
		return nil
	}

	for _, userID := range users {
		peer, ok := that.connection(userID)
		if !ok {
			log.Warn("matched player is not connected", "matchID", match.ID, "peerID", userID)
			continue
		}

		that.send(peer, protocol.ActionMatchmakerMatch, "", protocol.MatchmakerMatched{MatchID: match.ID})
	}

	log.Info("players matched", "matchID", match.ID, "users", users)

	return nil
}

func (that *Server) handleMatchmakerRemove(ctx context.Context, client *client, msg *protocol.Message) error {
	if err := that.matchUseCase.CancelMatchmaking(ctx, client.presence.UserID); err != nil {
		that.sendError(client, msg, errorMessage(err))
		return fmt.Errorf("failed to cancel matchmaking: %w", err)
	}

	that.send(client, msg.Action, msg.RequestID, struct{}{})

	return nil
}
