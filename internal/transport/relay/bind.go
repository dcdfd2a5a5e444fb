package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/rocketscienceinc/royal-ur/internal/protocol"
	"github.com/rocketscienceinc/royal-ur/internal/session"
)

// Bind routes a session's traffic through client and rejoins its match after a drop.
// The returned Reconnector must be closed with the session.
func Bind(ctx context.Context, logger *slog.Logger, client *Client, sess *session.Session, reconnectDelay time.Duration) *Reconnector {
	log := logger.With("component", "relayBinding")

	sess.SetMoveSender(func(move entity.MoveAction, state *entity.GameState) {
		data, err := protocol.NewMovePayload(move, state)
		if err != nil {
			log.Error("failed to encode move", "error", err)
			return
		}

		if err = client.SendMatchState(ctx, sess.MatchID(), protocol.OpCodeMove, data); err != nil {
			log.Warn("failed to send move", "move", move.String(), "error", err)
		}
	})

	sess.SetStatePublisher(func(state *entity.GameState) {
		data, err := protocol.NewStatePayload(state)
		if err != nil {
			log.Error("failed to encode state", "error", err)
			return
		}

		if err = client.SendMatchState(ctx, sess.MatchID(), protocol.OpCodeMove, data); err != nil {
			log.Warn("failed to publish state", "error", err)
		}
	})

	client.OnMatchData(func(message *protocol.MatchDataMessage) {
		if message.OpCode != protocol.OpCodeMove || message.MatchID != sess.MatchID() {
			return
		}

		if err := sess.ApplyMatchData(message.Data); err != nil {
			log.Debug("ignoring match data", "matchID", message.MatchID, "error", err)
		}
	})

	client.OnMatchPresence(func(event entity.PresenceEvent) {
		if event.MatchID == sess.MatchID() {
			sess.UpdatePresences(event)
		}
	})

	reconnector := NewReconnector(logger, reconnectDelay, func(ctx context.Context) error {
		sess.SetConnectionStatus(session.StatusConnecting)

		if err := client.Connect(ctx); err != nil {
			sess.SetConnectionStatus(session.StatusError)
			return err
		}

		if matchID := sess.MatchID(); matchID != "" {
			resp, err := client.JoinMatch(ctx, matchID)
			if err != nil {
				sess.SetConnectionStatus(session.StatusError)
				return err
			}

			if err = sess.ApplyJoinMetadata(resp.Metadata); err != nil {
				log.Debug("ignoring join metadata", "matchID", matchID, "error", err)
			}
		}

		sess.SetConnectionStatus(session.StatusConnected)

		return nil
	})

	client.OnDisconnect(func(error) {
		sess.SetConnectionStatus(session.StatusDisconnected)
		reconnector.Schedule(ctx)
	})

	return reconnector
}
