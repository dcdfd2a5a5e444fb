package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/rocketscienceinc/royal-ur/internal/pkg"
	"github.com/rocketscienceinc/royal-ur/internal/protocol"
	"github.com/rocketscienceinc/royal-ur/internal/usecase"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type authUseCase interface {
	Authorize(ctx context.Context, token string) (*entity.Player, error)
}

type handlerFunc func(ctx context.Context, client *client, message *protocol.Message) error

type Server struct {
	logger *slog.Logger

	authUseCase  authUseCase
	matchUseCase usecase.MatchUseCase

	upgrader        websocket.Upgrader
	maxMessageBytes int64

	handlers map[string]handlerFunc

	// one live connection per user; a reconnect replaces the old one.
	connectionsMutex sync.RWMutex
	connections      map[string]*client
}

func New(logger *slog.Logger, authUseCase authUseCase, matchUseCase usecase.MatchUseCase, maxMessageBytes int64) *Server {
	server := &Server{
		logger:          logger.With("component", "websocket"),
		authUseCase:     authUseCase,
		matchUseCase:    matchUseCase,
		upgrader:        websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		maxMessageBytes: maxMessageBytes,
		connections:     make(map[string]*client),
	}

	server.handlers = map[string]handlerFunc{
		protocol.ActionMatchCreate:      server.handleMatchCreate,
		protocol.ActionMatchJoin:        server.handleMatchJoin,
		protocol.ActionMatchLeave:       server.handleMatchLeave,
		protocol.ActionMatchData:        server.handleMatchData,
		protocol.ActionMatchmakerAdd:    server.handleMatchmakerAdd,
		protocol.ActionMatchmakerRemove: server.handleMatchmakerRemove,
	}

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", that.Handler(ctx))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Handler - upgrades authenticated requests to a relay connection.
func (that *Server) Handler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		that.upgradeToWebSocket(ctx, writer, req)
	})
}

// upgradeToWebSocket - authorizes the token query parameter and upgrades the connection.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeConnection")

	player, err := that.authUseCase.Authorize(req.Context(), req.URL.Query().Get("token"))
	if err != nil {
		log.Info("rejected connection", "error", err)
		http.Error(writer, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	presence := entity.Presence{
		UserID:    player.ID,
		SessionID: pkg.GenerateNewSessionID(),
		Username:  player.Username,
	}

	client := newClient(conn, presence)
	that.register(client)

	log.Info("WebSocket connection established", "userID", presence.UserID, "sessionID", presence.SessionID)

	go client.pingLoop()

	if err = that.handleMessages(ctx, client); err != nil {
		log.Debug("connection closed", "userID", presence.UserID, "error", err)
	}

	that.handleDisconnect(ctx, client)
}

// handleMessages - processes messages from the client until the connection drops.
func (that *Server) handleMessages(ctx context.Context, client *client) error {
	log := that.logger.With("method", "handleMessages", "userID", client.presence.UserID)

	client.conn.SetReadLimit(that.maxMessageBytes)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, reqBody, err := client.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message protocol.Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			that.sendError(client, &message, "unknown action")
			continue
		}

		if err = handler(ctx, client, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) register(client *client) {
	that.connectionsMutex.Lock()
	previous, ok := that.connections[client.presence.UserID]
	that.connections[client.presence.UserID] = client
	that.connectionsMutex.Unlock()

	if ok {
		client.inheritMatches(previous)
		previous.close()
	}
}

func (that *Server) connection(userID string) (*client, bool) {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	client, ok := that.connections[userID]
	return client, ok
}

// handleDisconnect - drops the connection and announces the leave to every match it was in.
func (that *Server) handleDisconnect(ctx context.Context, client *client) {
	log := that.logger.With("method", "handleDisconnect", "userID", client.presence.UserID)

	client.close()

	that.connectionsMutex.Lock()
	current, ok := that.connections[client.presence.UserID]
	replaced := ok && current != client
	if ok && !replaced {
		delete(that.connections, client.presence.UserID)
	}
	that.connectionsMutex.Unlock()

	if replaced {
		return
	}

	if err := that.matchUseCase.CancelMatchmaking(ctx, client.presence.UserID); err != nil {
		log.Error("failed to cancel matchmaking", "error", err)
	}

	for _, matchID := range client.matchIDs() {
		others, err := that.matchUseCase.LeaveMatch(ctx, matchID, client.presence.UserID)
		if err != nil {
			log.Error("failed to leave match", "matchID", matchID, "error", err)
			continue
		}

		that.broadcastPresence(others, entity.PresenceEvent{MatchID: matchID, Leaves: []entity.Presence{client.presence}})
	}

	log.Info("player disconnected")
}

func (that *Server) send(client *client, action, requestID string, payload any) {
	message, err := protocol.NewMessage(action, payload)
	if err != nil {
		that.logger.Error("failed to build message", "action", action, "error", err)
		return
	}
	message.RequestID = requestID

	if err = client.write(message); err != nil {
		that.logger.Debug("failed to send message", "userID", client.presence.UserID, "action", action, "error", err)
	}
}

func (that *Server) sendTo(presences []entity.Presence, action string, payload any) {
	for _, presence := range presences {
		client, ok := that.connection(presence.UserID)
		if !ok {
			continue
		}

		that.send(client, action, "", payload)
	}
}

func (that *Server) sendError(client *client, request *protocol.Message, errorMsg string) {
	that.send(client, protocol.ActionError, request.RequestID, protocol.ErrorResponse{Message: errorMsg})
}

func (that *Server) broadcastPresence(presences []entity.Presence, event entity.PresenceEvent) {
	that.sendTo(presences, protocol.ActionMatchPresence, event)
}
