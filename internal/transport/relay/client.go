// Package relay connects a player to the match relay: device auth, match membership and game traffic.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/royal-ur/internal/apperror"
	"github.com/rocketscienceinc/royal-ur/internal/config"
	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/rocketscienceinc/royal-ur/internal/pkg"
	"github.com/rocketscienceinc/royal-ur/internal/protocol"
)

const writeWait = 10 * time.Second

type (
	MatchDataHandler     func(message *protocol.MatchDataMessage)
	MatchPresenceHandler func(event entity.PresenceEvent)
	DisconnectHandler    func(err error)
)

type Client struct {
	logger *slog.Logger
	conf   config.Client

	httpClient *http.Client
	dialer     *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	token  string
	userID string

	onMatchData     MatchDataHandler
	onMatchPresence MatchPresenceHandler
	onDisconnect    DisconnectHandler

	writeMutex sync.Mutex

	pendingMutex sync.Mutex
	pending      map[string]pendingRequest

	matched chan string
}

// pendingRequest is a request waiting for its reply on the connection it was written to.
type pendingRequest struct {
	conn  *websocket.Conn
	reply chan *protocol.Message
}

func NewClient(logger *slog.Logger, conf config.Client) *Client {
	return &Client{
		logger:     logger.With("component", "relayClient"),
		conf:       conf,
		httpClient: &http.Client{Timeout: conf.ConnectTimeout},
		dialer:     &websocket.Dialer{HandshakeTimeout: conf.ConnectTimeout},
		pending:    make(map[string]pendingRequest),
		matched:    make(chan string, 1),
	}
}

func (that *Client) OnMatchData(handler MatchDataHandler) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.onMatchData = handler
}

func (that *Client) OnMatchPresence(handler MatchPresenceHandler) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.onMatchPresence = handler
}

func (that *Client) OnDisconnect(handler DisconnectHandler) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.onDisconnect = handler
}

func (that *Client) UserID() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.userID
}

// AuthenticateDevice exchanges a device id for a session token used by Connect.
func (that *Client) AuthenticateDevice(ctx context.Context, deviceID, username string) (*protocol.DeviceAuthResponse, error) {
	body, err := json.Marshal(protocol.DeviceAuthRequest{DeviceID: deviceID, Username: username})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal auth request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, that.conf.ConnectTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, that.conf.AuthURL+"/auth/device", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := that.httpClient.Do(req)
	if err != nil {
		return nil, timeoutOr(ctx, fmt.Errorf("failed to authenticate device: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: auth status %d", apperror.ErrUnauthorized, resp.StatusCode)
	}

	var auth protocol.DeviceAuthResponse
	if err = json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}

	that.mu.Lock()
	that.token = auth.Token
	that.userID = auth.UserID
	that.mu.Unlock()

	that.logger.Info("device authenticated", "userID", auth.UserID)

	return &auth, nil
}

// Connect dials the relay with the session token. A live connection is kept.
func (that *Client) Connect(ctx context.Context) error {
	that.mu.Lock()
	token := that.token
	connected := that.conn != nil
	that.mu.Unlock()

	if connected {
		return nil
	}

	if token == "" {
		return fmt.Errorf("%w: no session token", apperror.ErrUnauthorized)
	}

	endpoint, err := url.Parse(that.conf.RelayURL)
	if err != nil {
		return fmt.Errorf("invalid relay url: %w", err)
	}
	query := endpoint.Query()
	query.Set("token", token)
	endpoint.RawQuery = query.Encode()

	ctx, cancel := context.WithTimeout(ctx, that.conf.ConnectTimeout)
	defer cancel()

	conn, resp, err := that.dialer.DialContext(ctx, endpoint.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: relay refused the token", apperror.ErrUnauthorized)
		}
		return timeoutOr(ctx, fmt.Errorf("failed to connect to relay: %w", err))
	}

	that.mu.Lock()
	that.conn = conn
	that.mu.Unlock()

	go that.readLoop(conn)

	that.logger.Info("connected to relay", "url", that.conf.RelayURL)

	return nil
}

// Close drops the connection without firing the disconnect handler.
func (that *Client) Close() error {
	that.mu.Lock()
	conn := that.conn
	that.conn = nil
	that.mu.Unlock()

	if conn == nil {
		return nil
	}

	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close relay connection: %w", err)
	}

	return nil
}

func (that *Client) CreateMatch(ctx context.Context) (*protocol.MatchResponse, error) {
	reply, err := that.request(ctx, that.conf.JoinTimeout, protocol.ActionMatchCreate, struct{}{})
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	return decodeMatchResponse(reply)
}

// JoinMatch returns the seat and, on rejoin, the stored snapshot as metadata.
func (that *Client) JoinMatch(ctx context.Context, matchID string) (*protocol.MatchResponse, error) {
	reply, err := that.request(ctx, that.conf.JoinTimeout, protocol.ActionMatchJoin, protocol.MatchRequest{MatchID: matchID})
	if err != nil {
		return nil, fmt.Errorf("failed to join match %s: %w", matchID, err)
	}

	return decodeMatchResponse(reply)
}

func (that *Client) LeaveMatch(ctx context.Context, matchID string) error {
	if _, err := that.request(ctx, that.conf.JoinTimeout, protocol.ActionMatchLeave, protocol.MatchRequest{MatchID: matchID}); err != nil {
		return fmt.Errorf("failed to leave match %s: %w", matchID, err)
	}

	return nil
}

// FindMatch queues for an opponent and joins the match the relay pairs us into.
func (that *Client) FindMatch(ctx context.Context) (*protocol.MatchResponse, error) {
	select {
	case <-that.matched:
	default:
	}

	if _, err := that.request(ctx, that.conf.JoinTimeout, protocol.ActionMatchmakerAdd, struct{}{}); err != nil {
		return nil, fmt.Errorf("failed to enter matchmaking: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, that.conf.MatchmakingTimeout)
	defer cancel()

	select {
	case matchID := <-that.matched:
		return that.JoinMatch(ctx, matchID)
	case <-waitCtx.Done():
		if _, err := that.request(ctx, that.conf.JoinTimeout, protocol.ActionMatchmakerRemove, struct{}{}); err != nil {
			that.logger.Warn("failed to leave matchmaking", "error", err)
		}
		return nil, timeoutOr(waitCtx, fmt.Errorf("no opponent found: %w", waitCtx.Err()))
	}
}

// SendMatchState relays data to the other participants of matchID.
func (that *Client) SendMatchState(_ context.Context, matchID string, opCode int, data []byte) error {
	message, err := protocol.NewMessage(protocol.ActionMatchData, protocol.MatchDataMessage{
		MatchID: matchID,
		OpCode:  opCode,
		Data:    data,
	})
	if err != nil {
		return err
	}

	return that.write(that.currentConn(), message)
}

func (that *Client) request(ctx context.Context, timeout time.Duration, action string, payload any) (*protocol.Message, error) {
	message, err := protocol.NewMessage(action, payload)
	if err != nil {
		return nil, err
	}
	message.RequestID = pkg.GenerateNewSessionID()

	conn := that.currentConn()
	if conn == nil {
		return nil, apperror.ErrNotConnected
	}

	replyCh := make(chan *protocol.Message, 1)

	that.pendingMutex.Lock()
	that.pending[message.RequestID] = pendingRequest{conn: conn, reply: replyCh}
	that.pendingMutex.Unlock()

	defer func() {
		that.pendingMutex.Lock()
		delete(that.pending, message.RequestID)
		that.pendingMutex.Unlock()
	}()

	if err = that.write(conn, message); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case reply, ok := <-replyCh:
		if !ok {
			return nil, apperror.ErrNotConnected
		}

		if reply.Action == protocol.ActionError {
			var errResp protocol.ErrorResponse
			_ = json.Unmarshal(reply.Payload, &errResp)
			return nil, fmt.Errorf("%w: %s", apperror.ErrRejected, errResp.Message)
		}

		return reply, nil
	case <-ctx.Done():
		return nil, timeoutOr(ctx, ctx.Err())
	}
}

func (that *Client) currentConn() *websocket.Conn {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.conn
}

func (that *Client) write(conn *websocket.Conn, message *protocol.Message) error {
	if conn == nil {
		return apperror.ErrNotConnected
	}

	that.writeMutex.Lock()
	defer that.writeMutex.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(message); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrNotConnected, err)
	}

	return nil
}

func (that *Client) readLoop(conn *websocket.Conn) {
	log := that.logger.With("method", "readLoop")

	var readErr error
	for {
		var message protocol.Message
		if readErr = conn.ReadJSON(&message); readErr != nil {
			break
		}

		that.dispatch(log, conn, &message)
	}

	that.mu.Lock()
	// Close already cleared the connection when the drop was ours.
	dropped := that.conn == conn
	if dropped {
		that.conn = nil
	}
	onDisconnect := that.onDisconnect
	that.mu.Unlock()

	that.failPending(conn)
	_ = conn.Close()

	if dropped {
		log.Warn("relay connection lost", "error", readErr)
		if onDisconnect != nil {
			onDisconnect(readErr)
		}
	}
}

func (that *Client) dispatch(log *slog.Logger, conn *websocket.Conn, message *protocol.Message) {
	if message.RequestID != "" && that.deliver(conn, message) {
		return
	}

	that.mu.Lock()
	onMatchData := that.onMatchData
	onMatchPresence := that.onMatchPresence
	that.mu.Unlock()

	switch message.Action {
	case protocol.ActionMatchData:
		var data protocol.MatchDataMessage
		if err := json.Unmarshal(message.Payload, &data); err != nil {
			log.Debug("dropping malformed match data", "error", err)
			return
		}
		if onMatchData != nil {
			onMatchData(&data)
		}
	case protocol.ActionMatchPresence:
		var event entity.PresenceEvent
		if err := json.Unmarshal(message.Payload, &event); err != nil {
			log.Debug("dropping malformed presence event", "error", err)
			return
		}
		if onMatchPresence != nil {
			onMatchPresence(event)
		}
	case protocol.ActionMatchmakerMatch:
		var matched protocol.MatchmakerMatched
		if err := json.Unmarshal(message.Payload, &matched); err != nil {
			log.Debug("dropping malformed matchmaker result", "error", err)
			return
		}
		select {
		case that.matched <- matched.MatchID:
		default:
			log.Warn("matchmaker result nobody waits for", "matchID", matched.MatchID)
		}
	case protocol.ActionError:
		log.Warn("relay reported an error", "payload", string(message.Payload))
	default:
		log.Debug("ignoring relay message", "action", message.Action)
	}
}

// deliver hands a reply to the request waiting for it on conn. The first reply wins; repeats are not delivered.
func (that *Client) deliver(conn *websocket.Conn, message *protocol.Message) bool {
	that.pendingMutex.Lock()
	defer that.pendingMutex.Unlock()

	req, ok := that.pending[message.RequestID]
	if !ok || req.conn != conn {
		return false
	}
	delete(that.pending, message.RequestID)

	select {
	case req.reply <- message:
	default:
	}

	return true
}

// failPending wakes the requests written to conn. Requests on a newer connection are left alone.
func (that *Client) failPending(conn *websocket.Conn) {
	that.pendingMutex.Lock()
	defer that.pendingMutex.Unlock()

	for id, req := range that.pending {
		if req.conn != conn {
			continue
		}
		close(req.reply)
		delete(that.pending, id)
	}
}

func decodeMatchResponse(reply *protocol.Message) (*protocol.MatchResponse, error) {
	var resp protocol.MatchResponse
	if err := json.Unmarshal(reply.Payload, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedPayload, err)
	}

	return &resp, nil
}

// timeoutOr tags err with ErrTimeout when ctx ran out of time.
func timeoutOr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", apperror.ErrTimeout, err)
	}

	return err
}
