package websocket

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/rocketscienceinc/royal-ur/internal/protocol"
)

// client is one relay connection. Gorilla allows a single concurrent writer, hence writeMutex.
type client struct {
	conn     *websocket.Conn
	presence entity.Presence

	writeMutex sync.Mutex

	mu      sync.Mutex
	matches map[string]struct{}
	done    chan struct{}
	closed  bool
}

func newClient(conn *websocket.Conn, presence entity.Presence) *client {
	return &client{
		conn:     conn,
		presence: presence,
		matches:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
}

func (that *client) write(message *protocol.Message) error {
	that.writeMutex.Lock()
	defer that.writeMutex.Unlock()

	_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := that.conn.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *client) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-that.done:
			return
		case <-ticker.C:
			that.writeMutex.Lock()
			err := that.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			that.writeMutex.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (that *client) joined(matchID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.matches[matchID] = struct{}{}
}

func (that *client) left(matchID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.matches, matchID)
}

func (that *client) matchIDs() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	ids := make([]string, 0, len(that.matches))
	for id := range that.matches {
		ids = append(ids, id)
	}

	return ids
}

// inheritMatches carries match membership over to a connection replacing previous.
func (that *client) inheritMatches(previous *client) {
	for _, matchID := range previous.matchIDs() {
		that.joined(matchID)
	}
}

func (that *client) close() {
	that.mu.Lock()
	if that.closed {
		that.mu.Unlock()
		return
	}
	that.closed = true
	close(that.done)
	that.mu.Unlock()

	_ = that.conn.Close()
}
