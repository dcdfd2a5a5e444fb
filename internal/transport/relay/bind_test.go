package relay

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/rocketscienceinc/royal-ur/internal/protocol"
	"github.com/rocketscienceinc/royal-ur/internal/session"
	"github.com/rocketscienceinc/royal-ur/internal/ur"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constRoller int

func (that constRoller) Roll() int { return int(that) }

func boundSession(t *testing.T, relay *fakeRelay) (*session.Session, *Client) {
	t.Helper()

	client := connectedClient(t, relay)
	sess := session.New(session.WithLogger(discardLogger), session.WithRoller(constRoller(2)))
	t.Cleanup(sess.Close)

	sess.InitGame("m1")
	sess.SetConnectionStatus(session.StatusConnected)

	reconnector := Bind(context.Background(), discardLogger, client, sess, 10*time.Millisecond)
	t.Cleanup(reconnector.Close)

	return sess, client
}

func nextGamePayload(t *testing.T, relay *fakeRelay) *protocol.GamePayload {
	t.Helper()

	message := relay.next(t)
	require.Equal(t, protocol.ActionMatchData, message.Action)

	var packet protocol.MatchDataMessage
	require.NoError(t, json.Unmarshal(message.Payload, &packet))
	require.Equal(t, "m1", packet.MatchID)

	payload, err := protocol.ParseGamePayload(packet.Data)
	require.NoError(t, err)

	return payload
}

func TestBind_Outbound(t *testing.T) {
	// Given: a session bound to the relay
	relay := newFakeRelay(t)
	sess, _ := boundSession(t, relay)

	// When: light rolls and moves
	require.True(t, sess.Roll())
	rolled := nextGamePayload(t, relay)

	moves := sess.ValidMoves()
	require.NotEmpty(t, moves)
	require.True(t, sess.MakeMove(moves[0]))
	moved := nextGamePayload(t, relay)

	// Then: the roll is published as state and the move carries the resulting snapshot
	assert.Equal(t, protocol.OpState, rolled.Op)
	assert.Equal(t, entity.PhaseMoving, rolled.State.Phase)

	assert.Equal(t, protocol.OpMove, moved.Op)
	require.NotNil(t, moved.Move)
	assert.Equal(t, moves[0], *moved.Move)
	assert.Equal(t, entity.Dark, moved.State.CurrentTurn)
}

func TestBind_Inbound(t *testing.T) {
	// Given: a bound session and a peer snapshot where dark is on turn
	relay := newFakeRelay(t)
	sess, _ := boundSession(t, relay)

	state := ur.NewGame()
	state.CurrentTurn = entity.Dark
	data, err := protocol.NewStatePayload(state)
	require.NoError(t, err)

	// When: the relay forwards it
	relay.push(protocol.ActionMatchData, "", protocol.MatchDataMessage{MatchID: "m1", OpCode: protocol.OpCodeMove, Data: data})
	relay.push(protocol.ActionMatchPresence, "", entity.PresenceEvent{MatchID: "m1", Joins: []entity.Presence{{UserID: "bob"}}})

	// Then: the session adopts it and tracks the peer
	assert.Eventually(t, func() bool { return sess.State().CurrentTurn == entity.Dark }, 2*time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(sess.Presences()) == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestBind_Reconnect(t *testing.T) {
	// Given: a relay that resyncs rejoining players
	relay := newFakeRelay(t)
	state := ur.NewGame()
	state.CurrentTurn = entity.Dark
	metadata, err := protocol.NewStatePayload(state)
	require.NoError(t, err)

	relay.on(protocol.ActionMatchJoin, func(relay *fakeRelay, message protocol.Message) {
		relay.push(message.Action, message.RequestID, protocol.MatchResponse{MatchID: "m1", Color: entity.Light, Metadata: string(metadata)})
	})
	sess, _ := boundSession(t, relay)
	<-relay.connects

	// When: the connection drops
	relay.drop()

	// Then: the client reconnects, rejoins m1 and applies the snapshot
	select {
	case <-relay.connects:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not reconnect")
	}

	join := relay.next(t)
	require.Equal(t, protocol.ActionMatchJoin, join.Action)

	assert.Eventually(t, func() bool {
		return sess.ConnectionStatus() == session.StatusConnected && sess.State().CurrentTurn == entity.Dark
	}, 2*time.Second, 5*time.Millisecond)
}
