package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/rocketscienceinc/royal-ur/internal/apperror"
	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/rocketscienceinc/royal-ur/internal/protocol"
	"github.com/rocketscienceinc/royal-ur/internal/ur"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestMatchUseCase_CreateMatch(t *testing.T) {
	ctx := context.Background()

	matches := &mockMatchService{}
	presence := entity.Presence{UserID: "u1", SessionID: "s1"}
	match := entity.NewMatch("m1")
	match.AddPresence(presence)
	matches.On("Create", ctx, presence).Return(match, nil).Once()

	response, err := NewMatchUseCase(discardLogger, matches, &mockMatchmaker{}).CreateMatch(ctx, presence)

	require.NoError(t, err)
	assert.Equal(t, "m1", response.MatchID)
	assert.Equal(t, entity.Light, response.Color)
	assert.Empty(t, response.Metadata)
}

func TestMatchUseCase_JoinMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Rejoin carries the stored snapshot as metadata", func(t *testing.T) {
		// Given: a match with a stored state where dark is on turn
		light := entity.Presence{UserID: "a"}
		dark := entity.Presence{UserID: "b"}
		match := entity.NewMatch("m1")
		match.AddPresence(light)
		match.AddPresence(dark)

		state := ur.NewGame()
		state.CurrentTurn = entity.Dark

		matches := &mockMatchService{}
		matches.On("Join", ctx, "m1", dark).Return(match, &entity.Snapshot{MatchID: "m1", State: state}, nil).Once()

		// When: dark joins again
		response, others, err := NewMatchUseCase(discardLogger, matches, &mockMatchmaker{}).JoinMatch(ctx, "m1", dark)

		// Then: the metadata resyncs and light hears about it
		require.NoError(t, err)
		assert.Equal(t, entity.Dark, response.Color)
		assert.Equal(t, []entity.Presence{light}, others)

		parsed, err := protocol.ParseSnapshot([]byte(response.Metadata))
		require.NoError(t, err)
		assert.Equal(t, entity.Dark, parsed.CurrentTurn)
	})

	t.Run("Full match", func(t *testing.T) {
		matches := &mockMatchService{}
		matches.On("Join", ctx, "m1", entity.Presence{UserID: "c"}).Return(nil, nil, apperror.ErrMatchFull).Once()

		_, _, err := NewMatchUseCase(discardLogger, matches, &mockMatchmaker{}).JoinMatch(ctx, "m1", entity.Presence{UserID: "c"})

		require.ErrorIs(t, err, apperror.ErrMatchFull)
	})
}

func TestMatchUseCase_SendData(t *testing.T) {
	ctx := context.Background()

	sender := entity.Presence{UserID: "a", SessionID: "s1"}
	peer := entity.Presence{UserID: "b"}
	data := []byte(`{"op":"state"}`)

	matches := &mockMatchService{}
	matches.On("Relay", ctx, "m1", "a", protocol.OpCodeMove, data).Return(data, []entity.Presence{peer}, nil).Once()

	message, peers, err := NewMatchUseCase(discardLogger, matches, &mockMatchmaker{}).
		SendData(ctx, "m1", sender, protocol.OpCodeMove, data)

	require.NoError(t, err)
	assert.Equal(t, []entity.Presence{peer}, peers)
	assert.Equal(t, "m1", message.MatchID)
	assert.Equal(t, &sender, message.Sender)
	assert.JSONEq(t, string(data), string(message.Data))
}

func TestMatchUseCase_LeaveMatch(t *testing.T) {
	ctx := context.Background()

	match := entity.NewMatch("m1")
	match.AddPresence(entity.Presence{UserID: "b"})

	matches := &mockMatchService{}
	matches.On("Leave", ctx, "m1", "a").Return(match, nil).Once()

	others, err := NewMatchUseCase(discardLogger, matches, &mockMatchmaker{}).LeaveMatch(ctx, "m1", "a")

	require.NoError(t, err)
	assert.Equal(t, []entity.Presence{{UserID: "b"}}, others)
}

func TestMatchUseCase_FindMatch(t *testing.T) {
	ctx := context.Background()

	matchmaker := &mockMatchmaker{}
	matchmaker.On("Add", ctx, "b").Return(entity.NewMatch("m1"), []string{"a", "b"}, nil).Once()
	matchmaker.On("Remove", ctx, "c").Return(nil).Once()

	useCase := NewMatchUseCase(discardLogger, &mockMatchService{}, matchmaker)

	match, users, err := useCase.FindMatch(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "m1", match.ID)
	assert.Equal(t, []string{"a", "b"}, users)

	require.NoError(t, useCase.CancelMatchmaking(ctx, "c"))
}
