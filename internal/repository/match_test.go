package repository

import (
	"testing"
	"time"

	"github.com/rocketscienceinc/royal-ur/internal/apperror"
	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/rocketscienceinc/royal-ur/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchRepository_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	matchRepo := NewMatchRepository(st.Storage, time.Hour)

	// Given: a match with one seated player
	match := entity.NewMatch("m1")
	match.AddPresence(entity.Presence{UserID: "u1", SessionID: "s1"})

	// When: it is stored
	err := matchRepo.CreateOrUpdate(ctx, match)

	// Then: it can be read back with its seats and it expires
	require.NoError(t, err)

	stored, err := matchRepo.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, match.Presences, stored.Presences)
	assert.Equal(t, match.Seats, stored.Seats)
	assert.Positive(t, st.Storage.TTL(ctx, "match:m1").Val())
}

func TestMatchRepository_GetByID(t *testing.T) {
	t.Run("Unknown match", func(t *testing.T) {
		ctx, st := suite.New(t)

		matchRepo := NewMatchRepository(st.Storage, 0)

		match, err := matchRepo.GetByID(ctx, "missing")

		require.ErrorIs(t, err, apperror.ErrMatchNotFound)
		assert.Nil(t, match)
	})
}

func TestMatchRepository_DeleteByID(t *testing.T) {
	ctx, st := suite.New(t)

	matchRepo := NewMatchRepository(st.Storage, 0)
	snapshotRepo := NewSnapshotRepository(st.Storage, 0)

	// Given: a match with a snapshot
	require.NoError(t, matchRepo.CreateOrUpdate(ctx, entity.NewMatch("m1")))
	require.NoError(t, snapshotRepo.Save(ctx, &entity.Snapshot{MatchID: "m1", State: &entity.GameState{}}))

	// When: the match is deleted
	err := matchRepo.DeleteByID(ctx, "m1")

	// Then: the snapshot goes with it
	require.NoError(t, err)
	_, err = matchRepo.GetByID(ctx, "m1")
	require.ErrorIs(t, err, apperror.ErrMatchNotFound)
	_, err = snapshotRepo.Get(ctx, "m1")
	require.ErrorIs(t, err, apperror.ErrNotFound)
}
