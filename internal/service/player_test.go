package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rocketscienceinc/royal-ur/internal/apperror"
	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errRedisDown = errors.New("redis down")

func TestPlayerService_GetOrCreateByDevice(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates a player for an unknown device", func(t *testing.T) {
		// Given: no player is bound to the device
		repo := &mockPlayerRepo{}
		repo.On("GetByDeviceID", ctx, "d1").Return(nil, apperror.ErrPlayerNotFound).Once()
		repo.On("CreateOrUpdate", ctx, mock.AnythingOfType("*entity.Player")).Return(nil).Once()

		// When: the device authenticates
		player, err := NewPlayerService(repo).GetOrCreateByDevice(ctx, "d1", "ur-fan")

		// Then: a new account is stored
		require.NoError(t, err)
		assert.NotEmpty(t, player.ID)
		assert.Equal(t, "d1", player.DeviceID)
		assert.Equal(t, "ur-fan", player.Username)
		repo.AssertExpectations(t)
	})

	t.Run("Returns the known player", func(t *testing.T) {
		repo := &mockPlayerRepo{}
		existing := &entity.Player{ID: "p1", DeviceID: "d1", Username: "ur-fan"}
		repo.On("GetByDeviceID", ctx, "d1").Return(existing, nil).Once()

		player, err := NewPlayerService(repo).GetOrCreateByDevice(ctx, "d1", "")

		require.NoError(t, err)
		assert.Equal(t, existing, player)
		repo.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything)
	})

	t.Run("Updates a changed username", func(t *testing.T) {
		repo := &mockPlayerRepo{}
		repo.On("GetByDeviceID", ctx, "d1").Return(&entity.Player{ID: "p1", DeviceID: "d1", Username: "old"}, nil).Once()
		repo.On("CreateOrUpdate", ctx, &entity.Player{ID: "p1", DeviceID: "d1", Username: "new"}).Return(nil).Once()

		player, err := NewPlayerService(repo).GetOrCreateByDevice(ctx, "d1", "new")

		require.NoError(t, err)
		assert.Equal(t, "new", player.Username)
		repo.AssertExpectations(t)
	})

	t.Run("Storage failure is returned", func(t *testing.T) {
		repo := &mockPlayerRepo{}
		repo.On("GetByDeviceID", ctx, "d1").Return(nil, errRedisDown).Once()

		player, err := NewPlayerService(repo).GetOrCreateByDevice(ctx, "d1", "")

		require.ErrorIs(t, err, errRedisDown)
		assert.Nil(t, player)
	})
}
