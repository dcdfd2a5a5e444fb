package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/royal-ur/internal/apperror"
	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/rocketscienceinc/royal-ur/internal/pkg"
)

type PlayerService interface {
	GetOrCreateByDevice(ctx context.Context, deviceID, username string) (*entity.Player, error)
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type playerService struct {
	playerRepo playerRepo
}

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
	GetByDeviceID(ctx context.Context, deviceID string) (*entity.Player, error)
}

func NewPlayerService(playerRepo playerRepo) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
	}
}

// GetOrCreateByDevice returns the account bound to the device, creating it on first sight.
// A non-empty username replaces the stored one.
func (that *playerService) GetOrCreateByDevice(ctx context.Context, deviceID, username string) (*entity.Player, error) {
	player, err := that.playerRepo.GetByDeviceID(ctx, deviceID)
	if errors.Is(err, apperror.ErrPlayerNotFound) {
		player = &entity.Player{
			ID:       pkg.GeneratePlayerID(),
			DeviceID: deviceID,
			Username: username,
		}

		if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
			return nil, fmt.Errorf("create player: %w", err)
		}

		return player, nil
	}

	if err != nil {
		return nil, fmt.Errorf("get player by device: %w", err)
	}

	if username != "" && username != player.Username {
		player.Username = username
		if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
			return nil, fmt.Errorf("update player: %w", err)
		}
	}

	return player, nil
}

func (that *playerService) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	existingPlayer, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get player by id: %w", err)
	}

	return existingPlayer, nil
}
