package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/royal-ur/internal/entity"
)

var ErrEmptyDeviceID = errors.New("device id is empty")

type AuthUseCase interface {
	AuthenticateDevice(ctx context.Context, deviceID, username string) (string, *entity.Player, error)
	Authorize(ctx context.Context, token string) (*entity.Player, error)
}

type playerService interface {
	GetOrCreateByDevice(ctx context.Context, deviceID, username string) (*entity.Player, error)
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type authService interface {
	GenerateToken(userID string) (string, error)
	ParseToken(token string) (string, error)
}

type authUseCase struct {
	playerService playerService
	authService   authService
}

func NewAuthUseCase(playerService playerService, authService authService) AuthUseCase {
	return &authUseCase{
		playerService: playerService,
		authService:   authService,
	}
}

// AuthenticateDevice returns a session token for the account bound to the device.
func (that *authUseCase) AuthenticateDevice(ctx context.Context, deviceID, username string) (string, *entity.Player, error) {
	if deviceID == "" {
		return "", nil, ErrEmptyDeviceID
	}

	player, err := that.playerService.GetOrCreateByDevice(ctx, deviceID, username)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get player: %w", err)
	}

	token, err := that.authService.GenerateToken(player.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, player, nil
}

// Authorize resolves a session token to its player.
func (that *authUseCase) Authorize(ctx context.Context, token string) (*entity.Player, error) {
	userID, err := that.authService.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	player, err := that.playerService.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return player, nil
}
