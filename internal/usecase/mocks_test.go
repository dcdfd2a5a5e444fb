package usecase

import (
	"context"

	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/stretchr/testify/mock"
)

type mockPlayerService struct {
	mock.Mock
}

func (that *mockPlayerService) GetOrCreateByDevice(ctx context.Context, deviceID, username string) (*entity.Player, error) {
	args := that.Called(ctx, deviceID, username)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

func (that *mockPlayerService) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

type mockAuthService struct {
	mock.Mock
}

func (that *mockAuthService) GenerateToken(userID string) (string, error) {
	args := that.Called(userID)
	return args.String(0), args.Error(1)
}

func (that *mockAuthService) ParseToken(token string) (string, error) {
	args := that.Called(token)
	return args.String(0), args.Error(1)
}

type mockMatchService struct {
	mock.Mock
}

func (that *mockMatchService) Create(ctx context.Context, presence entity.Presence) (*entity.Match, error) {
	args := that.Called(ctx, presence)
	match, _ := args.Get(0).(*entity.Match)
	return match, args.Error(1)
}

func (that *mockMatchService) Join(ctx context.Context, matchID string, presence entity.Presence) (*entity.Match, *entity.Snapshot, error) {
	args := that.Called(ctx, matchID, presence)
	match, _ := args.Get(0).(*entity.Match)
	snapshot, _ := args.Get(1).(*entity.Snapshot)
	return match, snapshot, args.Error(2)
}

func (that *mockMatchService) Leave(ctx context.Context, matchID, userID string) (*entity.Match, error) {
	args := that.Called(ctx, matchID, userID)
	match, _ := args.Get(0).(*entity.Match)
	return match, args.Error(1)
}

func (that *mockMatchService) Relay(ctx context.Context, matchID, userID string, opCode int, data []byte) ([]byte, []entity.Presence, error) {
	args := that.Called(ctx, matchID, userID, opCode, data)
	out, _ := args.Get(0).([]byte)
	peers, _ := args.Get(1).([]entity.Presence)
	return out, peers, args.Error(2)
}

type mockMatchmaker struct {
	mock.Mock
}

func (that *mockMatchmaker) Add(ctx context.Context, userID string) (*entity.Match, []string, error) {
	args := that.Called(ctx, userID)
	match, _ := args.Get(0).(*entity.Match)
	users, _ := args.Get(1).([]string)
	return match, users, args.Error(2)
}

func (that *mockMatchmaker) Remove(ctx context.Context, userID string) error {
	return that.Called(ctx, userID).Error(0)
}
