package service

import (
	"context"

	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/stretchr/testify/mock"
)

type mockPlayerRepo struct {
	mock.Mock
}

func (that *mockPlayerRepo) CreateOrUpdate(ctx context.Context, player *entity.Player) error {
	args := that.Called(ctx, player)
	return args.Error(0)
}

func (that *mockPlayerRepo) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

func (that *mockPlayerRepo) GetByDeviceID(ctx context.Context, deviceID string) (*entity.Player, error) {
	args := that.Called(ctx, deviceID)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

type mockMatchRepo struct {
	mock.Mock
}

func (that *mockMatchRepo) CreateOrUpdate(ctx context.Context, match *entity.Match) error {
	args := that.Called(ctx, match)
	return args.Error(0)
}

func (that *mockMatchRepo) GetByID(ctx context.Context, id string) (*entity.Match, error) {
	args := that.Called(ctx, id)
	match, _ := args.Get(0).(*entity.Match)
	return match, args.Error(1)
}

type mockSnapshotRepo struct {
	mock.Mock
}

func (that *mockSnapshotRepo) Save(ctx context.Context, snapshot *entity.Snapshot) error {
	args := that.Called(ctx, snapshot)
	return args.Error(0)
}

func (that *mockSnapshotRepo) Get(ctx context.Context, matchID string) (*entity.Snapshot, error) {
	args := that.Called(ctx, matchID)
	snapshot, _ := args.Get(0).(*entity.Snapshot)
	return snapshot, args.Error(1)
}

type mockQueue struct {
	mock.Mock
}

func (that *mockQueue) Enqueue(ctx context.Context, userID string) error {
	return that.Called(ctx, userID).Error(0)
}

func (that *mockQueue) Remove(ctx context.Context, userID string) error {
	return that.Called(ctx, userID).Error(0)
}

func (that *mockQueue) PopPair(ctx context.Context) (string, string, bool, error) {
	args := that.Called(ctx)
	return args.String(0), args.String(1), args.Bool(2), args.Error(3)
}
