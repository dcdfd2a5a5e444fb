package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/royal-ur/internal/config"
	"github.com/rocketscienceinc/royal-ur/internal/repository"
	"github.com/rocketscienceinc/royal-ur/internal/repository/storage"
	"github.com/rocketscienceinc/royal-ur/internal/service"
	"github.com/rocketscienceinc/royal-ur/internal/usecase"
	"github.com/rocketscienceinc/royal-ur/transport/rest"
	"github.com/rocketscienceinc/royal-ur/transport/websocket"
)

var (
	ErrAddrNotFound   = errors.New("redis address string is empty")
	ErrEmptyJWTSecret = errors.New("jwt secret key is empty")
)

// RunApp - runs the relay: device auth over HTTP and match traffic over WebSocket.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	if conf.JWTSecretKey == "" {
		return ErrEmptyJWTSecret
	}

	if conf.Redis.Host == "" || conf.Redis.Port == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, conf.Redis)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	playerRepo := repository.NewPlayerRepository(redisStorage)
	matchRepo := repository.NewMatchRepository(redisStorage, conf.Redis.SnapshotTTL)
	snapshotRepo := repository.NewSnapshotRepository(redisStorage, conf.Redis.SnapshotTTL)
	queue := repository.NewMatchmakerQueue(redisStorage)

	authService := service.NewAuthService(conf.JWTSecretKey)
	playerService := service.NewPlayerService(playerRepo)
	matchService := service.NewMatchService(logger, matchRepo, snapshotRepo, conf.Relay.ValidateMoves)
	matchmakerService := service.NewMatchmakerService(logger, queue, matchRepo)

	authUseCase := usecase.NewAuthUseCase(playerService, authService)
	matchUseCase := usecase.NewMatchUseCase(logger, matchService, matchmakerService)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		router := rest.NewRouter(rest.NewPingHandler(logger, storage.HealthCheck(redisStorage)), rest.NewAuth(logger, authUseCase))
		if httpErr := rest.Start(ctx, conf.HTTPPort, router); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort, "validateMoves", conf.Relay.ValidateMoves)
		wsServer := websocket.New(logger, authUseCase, matchUseCase, conf.Relay.MaxMessageBytes)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
