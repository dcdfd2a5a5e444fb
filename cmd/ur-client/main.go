// Command ur-client plays the Royal Game of Ur headlessly, against the local bot or through the relay.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/royal-ur/internal/config"
	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/rocketscienceinc/royal-ur/internal/pkg"
	"github.com/rocketscienceinc/royal-ur/internal/protocol"
	"github.com/rocketscienceinc/royal-ur/internal/service"
	"github.com/rocketscienceinc/royal-ur/internal/session"
	"github.com/rocketscienceinc/royal-ur/internal/transport/relay"
)

func main() {
	var (
		configPath string
		online     bool
		matchID    string
		deviceID   string
		username   string
	)

	flag.StringVar(&configPath, "config", "", "path to config.yml (default: environment only)")
	flag.BoolVar(&online, "online", false, "play through the relay instead of locally")
	flag.StringVar(&matchID, "match", "", `match to join; "new" creates one, empty uses the matchmaker`)
	flag.StringVar(&deviceID, "device", "", "device id used to authenticate (default: random)")
	flag.StringVar(&username, "username", "", "display name")
	flag.Parse()

	conf := loadConfig(configPath)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.ParseLogLevel(conf.LogLevel)}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if online {
		if deviceID == "" {
			deviceID = pkg.GenerateDeviceID()
		}
		err = playOnline(ctx, logger, conf, matchID, deviceID, username)
	} else {
		err = playLocal(ctx, logger, conf)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "ur-client: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) *config.Config {
	if path == "" {
		return config.MustLoadEnv()
	}

	return config.MustLoad(path)
}

func timing(conf *config.Config) session.Timing {
	return session.Timing{
		BotRollDelay: conf.Timing.BotRollDelay,
		BotMoveDelay: conf.Timing.BotMoveDelay,
		NoMovesDelay: conf.Timing.NoMovesDelay,
	}
}

// playLocal pits the bot (dark) against an autopilot (light) using the same bot policy.
func playLocal(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	bot := service.NewBotService()

	sess := session.New(
		session.WithLogger(logger),
		session.WithTiming(timing(conf)),
		session.WithBot(bot, entity.Dark),
	)
	defer sess.Close()

	finished := watchFinish(sess)
	sess.InitGame(pkg.GenerateMatchID())

	ticker := time.NewTicker(conf.Timing.BotRollDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case state := <-finished:
			report(logger, state)
			return nil
		case <-ticker.C:
			autopilot(logger, sess, bot, entity.Light)
		}
	}
}

// autopilot plays one step for color when it is on turn.
func autopilot(logger *slog.Logger, sess *session.Session, bot service.BotService, color entity.Color) {
	state := sess.State()
	if state.IsEnded() || state.CurrentTurn != color {
		return
	}

	if state.IsRolling() {
		sess.Roll()
		return
	}

	if state.RollValue == nil {
		return
	}

	move, err := bot.GetMove(state, *state.RollValue)
	if err != nil {
		// no moves: the session skips the turn on its own timer.
		return
	}

	if !sess.MakeMove(*move) {
		logger.Warn("autopilot move refused", "move", move.String())
	}
}

func playOnline(ctx context.Context, logger *slog.Logger, conf *config.Config, matchID, deviceID, username string) error {
	client := relay.NewClient(logger, conf.Client)
	defer client.Close()

	auth, err := client.AuthenticateDevice(ctx, deviceID, username)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	if err = client.Connect(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	var resp *protocol.MatchResponse
	switch matchID {
	case "":
		resp, err = client.FindMatch(ctx)
	case "new":
		resp, err = client.CreateMatch(ctx)
	default:
		resp, err = client.JoinMatch(ctx, matchID)
	}
	if err != nil {
		return err
	}

	logger.Info("seated", "matchID", resp.MatchID, "color", resp.Color, "userID", auth.UserID)

	sess := session.New(
		session.WithLogger(logger),
		session.WithTiming(timing(conf)),
		session.WithBot(service.NewBotService(), resp.Color),
		session.WithSequenceCheck(),
	)
	defer sess.Close()

	finished := watchFinish(sess)

	reconnector := relay.Bind(ctx, logger, client, sess, conf.Client.ReconnectDelay)
	defer reconnector.Close()

	sess.InitGame(resp.MatchID)
	sess.UpdatePresences(entity.PresenceEvent{MatchID: resp.MatchID, Joins: resp.Presences})
	sess.SetConnectionStatus(session.StatusConnected)

	if err = sess.ApplyJoinMetadata(resp.Metadata); err != nil {
		logger.Warn("ignoring stored snapshot", "error", err)
	}

	select {
	case <-ctx.Done():
		if leaveErr := client.LeaveMatch(context.Background(), resp.MatchID); leaveErr != nil {
			logger.Warn("failed to leave match", "error", leaveErr)
		}
		return ctx.Err()
	case state := <-finished:
		report(logger, state)
		return client.LeaveMatch(ctx, resp.MatchID)
	}
}

func watchFinish(sess *session.Session) <-chan *entity.GameState {
	finished := make(chan *entity.GameState, 1)

	sess.Subscribe(func(state *entity.GameState) {
		if state.Winner == nil {
			return
		}

		select {
		case finished <- state:
		default:
		}
	})

	return finished
}

func report(logger *slog.Logger, state *entity.GameState) {
	for _, line := range state.History {
		logger.Info(line)
	}

	logger.Info("game over", "winner", *state.Winner, "light", state.Light.FinishedCount, "dark", state.Dark.FinishedCount)
}
