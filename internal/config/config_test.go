package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustLoad(t *testing.T) {
	t.Run("Defaults fill what the file omits", func(t *testing.T) {
		// Given: a file that only sets the secret and validation
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("jwt-secret-key: s3cret\nrelay:\n  validate-moves: true\n"), 0o600))

		// When: it is loaded
		conf := MustLoad(path)

		// Then: the rest comes from defaults
		assert.Equal(t, "s3cret", conf.JWTSecretKey)
		assert.True(t, conf.Relay.ValidateMoves)
		assert.Equal(t, "7350", conf.SocketPort)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, 5*time.Second, conf.Redis.DialTimeout)
		assert.Equal(t, 1500*time.Millisecond, conf.Client.ReconnectDelay)
		assert.Equal(t, 800*time.Millisecond, conf.Timing.BotRollDelay)
		assert.Equal(t, time.Second, conf.Timing.NoMovesDelay)
	})

	t.Run("Missing file panics", func(t *testing.T) {
		assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "absent.yml")) })
	})
}

func TestMustLoadEnv(t *testing.T) {
	t.Setenv("RELAY_URL", "ws://relay.test/ws")

	conf := MustLoadEnv()

	assert.Equal(t, "ws://relay.test/ws", conf.Client.RelayURL)
	assert.Equal(t, 20*time.Second, conf.Client.MatchmakingTimeout)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("warn"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("verbose"))
}
