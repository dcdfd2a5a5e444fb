package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel     string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort     string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort   string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"7350"`
	JWTSecretKey string `yaml:"jwt-secret-key" env:"JWT_SECRET_KEY"`
	Redis        Redis  `yaml:"redis"`
	Relay        Relay  `yaml:"relay"`
	Client       Client `yaml:"client"`
	Timing       Timing `yaml:"timing"`
}

type Redis struct {
	Host        string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port        string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB          int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	DialTimeout time.Duration `yaml:"dial-timeout" env-default:"5s"`
	SnapshotTTL time.Duration `yaml:"snapshot-ttl" env-default:"24h"`
}

// Relay holds the match relay server settings.
type Relay struct {
	ValidateMoves   bool  `yaml:"validate-moves" env:"RELAY_VALIDATE_MOVES" env-default:"false"`
	MaxMessageBytes int64 `yaml:"max-message-bytes" env-default:"65536"`
}

// Client holds the settings of a player connecting to the relay.
type Client struct {
	RelayURL           string        `yaml:"relay-url" env:"RELAY_URL" env-default:"ws://localhost:7350/ws"`
	AuthURL            string        `yaml:"auth-url" env:"AUTH_URL" env-default:"http://localhost:9090"`
	ConnectTimeout     time.Duration `yaml:"connect-timeout" env-default:"10s"`
	JoinTimeout        time.Duration `yaml:"join-timeout" env-default:"10s"`
	MatchmakingTimeout time.Duration `yaml:"matchmaking-timeout" env-default:"20s"`
	ReconnectDelay     time.Duration `yaml:"reconnect-delay" env-default:"1500ms"`
}

type Timing struct {
	BotRollDelay time.Duration `yaml:"bot-roll-delay" env-default:"800ms"`
	BotMoveDelay time.Duration `yaml:"bot-move-delay" env-default:"1500ms"`
	NoMovesDelay time.Duration `yaml:"no-moves-delay" env-default:"1s"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

// MustLoadEnv - load configuration from the environment only, for binaries shipped without a config file.
func MustLoadEnv() *Config {
	config := &Config{}

	if err := cleanenv.ReadEnv(config); err != nil {
		panic(fmt.Errorf("unable to load config from environment: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// ParseLogLevel maps log-level to slog; unknown values fall back to info.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
