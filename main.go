// Command royal-ur runs the match relay: device auth over HTTP and match traffic over WebSocket, backed by Redis.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	app "github.com/rocketscienceinc/royal-ur/internal"
	"github.com/rocketscienceinc/royal-ur/internal/config"
)

func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	configPath := flag.String("config", "./config.yml", "path to config.yml; the environment alone is used when it is absent")
	flag.Parse()

	conf := loadConfig(*configPath)
	logger := newLogger(os.Stdout, conf)
	logger.Info("relay starting", "config", *configPath, "logLevel", conf.LogLevel)

	if err := app.RunApp(logger, conf); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

// loadConfig reads the file when it exists and falls back to the environment for container deployments.
func loadConfig(path string) *config.Config {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return config.MustLoadEnv()
	}

	return config.MustLoad(path)
}

func newLogger(w io.Writer, conf *config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: config.ParseLogLevel(conf.LogLevel)})).
		With("service", "royal-ur-relay")
}
