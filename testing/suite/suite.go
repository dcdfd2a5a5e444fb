// Package suite runs repository tests against a throwaway Redis container shared by the whole test binary.
package suite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
)

const (
	expireDuration  = 300
	maxWaitDuration = 120 * time.Second
	testTimeout     = 30 * time.Second
)

const (
	redisPort  = "6379/tcp"
	redisImage = "redis"
	redisTag   = "7-alpine"
)

type Suite struct {
	*testing.T
	Logger *slog.Logger

	Storage *redis.Client
}

// container is started on first use and purged by Main.
var container struct {
	once     sync.Once
	pool     *dockertest.Pool
	resource *dockertest.Resource
	client   *redis.Client
	err      error
}

// Main runs the package tests and removes the container afterwards. Call it from TestMain.
func Main(m *testing.M) {
	code := m.Run()

	if container.resource != nil {
		_ = container.client.Close()
		if err := container.pool.Purge(container.resource); err != nil {
			fmt.Fprintf(os.Stderr, "could not purge resource: %v\n", err)
		}
	}

	os.Exit(code)
}

// New hands out a flushed Redis. Tests are skipped when docker is unavailable.
func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)

	container.once.Do(start)
	if container.err != nil {
		t.Skipf("redis container unavailable: %v", container.err)
	}

	if err := container.client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("could not flush database: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	return ctx, &Suite{
		T:       t,
		Logger:  logger,
		Storage: container.client,
	}
}

func start() {
	pool, err := dockertest.NewPool("")
	if err != nil {
		container.err = fmt.Errorf("could not connect to docker: %w", err)
		return
	}

	if err = pool.Client.Ping(); err != nil {
		container.err = fmt.Errorf("docker is not reachable: %w", err)
		return
	}

	// pulls an image, creates a container based on it and runs it
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: redisImage,
		Tag:        redisTag,
		Env:        []string{},
	}, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		container.err = fmt.Errorf("could not start resource: %w", err)
		return
	}

	// never returns error
	_ = resource.Expire(expireDuration)

	redisHost := resource.GetHostPort(redisPort)

	// the server in the container may not accept connections yet
	pool.MaxWait = maxWaitDuration

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer cancel()

	var redisClient *redis.Client
	if err = pool.Retry(func() error {
		redisClient = redis.NewClient(&redis.Options{
			Addr: redisHost,
		})
		return redisClient.Ping(ctx).Err()
	}); err != nil {
		_ = pool.Purge(resource)
		container.err = fmt.Errorf("could not connect to redis: %w", err)
		return
	}

	container.pool = pool
	container.resource = resource
	container.client = redisClient
}
