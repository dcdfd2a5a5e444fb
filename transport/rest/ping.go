package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports whether a dependency of the relay answers.
type HealthCheck func(ctx context.Context) error

type PingHandler interface {
	PingHandler(w http.ResponseWriter, r *http.Request)
}

type pingHandler struct {
	logger *slog.Logger
	checks []HealthCheck
}

// NewPingHandler answers "pong" only while every check passes.
func NewPingHandler(logger *slog.Logger, checks ...HealthCheck) PingHandler {
	return &pingHandler{
		logger: logger.With("component", "ping"),
		checks: checks,
	}
}

func (that *pingHandler) PingHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	for _, check := range that.checks {
		if err := check(ctx); err != nil {
			that.logger.Warn("health check failed", "error", err)
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Debug("failed to write pong", "error", err)
	}
}
