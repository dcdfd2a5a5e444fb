package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// NewRouter mounts the HTTP surface of the relay: liveness and device authentication.
func NewRouter(ping PingHandler, auth AuthHandler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/ping", ping.PingHandler).Methods(http.MethodGet)
	router.HandleFunc("/auth/device", auth.AuthenticateDevice).Methods(http.MethodPost)

	return router
}

// Start serves handler until ctx is cancelled.
func Start(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
