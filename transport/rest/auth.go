package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/rocketscienceinc/royal-ur/internal/protocol"
	"github.com/rocketscienceinc/royal-ur/internal/usecase"
)

type AuthHandler interface {
	AuthenticateDevice(w http.ResponseWriter, r *http.Request)
}

type authUseCase interface {
	AuthenticateDevice(ctx context.Context, deviceID, username string) (string, *entity.Player, error)
}

type authHandler struct {
	logger *slog.Logger

	auth authUseCase
}

func NewAuth(logger *slog.Logger, auth authUseCase) AuthHandler {
	return &authHandler{
		logger: logger.With("component", "authHandler"),
		auth:   auth,
	}
}

func (that *authHandler) AuthenticateDevice(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "AuthenticateDevice")

	var req protocol.DeviceAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, player, err := that.auth.AuthenticateDevice(r.Context(), req.DeviceID, req.Username)
	if errors.Is(err, usecase.ErrEmptyDeviceID) {
		http.Error(w, "deviceId is required", http.StatusBadRequest)
		return
	}

	if err != nil {
		log.Error("failed to authenticate device", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, protocol.DeviceAuthResponse{Token: token, UserID: player.ID, Username: player.Username})

	log.Info("device authenticated", "userID", player.ID)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
