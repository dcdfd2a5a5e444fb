package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/rocketscienceinc/royal-ur/internal/protocol"
	"github.com/rocketscienceinc/royal-ur/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockAuthUseCase struct {
	mock.Mock
}

func (that *mockAuthUseCase) AuthenticateDevice(ctx context.Context, deviceID, username string) (string, *entity.Player, error) {
	args := that.Called(ctx, deviceID, username)
	player, _ := args.Get(1).(*entity.Player)
	return args.String(0), player, args.Error(2)
}

func newRouter(auth *mockAuthUseCase) http.Handler {
	return NewRouter(NewPingHandler(discardLogger), NewAuth(discardLogger, auth))
}

func TestPing(t *testing.T) {
	t.Run("Healthy store answers pong", func(t *testing.T) {
		// Given: a relay whose store answers
		checked := false
		ping := NewPingHandler(discardLogger, func(context.Context) error {
			checked = true
			return nil
		})

		// When: a load balancer hits /ping
		rec := httptest.NewRecorder()
		NewRouter(ping, NewAuth(discardLogger, &mockAuthUseCase{})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		// Then: pong comes back after the check ran
		assert.True(t, checked)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pong", rec.Body.String())
	})

	t.Run("Unreachable store is unavailable", func(t *testing.T) {
		ping := NewPingHandler(discardLogger, func(context.Context) error { return errors.New("connection refused") })

		rec := httptest.NewRecorder()
		NewRouter(ping, NewAuth(discardLogger, &mockAuthUseCase{})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.NotEqual(t, "pong", rec.Body.String())
	})
}

func TestAuthenticateDevice(t *testing.T) {
	t.Run("Returns a token for the device", func(t *testing.T) {
		// Given: a known device
		auth := &mockAuthUseCase{}
		auth.On("AuthenticateDevice", mock.Anything, "device-1", "alice").
			Return("jwt", &entity.Player{ID: "p1", Username: "alice"}, nil).Once()

		// When: the device authenticates
		rec := httptest.NewRecorder()
		body := strings.NewReader(`{"deviceId":"device-1","username":"alice"}`)
		newRouter(auth).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/device", body))

		// Then: the token and the player id come back
		require.Equal(t, http.StatusOK, rec.Code)

		var resp protocol.DeviceAuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, protocol.DeviceAuthResponse{Token: "jwt", UserID: "p1", Username: "alice"}, resp)
		auth.AssertExpectations(t)
	})

	t.Run("Empty device id is a bad request", func(t *testing.T) {
		auth := &mockAuthUseCase{}
		auth.On("AuthenticateDevice", mock.Anything, "", "").Return("", nil, usecase.ErrEmptyDeviceID).Once()

		rec := httptest.NewRecorder()
		newRouter(auth).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/device", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Broken body is a bad request", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRouter(&mockAuthUseCase{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/device", strings.NewReader(`{`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Storage failure is an internal error", func(t *testing.T) {
		auth := &mockAuthUseCase{}
		auth.On("AuthenticateDevice", mock.Anything, "device-1", "").Return("", nil, errors.New("redis down")).Once()

		rec := httptest.NewRecorder()
		newRouter(auth).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/device", strings.NewReader(`{"deviceId":"device-1"}`)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("Wrong method is refused", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRouter(&mockAuthUseCase{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/device", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
