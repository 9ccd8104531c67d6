package router_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/authkeeper-server/internal/api/http/context"
	"github.com/dtroode/authkeeper-server/internal/api/http/router"
	"github.com/dtroode/authkeeper-server/internal/mocks"
	"github.com/dtroode/authkeeper-server/internal/model"
	"github.com/dtroode/authkeeper-server/internal/testutil"
)

func TestRouter_Register(t *testing.T) {
	authService := &mocks.AuthService{}
	refreshService := &mocks.RefreshService{}
	resetService := &mocks.PasswordResetService{}
	validator := &mocks.TokenIssuer{}

	userID := uuid.New()
	pair := model.TokenPair{
		AccessToken:      "access",
		RefreshToken:     "refresh",
		AccessExpiresAt:  time.Now().Add(15 * time.Minute),
		RefreshExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	authService.On("Login", mock.Anything, "gopher", "Passw0rd!").
		Return(pair, model.User{ID: userID, Username: "gopher"}, nil)
	authService.On("Sessions", mock.Anything, userID).Return([]model.RefreshToken{}, nil)
	validator.On("ValidateAccessToken", "good-token").
		Return(model.AccessClaims{UserID: userID}, nil)

	r := router.New(authService, refreshService, resetService, validator, httpctx.NewManager(), testutil.MakeNoopLogger())
	srv := httptest.NewServer(r.Register())
	t.Cleanup(srv.Close)

	t.Run("login route", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/auth/login", "application/json",
			bytes.NewReader([]byte(`{"identifier":"gopher","password":"Passw0rd!"}`)))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("wrong method is rejected", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/auth/login")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	t.Run("sessions requires a bearer token", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/auth/sessions")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("sessions with bearer token", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/auth/sessions", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer good-token")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unknown route", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/nope")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
