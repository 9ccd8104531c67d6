package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/authkeeper-server/internal/logger"
	"github.com/dtroode/authkeeper-server/internal/model"
)

// AuthService defines login and session operations.
type AuthService interface {
	Login(ctx context.Context, identifier, password string) (model.TokenPair, model.User, error)
	Logout(ctx context.Context, refreshSecret string) error
	Sessions(ctx context.Context, userID uuid.UUID) ([]model.RefreshToken, error)
}

// RefreshService defines refresh-token rotation.
type RefreshService interface {
	Rotate(ctx context.Context, refreshSecret string) (model.TokenPair, error)
}

// PasswordResetService defines the two reset phases.
type PasswordResetService interface {
	Request(ctx context.Context, email string) error
	Confirm(ctx context.Context, resetSecret, newPassword string) error
}

// Auth handles the HTTP endpoints for authentication.
type Auth struct {
	authService  AuthService
	refresh      RefreshService
	reset        PasswordResetService
	ctxManager   model.ContextManager
	logger       *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(
	authService AuthService,
	refresh RefreshService,
	reset PasswordResetService,
	ctxManager model.ContextManager,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		authService: authService,
		refresh:     refresh,
		reset:       reset,
		ctxManager:  ctxManager,
		logger:      logger,
	}
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type tokenPairResponse struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

type userResponse struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Roles       []string   `json:"roles"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

type loginResponse struct {
	tokenPairResponse
	User userResponse `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type resetRequestRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type sessionResponse struct {
	ID        uuid.UUID `json:"id"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login authenticates a user and returns a token pair.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	pair, user, err := h.authService.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		h.logger.Info("Auth handler: login rejected", "error", err.Error())
		h.handleError(w, err, http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		tokenPairResponse: newTokenPairResponse(pair),
		User: userResponse{
			ID:          user.ID,
			Username:    user.Username,
			Email:       user.Email,
			Roles:       user.Roles,
			LastLoginAt: user.LastLoginAt,
		},
	})
}

// Refresh rotates a refresh token into a new pair.
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	pair, err := h.refresh.Rotate(r.Context(), req.RefreshToken)
	if err != nil {
		h.logger.Info("Auth handler: refresh rejected", "error", err.Error())
		h.handleError(w, err, http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, newTokenPairResponse(pair))
}

// Logout revokes the presented refresh token. Always returns 204.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := h.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		h.logger.Error("Auth handler: logout failed", "error", err.Error())
		h.handleError(w, err, http.StatusUnauthorized)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RequestPasswordReset starts the reset flow. The response is identical
// whether or not the email exists.
func (h *Auth) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := h.reset.Request(r.Context(), req.Email); err != nil {
		h.logger.Error("Auth handler: reset request failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

// ConfirmPasswordReset redeems a reset token and applies a new password.
func (h *Auth) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := h.reset.Confirm(r.Context(), req.Token, req.NewPassword); err != nil {
		h.logger.Info("Auth handler: reset confirm rejected", "error", err.Error())
		h.handleError(w, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

// Sessions lists the caller's active sessions. Requires a valid bearer token.
func (h *Auth) Sessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ctxManager.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	tokens, err := h.authService.Sessions(r.Context(), userID)
	if err != nil {
		h.logger.Error("Auth handler: failed to list sessions", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	sessions := make([]sessionResponse, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, sessionResponse{
			ID:        t.ID,
			IssuedAt:  t.IssuedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	writeJSON(w, http.StatusOK, sessions)
}

func newTokenPairResponse(pair model.TokenPair) tokenPairResponse {
	return tokenPairResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}
