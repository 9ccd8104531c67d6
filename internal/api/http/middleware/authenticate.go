package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dtroode/authkeeper-server/internal/logger"
	"github.com/dtroode/authkeeper-server/internal/model"
)

// TokenValidator verifies bearer access tokens.
type TokenValidator interface {
	ValidateAccessToken(token string) (model.AccessClaims, error)
}

// Authenticate validates bearer tokens and injects the user id into the
// request context.
type Authenticate struct {
	validator      TokenValidator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(validator TokenValidator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{validator: validator, contextManager: contextManager, logger: logger}
}

// Wrap parses the Authorization header, validates the token and passes a
// context with the user id to the next handler.
func (m *Authenticate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if tokenString == "" {
			unauthorized(w, "missing authorization token")
			return
		}

		claims, err := m.validator.ValidateAccessToken(tokenString)
		if err != nil {
			unauthorized(w, "invalid authorization token")
			return
		}

		ctx := m.contextManager.SetUserIDToContext(r.Context(), claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
