package context

import (
	"context"

	"github.com/google/uuid"

	"github.com/dtroode/authkeeper-server/internal/model"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Manager implements model.ContextManager for HTTP request contexts.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

var _ model.ContextManager = (*Manager)(nil)

// SetUserIDToContext returns a context carrying the authenticated user id.
func (m *Manager) SetUserIDToContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext extracts the authenticated user id, if present.
func (m *Manager) GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	return userID, ok
}
