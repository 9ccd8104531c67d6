package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users needed by the
// authentication flows. Full user CRUD lives outside this service.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	// GetByIdentifier resolves a user by email or username.
	GetByIdentifier(ctx context.Context, identifier string) (User, error)
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// User represents a stored user as seen by the authentication flows.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Roles        []string
	Active       bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}
