package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PasswordResetTTL is how long a reset token stays redeemable.
const PasswordResetTTL = time.Hour

// PasswordResetStore defines persistence operations for password-reset
// tokens. Lookups use the SHA-256 hash of the presented secret.
type PasswordResetStore interface {
	Create(ctx context.Context, reset PasswordReset) error
	GetBySecretHash(ctx context.Context, secretHash []byte) (PasswordReset, error)
	// MarkUsed flips the row to used, but only if it is still unused and
	// unexpired at the given instant. Returns ErrInvalidToken otherwise.
	MarkUsed(ctx context.Context, secretHash []byte, at time.Time) error
	// InvalidateAllByUser marks every outstanding reset for the user used.
	InvalidateAllByUser(ctx context.Context, userID uuid.UUID, at time.Time) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// PasswordReset is a persisted one-time reset token. A user may hold
// several outstanding resets; confirming one invalidates the rest.
type PasswordReset struct {
	ID         uuid.UUID
	SecretHash []byte
	UserID     uuid.UUID
	IssuedAt   time.Time
	ExpiresAt  time.Time
	UsedAt     *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// State computes the lifecycle state at the given instant.
func (p PasswordReset) State(now time.Time) TokenState {
	if p.UsedAt != nil {
		return TokenStateConsumed
	}
	if !now.Before(p.ExpiresAt) {
		return TokenStateExpired
	}
	return TokenStateActive
}

// Valid reports whether the token may still be redeemed.
func (p PasswordReset) Valid(now time.Time) bool {
	return p.State(now) == TokenStateActive
}
