package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenState is the lifecycle state of a persisted token, computed from
// its columns. Consumed, Revoked and Expired are terminal.
type TokenState int

const (
	TokenStateActive TokenState = iota
	TokenStateConsumed
	TokenStateRevoked
	TokenStateExpired
)

func (s TokenState) String() string {
	switch s {
	case TokenStateActive:
		return "active"
	case TokenStateConsumed:
		return "consumed"
	case TokenStateRevoked:
		return "revoked"
	case TokenStateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// RefreshTokenStore defines persistence operations for refresh tokens.
// Raw secrets are never stored; all lookups go through the SHA-256 hash
// of the presented secret.
type RefreshTokenStore interface {
	Create(ctx context.Context, token RefreshToken) error
	GetBySecretHash(ctx context.Context, secretHash []byte) (RefreshToken, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) ([]RefreshToken, error)
	// Rotate marks the row revoked and records the hash of its successor,
	// but only if the row is still unrevoked. Returns ErrInvalidToken when
	// another caller consumed the row first.
	Rotate(ctx context.Context, secretHash, replacedByHash []byte, at time.Time) error
	// Revoke marks a single row revoked without a successor (logout).
	Revoke(ctx context.Context, secretHash []byte, at time.Time) error
	RevokeAllByUser(ctx context.Context, userID uuid.UUID, at time.Time) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// RefreshToken is a persisted long-lived session artifact. It is consumed
// exactly once by rotation or explicitly revoked; both transitions set
// RevokedAt and never revert.
type RefreshToken struct {
	ID             uuid.UUID
	SecretHash     []byte
	UserID         uuid.UUID
	IssuedAt       time.Time
	ExpiresAt      time.Time
	RevokedAt      *time.Time
	ReplacedByHash []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// State computes the lifecycle state at the given instant. Revocation wins
// over expiry so a consumed token keeps its successor chain visible.
func (t RefreshToken) State(now time.Time) TokenState {
	if t.RevokedAt != nil {
		if len(t.ReplacedByHash) > 0 {
			return TokenStateConsumed
		}
		return TokenStateRevoked
	}
	if !now.Before(t.ExpiresAt) {
		return TokenStateExpired
	}
	return TokenStateActive
}

// Active reports whether the token may still be rotated.
func (t RefreshToken) Active(now time.Time) bool {
	return t.State(now) == TokenStateActive
}
