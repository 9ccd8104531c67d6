package model

import (
	"context"

	"github.com/google/uuid"
)

// CredentialVerifier owns password hashing and credential resolution.
// Authentication flows never see plaintext hashes beyond this boundary.
type CredentialVerifier interface {
	// FindByIdentifier resolves a user by email or username.
	// Returns ErrNotFound when no such user exists.
	FindByIdentifier(ctx context.Context, identifier string) (User, error)
	// VerifyPassword returns ErrInvalidCredentials on mismatch.
	VerifyPassword(ctx context.Context, user User, password string) error
	// ApplyNewPassword validates the password against policy and stores its
	// hash. Policy violations come back as *ValidationError.
	ApplyNewPassword(ctx context.Context, userID uuid.UUID, password string) error
	// GenerateResetSecret produces an opaque one-time reset secret.
	GenerateResetSecret() (string, error)
}
