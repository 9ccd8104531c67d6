package credential

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/authkeeper-server/internal/model"
)

const resetSecretBytes = 32

// Verifier implements model.CredentialVerifier with bcrypt hashing and a
// minimal password policy. It is the only component that touches hashes.
type Verifier struct {
	users model.UserStore
	cost  int
}

// NewVerifier creates a Verifier with the given bcrypt cost. Out-of-range
// costs are clamped to the bcrypt defaults.
func NewVerifier(users model.UserStore, cost int) *Verifier {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Verifier{users: users, cost: cost}
}

var _ model.CredentialVerifier = (*Verifier)(nil)

// FindByIdentifier resolves a user by email or username.
func (v *Verifier) FindByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	return v.users.GetByIdentifier(ctx, identifier)
}

// VerifyPassword checks the plaintext password against the stored hash.
// Mismatch and malformed hash both map to ErrInvalidCredentials.
func (v *Verifier) VerifyPassword(_ context.Context, user model.User, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.ErrInvalidCredentials
	}
	return nil
}

// ApplyNewPassword validates the password against policy, hashes it and
// stores the hash.
func (v *Verifier) ApplyNewPassword(ctx context.Context, userID uuid.UUID, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := v.users.SetPasswordHash(ctx, userID, string(hash)); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrUserNotFound
		}
		return fmt.Errorf("failed to store password hash: %w", err)
	}
	return nil
}

// GenerateResetSecret produces an opaque one-time reset secret.
func (v *Verifier) GenerateResetSecret() (string, error) {
	buf := make([]byte, resetSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// validatePassword enforces the password policy. Violations are collected
// so the caller sees every broken rule at once.
func validatePassword(password string) error {
	verr := model.NewValidationError()

	if len(password) < 8 {
		verr.Add("PasswordTooShort", "password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		verr.Add("PasswordRequiresUpper", "password must contain an uppercase letter")
	}
	if !hasLower {
		verr.Add("PasswordRequiresLower", "password must contain a lowercase letter")
	}
	if !hasDigit {
		verr.Add("PasswordRequiresDigit", "password must contain a digit")
	}

	if verr.HasViolations() {
		return verr
	}
	return nil
}
