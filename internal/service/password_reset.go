package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/authkeeper-server/internal/logger"
	"github.com/dtroode/authkeeper-server/internal/model"
	"github.com/dtroode/authkeeper-server/internal/token"
)

// PasswordReset issues one-time reset tokens and applies confirmed
// password changes, ending every open session for the user.
type PasswordReset struct {
	credentials  model.CredentialVerifier
	users        model.UserStore
	resetStore   model.PasswordResetStore
	refreshStore model.RefreshTokenStore
	tx           model.TxManager
	logger       *logger.Logger
}

func NewPasswordReset(
	credentials model.CredentialVerifier,
	users model.UserStore,
	resetStore model.PasswordResetStore,
	refreshStore model.RefreshTokenStore,
	tx model.TxManager,
	logger *logger.Logger,
) *PasswordReset {
	return &PasswordReset{
		credentials:  credentials,
		users:        users,
		resetStore:   resetStore,
		refreshStore: refreshStore,
		tx:           tx,
		logger:       logger,
	}
}

// Request issues a reset token for the address. It succeeds whether or
// not the email is registered so the endpoint cannot be used to probe
// accounts. The secret value itself never reaches the logs.
func (s *PasswordReset) Request(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		s.logger.Info("PasswordReset service: reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to resolve user: %w", err)
	}

	secret, err := s.credentials.GenerateResetSecret()
	if err != nil {
		return fmt.Errorf("failed to generate reset secret: %w", err)
	}

	now := time.Now()
	err = s.resetStore.Create(ctx, model.PasswordReset{
		ID:         uuid.New(),
		SecretHash: token.HashSecret(secret),
		UserID:     user.ID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(model.PasswordResetTTL),
	})
	if err != nil {
		return fmt.Errorf("failed to persist reset token: %w", err)
	}

	// TODO: hand the secret to the mail delivery pipeline once it exists.
	s.logger.Info("PasswordReset service: reset token issued", "user_id", user.ID)

	return nil
}

// Confirm redeems a reset token and applies the new password. The token
// consume, the invalidation of the user's other reset tokens and the
// revocation of every refresh token commit as one unit of work.
func (s *PasswordReset) Confirm(ctx context.Context, resetSecret, newPassword string) error {
	secretHash := token.HashSecret(resetSecret)

	reset, err := s.resetStore.GetBySecretHash(ctx, secretHash)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	now := time.Now()
	if !reset.Valid(now) {
		return model.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, reset.UserID)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to resolve user: %w", err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.credentials.ApplyNewPassword(ctx, user.ID, newPassword); err != nil {
			return err
		}
		// Defensive re-check: the conditional update fails if the token
		// was consumed between lookup and redemption.
		if err := s.resetStore.MarkUsed(ctx, secretHash, now); err != nil {
			return err
		}
		if err := s.resetStore.InvalidateAllByUser(ctx, user.ID, now); err != nil {
			return err
		}
		return s.refreshStore.RevokeAllByUser(ctx, user.ID, now)
	})
	if err != nil {
		var verr *model.ValidationError
		if errors.Is(err, model.ErrInvalidToken) || errors.Is(err, model.ErrUserNotFound) || errors.As(err, &verr) {
			return err
		}
		return fmt.Errorf("failed to confirm password reset: %w", err)
	}

	s.logger.Info("PasswordReset service: password reset confirmed, all sessions revoked",
		"user_id", user.ID)

	return nil
}
