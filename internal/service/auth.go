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

// Auth orchestrates login and session queries. Credential resolution and
// password verification are delegated to the CredentialVerifier.
type Auth struct {
	credentials  model.CredentialVerifier
	users        model.UserStore
	refreshStore model.RefreshTokenStore
	issuer       model.TokenIssuer
	tx           model.TxManager
	logger       *logger.Logger
}

func NewAuth(
	credentials model.CredentialVerifier,
	users model.UserStore,
	refreshStore model.RefreshTokenStore,
	issuer model.TokenIssuer,
	tx model.TxManager,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		credentials:  credentials,
		users:        users,
		refreshStore: refreshStore,
		issuer:       issuer,
		tx:           tx,
		logger:       logger,
	}
}

// Login verifies credentials and opens a session. Unknown identifier,
// wrong password and inactive account all return ErrInvalidCredentials
// with no distinction.
func (a *Auth) Login(ctx context.Context, identifier, password string) (model.TokenPair, model.User, error) {
	a.logger.Debug("Auth service: processing login", "identifier", identifier)

	user, err := a.credentials.FindByIdentifier(ctx, identifier)
	if errors.Is(err, model.ErrNotFound) {
		return model.TokenPair{}, model.User{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.TokenPair{}, model.User{}, fmt.Errorf("failed to resolve user: %w", err)
	}

	if err := a.credentials.VerifyPassword(ctx, user, password); err != nil {
		return model.TokenPair{}, model.User{}, model.ErrInvalidCredentials
	}

	if !user.Active {
		a.logger.Info("Auth service: login attempt for inactive user", "user_id", user.ID)
		return model.TokenPair{}, model.User{}, model.ErrInvalidCredentials
	}

	pair, secretHash, err := issueTokenPair(a.issuer, user)
	if err != nil {
		return model.TokenPair{}, model.User{}, err
	}

	now := time.Now()
	err = a.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := a.users.RecordLogin(ctx, user.ID, now); err != nil {
			return err
		}
		return a.refreshStore.Create(ctx, model.RefreshToken{
			ID:         uuid.New(),
			SecretHash: secretHash,
			UserID:     user.ID,
			IssuedAt:   now,
			ExpiresAt:  pair.RefreshExpiresAt,
		})
	})
	if err != nil {
		return model.TokenPair{}, model.User{}, fmt.Errorf("failed to persist session: %w", err)
	}

	user.LastLoginAt = &now

	a.logger.Info("Auth service: login completed", "user_id", user.ID)

	return pair, user, nil
}

// Logout revokes the presented refresh token. Unknown or already revoked
// secrets are ignored so logout stays idempotent.
func (a *Auth) Logout(ctx context.Context, refreshSecret string) error {
	if refreshSecret == "" {
		return nil
	}
	if err := a.refreshStore.Revoke(ctx, token.HashSecret(refreshSecret), time.Now()); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// Sessions lists the user's active refresh tokens.
func (a *Auth) Sessions(ctx context.Context, userID uuid.UUID) ([]model.RefreshToken, error) {
	tokens, err := a.refreshStore.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return tokens, nil
}

// issueTokenPair mints an access token and a refresh secret for the user
// and returns the pair together with the hash the ledger stores.
func issueTokenPair(issuer model.TokenIssuer, user model.User) (model.TokenPair, []byte, error) {
	access, accessExpiresAt, err := issuer.IssueAccessToken(user.ID, user.Email, user.Roles)
	if err != nil {
		return model.TokenPair{}, nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	secret, err := issuer.IssueRefreshSecret()
	if err != nil {
		return model.TokenPair{}, nil, fmt.Errorf("failed to issue refresh secret: %w", err)
	}

	return model.TokenPair{
		AccessToken:      access,
		RefreshToken:     secret,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: time.Now().Add(issuer.RefreshTTL()),
	}, token.HashSecret(secret), nil
}
