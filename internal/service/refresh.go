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

// Refresh validates a presented refresh secret and atomically rotates it
// into a new token pair.
type Refresh struct {
	users        model.UserStore
	refreshStore model.RefreshTokenStore
	issuer       model.TokenIssuer
	tx           model.TxManager
	logger       *logger.Logger
}

func NewRefresh(
	users model.UserStore,
	refreshStore model.RefreshTokenStore,
	issuer model.TokenIssuer,
	tx model.TxManager,
	logger *logger.Logger,
) *Refresh {
	return &Refresh{
		users:        users,
		refreshStore: refreshStore,
		issuer:       issuer,
		tx:           tx,
		logger:       logger,
	}
}

// Rotate exchanges a refresh secret for a new pair. Every rejection —
// unknown secret, expired, revoked, missing or inactive owner — surfaces
// as ErrInvalidToken. A secret rotates at most once: the old row is
// consumed in the same transaction that records its successor, and a
// concurrent rotation attempt loses on the storage-level conditional
// update.
func (s *Refresh) Rotate(ctx context.Context, refreshSecret string) (model.TokenPair, error) {
	oldHash := token.HashSecret(refreshSecret)

	rt, err := s.refreshStore.GetBySecretHash(ctx, oldHash)
	if errors.Is(err, model.ErrNotFound) {
		return model.TokenPair{}, model.ErrInvalidToken
	}
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	now := time.Now()
	if !rt.Active(now) {
		s.logger.Info("Refresh service: rejected inactive token",
			"user_id", rt.UserID,
			"state", rt.State(now).String())
		return model.TokenPair{}, model.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, rt.UserID)
	if errors.Is(err, model.ErrNotFound) {
		return model.TokenPair{}, model.ErrInvalidToken
	}
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to resolve token owner: %w", err)
	}
	if !user.Active {
		return model.TokenPair{}, model.ErrInvalidToken
	}

	pair, newHash, err := issueTokenPair(s.issuer, user)
	if err != nil {
		return model.TokenPair{}, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.refreshStore.Rotate(ctx, oldHash, newHash, now); err != nil {
			return err
		}
		return s.refreshStore.Create(ctx, model.RefreshToken{
			ID:         uuid.New(),
			SecretHash: newHash,
			UserID:     user.ID,
			IssuedAt:   now,
			ExpiresAt:  pair.RefreshExpiresAt,
		})
	})
	if errors.Is(err, model.ErrInvalidToken) {
		// Lost the race against a concurrent rotation of the same secret.
		return model.TokenPair{}, model.ErrInvalidToken
	}
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	s.logger.Info("Refresh service: rotation completed", "user_id", user.ID)

	return pair, nil
}
