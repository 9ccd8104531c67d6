package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/authkeeper-server/internal/mocks"
	"github.com/dtroode/authkeeper-server/internal/model"
	"github.com/dtroode/authkeeper-server/internal/testutil"
	"github.com/dtroode/authkeeper-server/internal/token"
)

func TestRefresh_Rotate(t *testing.T) {
	ctx := context.Background()

	userID := uuid.New()
	activeUser := model.User{
		ID:     userID,
		Email:  "user@example.com",
		Roles:  []string{"customer"},
		Active: true,
	}
	oldHash := token.HashSecret("old-secret")

	storedToken := func() model.RefreshToken {
		return model.RefreshToken{
			ID:         uuid.New(),
			SecretHash: oldHash,
			UserID:     userID,
			IssuedAt:   time.Now().Add(-time.Hour),
			ExpiresAt:  time.Now().Add(time.Hour),
		}
	}

	t.Run("success", func(t *testing.T) {
		users := &mocks.UserStore{}
		refreshStore := &mocks.RefreshTokenStore{}
		issuer := &mocks.TokenIssuer{}
		tx := &mocks.TxManager{}

		refreshStore.On("GetBySecretHash", ctx, oldHash).Return(storedToken(), nil)
		users.On("GetByID", ctx, userID).Return(activeUser, nil)
		issuer.On("IssueAccessToken", userID, "user@example.com", []string{"customer"}).
			Return("new-access", time.Now().Add(15*time.Minute), nil)
		issuer.On("IssueRefreshSecret").Return("new-secret", nil)
		issuer.On("RefreshTTL").Return(7 * 24 * time.Hour)
		tx.On("WithinTx", ctx, mock.Anything).Return(nil)

		newHash := token.HashSecret("new-secret")
		refreshStore.On("Rotate", ctx, oldHash, newHash, mock.AnythingOfType("time.Time")).Return(nil)
		refreshStore.On("Create", ctx, mock.MatchedBy(func(rt model.RefreshToken) bool {
			return rt.UserID == userID && token.SecretHashEqual(rt.SecretHash, newHash)
		})).Return(nil)

		s := NewRefresh(users, refreshStore, issuer, tx, testutil.MakeNoopLogger())

		pair, err := s.Rotate(ctx, "old-secret")
		require.NoError(t, err)
		assert.Equal(t, "new-access", pair.AccessToken)
		assert.Equal(t, "new-secret", pair.RefreshToken)

		refreshStore.AssertExpectations(t)
	})

	t.Run("unknown secret", func(t *testing.T) {
		refreshStore := &mocks.RefreshTokenStore{}
		refreshStore.On("GetBySecretHash", ctx, oldHash).Return(model.RefreshToken{}, model.ErrNotFound)

		s := NewRefresh(&mocks.UserStore{}, refreshStore, &mocks.TokenIssuer{}, &mocks.TxManager{}, testutil.MakeNoopLogger())

		_, err := s.Rotate(ctx, "old-secret")
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})

	t.Run("revoked token", func(t *testing.T) {
		revokedAt := time.Now().Add(-time.Minute)
		rt := storedToken()
		rt.RevokedAt = &revokedAt

		refreshStore := &mocks.RefreshTokenStore{}
		refreshStore.On("GetBySecretHash", ctx, oldHash).Return(rt, nil)

		s := NewRefresh(&mocks.UserStore{}, refreshStore, &mocks.TokenIssuer{}, &mocks.TxManager{}, testutil.MakeNoopLogger())

		_, err := s.Rotate(ctx, "old-secret")
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		rt := storedToken()
		rt.ExpiresAt = time.Now().Add(-time.Minute)

		refreshStore := &mocks.RefreshTokenStore{}
		refreshStore.On("GetBySecretHash", ctx, oldHash).Return(rt, nil)

		s := NewRefresh(&mocks.UserStore{}, refreshStore, &mocks.TokenIssuer{}, &mocks.TxManager{}, testutil.MakeNoopLogger())

		_, err := s.Rotate(ctx, "old-secret")
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})

	t.Run("owner missing", func(t *testing.T) {
		users := &mocks.UserStore{}
		refreshStore := &mocks.RefreshTokenStore{}

		refreshStore.On("GetBySecretHash", ctx, oldHash).Return(storedToken(), nil)
		users.On("GetByID", ctx, userID).Return(model.User{}, model.ErrNotFound)

		s := NewRefresh(users, refreshStore, &mocks.TokenIssuer{}, &mocks.TxManager{}, testutil.MakeNoopLogger())

		_, err := s.Rotate(ctx, "old-secret")
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})

	t.Run("owner inactive", func(t *testing.T) {
		inactive := activeUser
		inactive.Active = false

		users := &mocks.UserStore{}
		refreshStore := &mocks.RefreshTokenStore{}

		refreshStore.On("GetBySecretHash", ctx, oldHash).Return(storedToken(), nil)
		users.On("GetByID", ctx, userID).Return(inactive, nil)

		s := NewRefresh(users, refreshStore, &mocks.TokenIssuer{}, &mocks.TxManager{}, testutil.MakeNoopLogger())

		_, err := s.Rotate(ctx, "old-secret")
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})

	t.Run("concurrent rotation loser", func(t *testing.T) {
		users := &mocks.UserStore{}
		refreshStore := &mocks.RefreshTokenStore{}
		issuer := &mocks.TokenIssuer{}
		tx := &mocks.TxManager{}

		refreshStore.On("GetBySecretHash", ctx, oldHash).Return(storedToken(), nil)
		users.On("GetByID", ctx, userID).Return(activeUser, nil)
		issuer.On("IssueAccessToken", userID, "user@example.com", []string{"customer"}).
			Return("new-access", time.Now().Add(15*time.Minute), nil)
		issuer.On("IssueRefreshSecret").Return("new-secret", nil)
		issuer.On("RefreshTTL").Return(7 * 24 * time.Hour)
		tx.On("WithinTx", ctx, mock.Anything).Return(nil)
		// Another request consumed the row first: the conditional update
		// matched nothing.
		refreshStore.On("Rotate", ctx, oldHash, mock.Anything, mock.AnythingOfType("time.Time")).
			Return(model.ErrInvalidToken)

		s := NewRefresh(users, refreshStore, issuer, tx, testutil.MakeNoopLogger())

		_, err := s.Rotate(ctx, "old-secret")
		require.ErrorIs(t, err, model.ErrInvalidToken)
		refreshStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("storage failure", func(t *testing.T) {
		dbErr := errors.New("connection reset")
		refreshStore := &mocks.RefreshTokenStore{}
		refreshStore.On("GetBySecretHash", ctx, oldHash).Return(model.RefreshToken{}, dbErr)

		s := NewRefresh(&mocks.UserStore{}, refreshStore, &mocks.TokenIssuer{}, &mocks.TxManager{}, testutil.MakeNoopLogger())

		_, err := s.Rotate(ctx, "old-secret")
		require.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, model.ErrInvalidToken)
	})
}
