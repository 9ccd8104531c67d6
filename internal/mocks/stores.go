package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/authkeeper-server/internal/model"
)

// UserStore is a mock implementation of model.UserStore.
type UserStore struct {
	mock.Mock
}

func (m *UserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	args := m.Called(ctx, identifier)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *UserStore) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// RefreshTokenStore is a mock implementation of model.RefreshTokenStore.
type RefreshTokenStore struct {
	mock.Mock
}

func (m *RefreshTokenStore) Create(ctx context.Context, token model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *RefreshTokenStore) GetBySecretHash(ctx context.Context, secretHash []byte) (model.RefreshToken, error) {
	args := m.Called(ctx, secretHash)
	return args.Get(0).(model.RefreshToken), args.Error(1)
}

func (m *RefreshTokenStore) GetActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.RefreshToken, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RefreshToken), args.Error(1)
}

func (m *RefreshTokenStore) Rotate(ctx context.Context, secretHash, replacedByHash []byte, at time.Time) error {
	args := m.Called(ctx, secretHash, replacedByHash, at)
	return args.Error(0)
}

func (m *RefreshTokenStore) Revoke(ctx context.Context, secretHash []byte, at time.Time) error {
	args := m.Called(ctx, secretHash, at)
	return args.Error(0)
}

func (m *RefreshTokenStore) RevokeAllByUser(ctx context.Context, userID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

func (m *RefreshTokenStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// PasswordResetStore is a mock implementation of model.PasswordResetStore.
type PasswordResetStore struct {
	mock.Mock
}

func (m *PasswordResetStore) Create(ctx context.Context, reset model.PasswordReset) error {
	args := m.Called(ctx, reset)
	return args.Error(0)
}

func (m *PasswordResetStore) GetBySecretHash(ctx context.Context, secretHash []byte) (model.PasswordReset, error) {
	args := m.Called(ctx, secretHash)
	return args.Get(0).(model.PasswordReset), args.Error(1)
}

func (m *PasswordResetStore) MarkUsed(ctx context.Context, secretHash []byte, at time.Time) error {
	args := m.Called(ctx, secretHash, at)
	return args.Error(0)
}

func (m *PasswordResetStore) InvalidateAllByUser(ctx context.Context, userID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

func (m *PasswordResetStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}
