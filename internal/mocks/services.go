package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/authkeeper-server/internal/model"
)

// AuthService is a mock of the handler-facing auth service.
type AuthService struct {
	mock.Mock
}

func (m *AuthService) Login(ctx context.Context, identifier, password string) (model.TokenPair, model.User, error) {
	args := m.Called(ctx, identifier, password)
	return args.Get(0).(model.TokenPair), args.Get(1).(model.User), args.Error(2)
}

func (m *AuthService) Logout(ctx context.Context, refreshSecret string) error {
	args := m.Called(ctx, refreshSecret)
	return args.Error(0)
}

func (m *AuthService) Sessions(ctx context.Context, userID uuid.UUID) ([]model.RefreshToken, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RefreshToken), args.Error(1)
}

// RefreshService is a mock of the handler-facing refresh service.
type RefreshService struct {
	mock.Mock
}

func (m *RefreshService) Rotate(ctx context.Context, refreshSecret string) (model.TokenPair, error) {
	args := m.Called(ctx, refreshSecret)
	return args.Get(0).(model.TokenPair), args.Error(1)
}

// PasswordResetService is a mock of the handler-facing reset service.
type PasswordResetService struct {
	mock.Mock
}

func (m *PasswordResetService) Request(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *PasswordResetService) Confirm(ctx context.Context, resetSecret, newPassword string) error {
	args := m.Called(ctx, resetSecret, newPassword)
	return args.Error(0)
}
