package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/authkeeper-server/internal/model"
)

// TokenIssuer is a mock implementation of model.TokenIssuer.
type TokenIssuer struct {
	mock.Mock
}

func (m *TokenIssuer) IssueAccessToken(userID uuid.UUID, email string, roles []string) (string, time.Time, error) {
	args := m.Called(userID, email, roles)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *TokenIssuer) IssueRefreshSecret() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *TokenIssuer) ValidateAccessToken(token string) (model.AccessClaims, error) {
	args := m.Called(token)
	return args.Get(0).(model.AccessClaims), args.Error(1)
}

func (m *TokenIssuer) AccessTTL() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

func (m *TokenIssuer) RefreshTTL() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

// CredentialVerifier is a mock implementation of model.CredentialVerifier.
type CredentialVerifier struct {
	mock.Mock
}

func (m *CredentialVerifier) FindByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	args := m.Called(ctx, identifier)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *CredentialVerifier) VerifyPassword(ctx context.Context, user model.User, password string) error {
	args := m.Called(ctx, user, password)
	return args.Error(0)
}

func (m *CredentialVerifier) ApplyNewPassword(ctx context.Context, userID uuid.UUID, password string) error {
	args := m.Called(ctx, userID, password)
	return args.Error(0)
}

func (m *CredentialVerifier) GenerateResetSecret() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// TxManager is a mock implementation of model.TxManager. When the
// expectation returns nil the unit-of-work function runs inline, so
// store expectations inside it stay visible to the test.
type TxManager struct {
	mock.Mock
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}
