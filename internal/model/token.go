package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenIssuer builds and verifies signed access tokens and generates
// opaque refresh-token secrets. Pure and safe for concurrent use.
type TokenIssuer interface {
	IssueAccessToken(userID uuid.UUID, email string, roles []string) (token string, expiresAt time.Time, err error)
	IssueRefreshSecret() (string, error)
	// ValidateAccessToken verifies signature, issuer, audience and expiry
	// with zero clock-skew tolerance. Every failure returns ErrInvalidToken.
	ValidateAccessToken(token string) (AccessClaims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// AccessClaims is the verified content of an access token.
type AccessClaims struct {
	UserID uuid.UUID
	Email  string
	Roles  []string
	JTI    string
}

// TokenPair is what a successful login or rotation returns.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
