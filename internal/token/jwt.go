package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/authkeeper-server/internal/model"
)

// ErrNoSigningSecret is returned by NewJWT when no signing secret is
// configured. Callers must treat it as fatal at startup.
var ErrNoSigningSecret = errors.New("jwt signing secret is not configured")

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour

	// refreshSecretBytes gives 512 bits of entropy before encoding.
	refreshSecretBytes = 64
)

// Claims is the access-token claim set. Roles serialize as one entry per
// role under the "role" claim for interop with the consuming services.
type Claims struct {
	jwt.RegisteredClaims
	Email string           `json:"email"`
	Roles jwt.ClaimStrings `json:"role,omitempty"`
}

// JWT implements model.TokenIssuer backed by symmetric HMAC-SHA256.
// Configuration is injected once at construction; no process-global state.
type JWT struct {
	secretKey  []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWT creates a token issuer. The secret is mandatory; expiration
// strings ("15m", "2h", "7d") fall back to safe defaults when malformed.
func NewJWT(secret, issuer, audience, accessExpiration, refreshExpiration string) (*JWT, error) {
	if secret == "" {
		return nil, ErrNoSigningSecret
	}
	return &JWT{
		secretKey:  []byte(secret),
		issuer:     issuer,
		audience:   audience,
		accessTTL:  parseExpiration(accessExpiration, defaultAccessTTL),
		refreshTTL: parseExpiration(refreshExpiration, defaultRefreshTTL),
	}, nil
}

var _ model.TokenIssuer = (*JWT)(nil)

// IssueAccessToken creates a signed short-lived access token.
func (j *JWT) IssueAccessToken(userID uuid.UUID, email string, roles []string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(j.accessTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    j.issuer,
			Audience:  jwt.ClaimStrings{j.audience},
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: email,
		Roles: roles,
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// IssueRefreshSecret generates an opaque high-entropy refresh secret.
// The secret is never signed or parsed; the ledger stores only its hash.
func (j *JWT) IssueRefreshSecret() (string, error) {
	buf := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ValidateAccessToken verifies signature, issuer, audience and expiry.
// Any failure collapses to model.ErrInvalidToken so callers cannot tell
// which check rejected the token.
func (j *JWT) ValidateAccessToken(tokenString string) (model.AccessClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secretKey, nil
	},
		jwt.WithIssuer(j.issuer),
		jwt.WithAudience(j.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return model.AccessClaims{}, model.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.AccessClaims{}, model.ErrInvalidToken
	}

	return model.AccessClaims{
		UserID: userID,
		Email:  claims.Email,
		Roles:  claims.Roles,
		JTI:    claims.ID,
	}, nil
}

// AccessTTL returns the configured access-token lifetime.
func (j *JWT) AccessTTL() time.Duration {
	return j.accessTTL
}

// RefreshTTL returns the configured refresh-token lifetime.
func (j *JWT) RefreshTTL() time.Duration {
	return j.refreshTTL
}

// parseExpiration parses "15m", "2h", "7d" style strings. Malformed or
// non-positive values yield the fallback instead of an error.
func parseExpiration(expiration string, fallback time.Duration) time.Duration {
	if len(expiration) < 2 {
		return fallback
	}

	value, err := strconv.Atoi(expiration[:len(expiration)-1])
	if err != nil || value <= 0 {
		return fallback
	}

	switch expiration[len(expiration)-1] {
	case 'm':
		return time.Duration(value) * time.Minute
	case 'h':
		return time.Duration(value) * time.Hour
	case 'd':
		return time.Duration(value) * 24 * time.Hour
	default:
		return fallback
	}
}
