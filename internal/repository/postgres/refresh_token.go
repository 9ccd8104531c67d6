package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/authkeeper-server/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

type RefreshTokenRepository struct {
	db DB
}

func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	const query = `
        INSERT INTO refresh_tokens (
            id, secret_hash, user_id, issued_at, expires_at, revoked_at, replaced_by_hash, created_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW())
    `

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	_, err := queryEngine(ctx, r.db).Exec(ctx, query,
		token.ID, token.SecretHash, token.UserID, token.IssuedAt, token.ExpiresAt,
		token.RevokedAt, token.ReplacedByHash,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) GetBySecretHash(ctx context.Context, secretHash []byte) (model.RefreshToken, error) {
	const query = `
        SELECT id, secret_hash, user_id, issued_at, expires_at, revoked_at, replaced_by_hash, created_at, updated_at
        FROM refresh_tokens WHERE secret_hash = $1
    `
	var rt model.RefreshToken
	err := queryEngine(ctx, r.db).QueryRow(ctx, query, secretHash).Scan(
		&rt.ID, &rt.SecretHash, &rt.UserID, &rt.IssuedAt, &rt.ExpiresAt,
		&rt.RevokedAt, &rt.ReplacedByHash, &rt.CreatedAt, &rt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RefreshToken{}, model.ErrNotFound
		}
		return model.RefreshToken{}, fmt.Errorf("failed to get refresh token by secret hash: %w", err)
	}
	return rt, nil
}

func (r *RefreshTokenRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.RefreshToken, error) {
	const query = `
        SELECT id, secret_hash, user_id, issued_at, expires_at, revoked_at, replaced_by_hash, created_at, updated_at
        FROM refresh_tokens
        WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > NOW()
        ORDER BY issued_at DESC
    `
	rows, err := queryEngine(ctx, r.db).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active refresh tokens: %w", err)
	}
	defer rows.Close()

	tokens := make([]model.RefreshToken, 0)
	for rows.Next() {
		var rt model.RefreshToken
		if err := rows.Scan(
			&rt.ID, &rt.SecretHash, &rt.UserID, &rt.IssuedAt, &rt.ExpiresAt,
			&rt.RevokedAt, &rt.ReplacedByHash, &rt.CreatedAt, &rt.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan refresh token: %w", err)
		}
		tokens = append(tokens, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read refresh tokens: %w", err)
	}
	return tokens, nil
}

// Rotate consumes the row: it must still be unrevoked and unexpired at the
// given instant. The conditional update is what makes rotation single-use
// under concurrency; the losing caller matches zero rows.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, secretHash, replacedByHash []byte, at time.Time) error {
	const query = `
        UPDATE refresh_tokens SET revoked_at = $3, replaced_by_hash = $2, updated_at = NOW()
        WHERE secret_hash = $1 AND revoked_at IS NULL AND expires_at > $3
    `
	tag, err := queryEngine(ctx, r.db).Exec(ctx, query, secretHash, replacedByHash, at)
	if err != nil {
		return fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrInvalidToken
	}
	return nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, secretHash []byte, at time.Time) error {
	const query = `
        UPDATE refresh_tokens SET revoked_at = $2, updated_at = NOW()
        WHERE secret_hash = $1 AND revoked_at IS NULL
    `
	if _, err := queryEngine(ctx, r.db).Exec(ctx, query, secretHash, at); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeAllByUser(ctx context.Context, userID uuid.UUID, at time.Time) error {
	const query = `
        UPDATE refresh_tokens SET revoked_at = $2, updated_at = NOW()
        WHERE user_id = $1 AND revoked_at IS NULL
    `
	if _, err := queryEngine(ctx, r.db).Exec(ctx, query, userID, at); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens by user: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM refresh_tokens WHERE expires_at <= $1`

	tag, err := queryEngine(ctx, r.db).Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
