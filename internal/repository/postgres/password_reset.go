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

var _ model.PasswordResetStore = (*PasswordResetRepository)(nil)

type PasswordResetRepository struct {
	db DB
}

func NewPasswordResetRepository(db DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

func (r *PasswordResetRepository) Create(ctx context.Context, reset model.PasswordReset) error {
	const query = `
        INSERT INTO password_resets (
            id, secret_hash, user_id, issued_at, expires_at, used_at, created_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
    `

	if reset.ID == uuid.Nil {
		reset.ID = uuid.New()
	}

	_, err := queryEngine(ctx, r.db).Exec(ctx, query,
		reset.ID, reset.SecretHash, reset.UserID, reset.IssuedAt, reset.ExpiresAt, reset.UsedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}
	return nil
}

func (r *PasswordResetRepository) GetBySecretHash(ctx context.Context, secretHash []byte) (model.PasswordReset, error) {
	const query = `
        SELECT id, secret_hash, user_id, issued_at, expires_at, used_at, created_at, updated_at
        FROM password_resets WHERE secret_hash = $1
    `
	var pr model.PasswordReset
	err := queryEngine(ctx, r.db).QueryRow(ctx, query, secretHash).Scan(
		&pr.ID, &pr.SecretHash, &pr.UserID, &pr.IssuedAt, &pr.ExpiresAt,
		&pr.UsedAt, &pr.CreatedAt, &pr.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PasswordReset{}, model.ErrNotFound
		}
		return model.PasswordReset{}, fmt.Errorf("failed to get password reset by secret hash: %w", err)
	}
	return pr, nil
}

// MarkUsed consumes the row only while it is still unused and unexpired.
// Zero matched rows means another confirmation got there first, or the
// token lapsed between lookup and redemption.
func (r *PasswordResetRepository) MarkUsed(ctx context.Context, secretHash []byte, at time.Time) error {
	const query = `
        UPDATE password_resets SET used_at = $2, updated_at = NOW()
        WHERE secret_hash = $1 AND used_at IS NULL AND expires_at > $2
    `
	tag, err := queryEngine(ctx, r.db).Exec(ctx, query, secretHash, at)
	if err != nil {
		return fmt.Errorf("failed to mark password reset used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrInvalidToken
	}
	return nil
}

func (r *PasswordResetRepository) InvalidateAllByUser(ctx context.Context, userID uuid.UUID, at time.Time) error {
	const query = `
        UPDATE password_resets SET used_at = $2, updated_at = NOW()
        WHERE user_id = $1 AND used_at IS NULL
    `
	if _, err := queryEngine(ctx, r.db).Exec(ctx, query, userID, at); err != nil {
		return fmt.Errorf("failed to invalidate password resets by user: %w", err)
	}
	return nil
}

func (r *PasswordResetRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM password_resets WHERE expires_at <= $1`

	tag, err := queryEngine(ctx, r.db).Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired password resets: %w", err)
	}
	return tag.RowsAffected(), nil
}
