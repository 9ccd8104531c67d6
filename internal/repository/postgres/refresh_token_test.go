package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/authkeeper-server/internal/model"
	"github.com/dtroode/authkeeper-server/internal/token"
)

func newRefreshRepoMock(t *testing.T) (*RefreshTokenRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRefreshTokenRepository(mock), mock
}

var refreshColumns = []string{
	"id", "secret_hash", "user_id", "issued_at", "expires_at",
	"revoked_at", "replaced_by_hash", "created_at", "updated_at",
}

func TestRefreshTokenRepository_Create(t *testing.T) {
	ctx := context.Background()

	rt := model.RefreshToken{
		ID:         uuid.New(),
		SecretHash: token.HashSecret("secret"),
		UserID:     uuid.New(),
		IssuedAt:   time.Now(),
		ExpiresAt:  time.Now().Add(7 * 24 * time.Hour),
	}

	repo, mock := newRefreshRepoMock(t)
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(rt.ID, rt.SecretHash, rt.UserID, rt.IssuedAt, rt.ExpiresAt, rt.RevokedAt, rt.ReplacedByHash).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(ctx, rt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_GetBySecretHash(t *testing.T) {
	ctx := context.Background()
	secretHash := token.HashSecret("secret")

	t.Run("found", func(t *testing.T) {
		want := model.RefreshToken{
			ID:         uuid.New(),
			SecretHash: secretHash,
			UserID:     uuid.New(),
			IssuedAt:   time.Now().Add(-time.Hour),
			ExpiresAt:  time.Now().Add(time.Hour),
			CreatedAt:  time.Now().Add(-time.Hour),
			UpdatedAt:  time.Now().Add(-time.Hour),
		}

		repo, mock := newRefreshRepoMock(t)
		mock.ExpectQuery("SELECT (.+) FROM refresh_tokens WHERE secret_hash").
			WithArgs(secretHash).
			WillReturnRows(pgxmock.NewRows(refreshColumns).AddRow(
				want.ID, want.SecretHash, want.UserID, want.IssuedAt, want.ExpiresAt,
				want.RevokedAt, want.ReplacedByHash, want.CreatedAt, want.UpdatedAt,
			))

		got, err := repo.GetBySecretHash(ctx, secretHash)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRefreshRepoMock(t)
		mock.ExpectQuery("SELECT (.+) FROM refresh_tokens WHERE secret_hash").
			WithArgs(secretHash).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetBySecretHash(ctx, secretHash)
		require.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestRefreshTokenRepository_GetActiveByUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	first := model.RefreshToken{ID: uuid.New(), SecretHash: token.HashSecret("a"), UserID: userID,
		IssuedAt: time.Now().Add(-time.Minute), ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now().Add(-time.Minute), UpdatedAt: time.Now().Add(-time.Minute)}
	second := model.RefreshToken{ID: uuid.New(), SecretHash: token.HashSecret("b"), UserID: userID,
		IssuedAt: time.Now().Add(-time.Hour), ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now().Add(-time.Hour), UpdatedAt: time.Now().Add(-time.Hour)}

	repo, mock := newRefreshRepoMock(t)
	mock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(refreshColumns).
			AddRow(first.ID, first.SecretHash, first.UserID, first.IssuedAt, first.ExpiresAt,
				first.RevokedAt, first.ReplacedByHash, first.CreatedAt, first.UpdatedAt).
			AddRow(second.ID, second.SecretHash, second.UserID, second.IssuedAt, second.ExpiresAt,
				second.RevokedAt, second.ReplacedByHash, second.CreatedAt, second.UpdatedAt))

	got, err := repo.GetActiveByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []model.RefreshToken{first, second}, got)
}

func TestRefreshTokenRepository_Rotate(t *testing.T) {
	ctx := context.Background()
	oldHash := token.HashSecret("old")
	newHash := token.HashSecret("new")
	at := time.Now()

	t.Run("consumes an unrevoked row", func(t *testing.T) {
		repo, mock := newRefreshRepoMock(t)
		mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
			WithArgs(oldHash, newHash, at).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.Rotate(ctx, oldHash, newHash, at))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already consumed row loses", func(t *testing.T) {
		repo, mock := newRefreshRepoMock(t)
		mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
			WithArgs(oldHash, newHash, at).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.Rotate(ctx, oldHash, newHash, at)
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})
}

func TestRefreshTokenRepository_Revoke(t *testing.T) {
	ctx := context.Background()
	secretHash := token.HashSecret("secret")
	at := time.Now()

	t.Run("idempotent on unknown hash", func(t *testing.T) {
		repo, mock := newRefreshRepoMock(t)
		mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
			WithArgs(secretHash, at).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		require.NoError(t, repo.Revoke(ctx, secretHash, at))
	})
}

func TestRefreshTokenRepository_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	before := time.Now()

	repo, mock := newRefreshRepoMock(t)
	mock.ExpectExec("DELETE FROM refresh_tokens WHERE expires_at").
		WithArgs(before).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	purged, err := repo.PurgeExpired(ctx, before)
	require.NoError(t, err)
	assert.Equal(t, int64(4), purged)
}
