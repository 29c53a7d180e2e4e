package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const refreshSelect = `SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=\? LIMIT 1`

func TestTokenRepo_ValidateRefresh(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	cols := []string{"user_id", "expires_at", "revoked_at"}

	t.Run("active", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(refreshSelect).WithArgs("h").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(4, now.Add(time.Hour), nil))
		id, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h", now)
		require.NoError(t, err)
		assert.Equal(t, uint64(4), id)
	})

	t.Run("expired", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(refreshSelect).WithArgs("h").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(4, now.Add(-time.Second), nil))
		_, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h", now)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("revoked", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(refreshSelect).WithArgs("h").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(4, now.Add(time.Hour), now.Add(-time.Minute)))
		_, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h", now)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(refreshSelect).WithArgs("h").WillReturnRows(sqlmock.NewRows(cols))
		_, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h", now)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTokenRepo_StoreAndRevoke(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepo(db)
	exp := time.Date(2026, 11, 16, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO refresh_tokens \(user_id, token_hash, expires_at\)`).
		WithArgs(4, "h", exp).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP\(\) WHERE token_hash=\?`).
		WithArgs("h").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP\(\) WHERE user_id=\?`).
		WithArgs(4).WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.StoreRefresh(context.Background(), 4, "h", exp))
	require.NoError(t, repo.RevokeByHash(context.Background(), "h"))
	require.NoError(t, repo.RevokeAllForUser(context.Background(), 4))
}
