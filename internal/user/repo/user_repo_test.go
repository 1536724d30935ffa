package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-auth/internal/user/entity"
)

func newRepoWithMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(sqlx.NewDb(db, "postgres")), mock
}

func TestCreate_Success(t *testing.T) {
	r, mock := newRepoWithMock(t)
	now := time.Now()
	hash := "h"

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+auth_user\s+\(id, email, password, role\).*RETURNING created_at, updated_at$`).
		WithArgs(int64(42), "alice@example.com", "h", int64(entity.RoleUser)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	u := &entity.User{ID: 42, Email: "alice@example.com", PasswordHash: &hash, Role: entity.RoleUser}
	require.NoError(t, r.Create(context.Background(), u))
	assert.Equal(t, now, u.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	r, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+auth_user`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := r.Create(context.Background(), &entity.User{ID: 1, Email: "a@b.c", Role: entity.RoleUser})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestCreate_OtherError(t *testing.T) {
	r, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+auth_user`).
		WillReturnError(errors.New("db down"))

	err := r.Create(context.Background(), &entity.User{ID: 1, Email: "a@b.c", Role: entity.RoleUser})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
}

func TestGetByEmail_Found(t *testing.T) {
	r, mock := newRepoWithMock(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "email", "password", "role", "created_at", "updated_at"}).
		AddRow(int64(7), "alice@example.com", nil, int64(2), now, now)
	mock.ExpectQuery(`(?s)^SELECT .* FROM auth_user WHERE email=\$1$`).
		WithArgs("alice@example.com").
		WillReturnRows(rows)

	u, err := r.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Nil(t, u.PasswordHash)
	assert.True(t, u.IsAdmin())
}

func TestGetByID_NotFound(t *testing.T) {
	r, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT .* FROM auth_user WHERE id=\$1$`).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := r.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUpdatePassword(t *testing.T) {
	r, mock := newRepoWithMock(t)

	mock.ExpectExec(`^UPDATE auth_user SET password=\$2, updated_at=NOW\(\) WHERE id=\$1$`).
		WithArgs(int64(3), "newhash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.UpdatePassword(context.Background(), 3, "newhash"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByEmail(t *testing.T) {
	r, mock := newRepoWithMock(t)

	mock.ExpectExec(`^DELETE FROM auth_user WHERE email=\$1$`).
		WithArgs("gone@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.DeleteByEmail(context.Background(), "gone@example.com"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("x")))
}
