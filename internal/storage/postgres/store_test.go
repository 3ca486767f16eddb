package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindmatters/mindmatters-api/internal/models"
	"github.com/mindmatters/mindmatters-api/internal/storage"
)

var userColumns = []string{"id", "name", "email", "password_hash", "role", "created_at"}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewStore(db), mock
}

func TestCreateUser(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Ann", "ann@example.com", "hash", models.RoleUser).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(1, "Ann", "ann@example.com", "hash", models.RoleUser, now))

	u, err := store.CreateUser(context.Background(), models.User{
		Name: "Ann", Email: "ann@example.com", PasswordHash: "hash", Role: models.RoleUser,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, now, u.CreatedAt)
}

func TestCreateUser_UniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := store.CreateUser(context.Background(), models.User{Email: "ann@example.com"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestCreateUser_OtherErrorsAreWrapped(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(errors.New("connection reset"))

	_, err := store.CreateUser(context.Background(), models.User{Email: "ann@example.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "insert user")
}

func TestFindByEmail_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM users\s+WHERE email = \$1`).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := store.FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFindResetToken(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT token, user_id, expires_at, created_at\s+FROM reset_tokens`).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"token", "user_id", "expires_at", "created_at"}).
			AddRow("abc", 7, int64(1700000000000), now))

	rt, err := store.FindResetToken(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(7), rt.UserID)
	assert.Equal(t, int64(1700000000000), rt.ExpiresAt)
}

func TestConsumeResetToken_Commits(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM reset_tokens WHERE token = \$1 AND expires_at >= \$2 RETURNING user_id`).
		WithArgs("abc", int64(1000)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))
	mock.ExpectExec(`UPDATE users SET password_hash = \$1 WHERE id = \$2`).
		WithArgs("new-hash", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.ConsumeResetToken(context.Background(), "abc", 1000, "new-hash"))
}

func TestConsumeResetToken_UnknownOrExpiredRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM reset_tokens`).
		WithArgs("abc", int64(1000)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	mock.ExpectRollback()

	err := store.ConsumeResetToken(context.Background(), "abc", 1000, "new-hash")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestConsumeResetToken_UpdateFailureRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM reset_tokens`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))
	mock.ExpectExec(`UPDATE users SET password_hash`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.ConsumeResetToken(context.Background(), "abc", 1000, "new-hash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update password")
}

func TestDeleteExpiredResetTokens(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM reset_tokens WHERE expires_at < \$1`).
		WithArgs(int64(5000)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.DeleteExpiredResetTokens(context.Background(), 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestRecordSignIn_EmptyFieldsAreNull(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO signins`).
		WithArgs(int64(7), nil, "curl/8").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.RecordSignIn(context.Background(), models.SignIn{UserID: 7, UserAgent: "curl/8"}))
}

func TestListSignIns(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`FROM signins s\s+JOIN users u`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "ip", "user_agent", "id", "name", "email", "role"}).
			AddRow(2, now, "203.0.113.9", nil, 7, "Ann", "ann@example.com", "user"))

	entries, err := store.ListSignIns(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].IP)
	assert.Equal(t, "203.0.113.9", *entries[0].IP)
	assert.Nil(t, entries[0].UserAgent)
}

func TestFindProfile_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM profiles`).WithArgs(int64(7)).WillReturnError(sql.ErrNoRows)

	_, err := store.FindProfile(context.Background(), 7)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()
	age := 34

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE users SET name = \$1 WHERE id = \$2`).
		WithArgs("Ann B.", int64(7)).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(7, "Ann B.", "ann@example.com", "hash", "user", now))
	mock.ExpectQuery(`INSERT INTO profiles`).
		WithArgs(int64(7), int64(34), nil, "", "sleep more").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "age", "locality", "personal_notes", "goals", "updated_at"}).
			AddRow(7, 34, nil, "", "sleep more", now))
	mock.ExpectCommit()

	user, p, err := store.UpdateProfile(context.Background(), 7, "Ann B.", models.Profile{Age: &age, Goals: "sleep more"})
	require.NoError(t, err)
	assert.Equal(t, "Ann B.", user.Name)
	require.NotNil(t, p.Age)
	assert.Equal(t, 34, *p.Age)
	assert.Nil(t, p.Locality)
}

func TestUpdateProfile_UnknownUserRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE users SET name`).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := store.UpdateProfile(context.Background(), 99, "Ghost", models.Profile{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListProfiles_LeftJoinNulls(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM users u\s+LEFT JOIN profiles p`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role", "age", "locality", "personal_notes", "goals", "updated_at"}).
			AddRow(7, "Ann", "ann@example.com", "user", nil, nil, "", "", nil))

	entries, err := store.ListProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Age)
	assert.Nil(t, entries[0].UpdatedAt)
}
