package account

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/anonify/internal/database"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewRepository(database.NewBunDB(sqlDB)), mock
}

var accountColumns = []string{
	"id", "username", "name", "email", "password_hash", "verify_code", "verify_code_expiry",
	"is_verified", "is_accepting_messages", "created_at", "updated_at",
}

func TestRepository_GetByUsername(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM "accounts"`).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow(id.String(), "alice", "", "alice@example.com", "hash", "123456", now, true, true, now, now))

	acc, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, id, acc.ID)
	assert.Equal(t, "alice", acc.Username)
	assert.True(t, acc.IsVerified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByUsername_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT .* FROM "accounts"`).
		WillReturnRows(sqlmock.NewRows(accountColumns))

	_, err := repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_CreateMapsUniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{constraint: usernameConstraint, want: ErrDuplicateUsername},
		{constraint: emailConstraint, want: ErrDuplicateEmail},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			repo, mock := newMockRepository(t)
			mock.ExpectQuery(`INSERT INTO "accounts"`).
				WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: tt.constraint})

			err := repo.Create(context.Background(), NewPending("a@example.com", PendingSignup{Username: "alice"}))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRepository_MarkVerified_NoRows(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`UPDATE "accounts"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkVerified(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SetAcceptingMessagesReturnsStoredValue(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`UPDATE "accounts" .* RETURNING "?is_accepting_messages"?`).
		WillReturnRows(sqlmock.NewRows([]string{"is_accepting_messages"}).AddRow(false))

	stored, err := repo.SetAcceptingMessages(context.Background(), uuid.New(), false)
	require.NoError(t, err)
	assert.False(t, stored)
}

func TestRepository_AppendMessageToMissingAccount(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`INSERT INTO "messages"`).
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation})

	err := repo.AppendMessage(context.Background(), uuid.New(), &Message{Content: "hi"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_DeleteMessage_NotOwned(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`DELETE FROM "messages"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteMessage(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestRepository_PurgeUnverified(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`DELETE FROM "accounts" .*is_verified`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.PurgeUnverified(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestRepository_ListMessagesNewestFirst(t *testing.T) {
	repo, mock := newMockRepository(t)
	accountID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM "messages" .* ORDER BY "?created_at"? DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "content", "is_read", "created_at"}).
			AddRow(uuid.NewString(), accountID.String(), "newer", false, now).
			AddRow(uuid.NewString(), accountID.String(), "older", true, now.Add(-time.Hour)))

	msgs, err := repo.ListMessages(context.Background(), accountID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "newer", msgs[0].Content)
	assert.True(t, msgs[1].IsRead)
}
