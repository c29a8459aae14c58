package repositories

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func userRows(id string, points int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "role", "referral_points"}).
		AddRow(id, id+"@example.com", "seeker", points)
}

const selectUserForUpdate = `SELECT \* FROM "users" WHERE id = \$1 .*FOR UPDATE`

func TestLedger_TryAdjust_Credit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(selectUserForUpdate).WillReturnRows(userRows("user-1", 100))
	mock.ExpectExec(`UPDATE "users" SET`).
		WithArgs(int64(150), sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "referral_ledger"`).
		WithArgs(
			sqlmock.AnyArg(), // entry id
			"user-1",
			int64(50),
			"referral_bonus",
			`{"source":"invite"}`,
			int64(150),
			sqlmock.AnyArg(), // created_at
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	balance, err := repo.TryAdjust(context.Background(), "user-1", 50, "referral_bonus", map[string]interface{}{"source": "invite"})

	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_TryAdjust_InsufficientBalance(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	// No UPDATE and no INSERT may follow the read: the balance stays at 100
	// and no ledger entry is written.
	mock.ExpectBegin()
	mock.ExpectQuery(selectUserForUpdate).WillReturnRows(userRows("user-1", 100))
	mock.ExpectRollback()

	balance, err := repo.TryAdjust(context.Background(), "user-1", -150, "redemption", nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientBalance))
	assert.Contains(t, err.Error(), "balance 100")
	assert.Zero(t, balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_TryAdjust_ExactBalance(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(selectUserForUpdate).WillReturnRows(userRows("user-1", 100))
	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "referral_ledger"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	balance, err := repo.TryAdjust(context.Background(), "user-1", -100, "redemption", nil)

	require.NoError(t, err)
	assert.Zero(t, balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_TryAdjust_Overflow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(selectUserForUpdate).WillReturnRows(userRows("user-1", 100))
	mock.ExpectRollback()

	balance, err := repo.TryAdjust(context.Background(), "user-1", math.MaxInt64, "admin_adjustment", nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBalanceOverflow))
	assert.False(t, errors.Is(err, ErrInsufficientBalance))
	assert.Zero(t, balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_TryAdjust_UserNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(selectUserForUpdate).
		WillReturnRows(sqlmock.NewRows([]string{"id", "referral_points"}))
	mock.ExpectRollback()

	_, err := repo.TryAdjust(context.Background(), "ghost", 10, "referral_bonus", nil)

	assert.True(t, errors.Is(err, ErrUserNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_TryAdjust_InsertFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(selectUserForUpdate).WillReturnRows(userRows("user-1", 100))
	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "referral_ledger"`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.TryAdjust(context.Background(), "user-1", 5, "referral_bonus", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to append ledger entry")
	assert.False(t, errors.Is(err, ErrInsufficientBalance))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_History(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT \* FROM "referral_ledger" WHERE user_id = \$1 ORDER BY created_at DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "type", "metadata", "balance_after", "created_at"}).
			AddRow("6f1d7c0e-2f55-4c9e-9d59-3c1f4c1e0a11", "user-1", 50, "referral_bonus", "{}", 150, now).
			AddRow("0b9a3d1c-7a57-4b9a-8f6d-1a2b3c4d5e6f", "user-1", 100, "referral_bonus", "{}", 100, now.Add(-time.Hour)))

	entries, err := repo.History(context.Background(), "user-1", 0)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(50), entries[0].Amount)
	assert.Equal(t, int64(150), entries[0].BalanceAfter)
	assert.NoError(t, mock.ExpectationsWereMet())
}
