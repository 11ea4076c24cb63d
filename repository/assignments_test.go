package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestAssignmentRepo_MarkCompleted(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("PendingRowTransitions", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAssignmentRepo(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `daily_assignments` SET").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		ok, err := repo.MarkCompleted(ctx, "a1", at, nil)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyTransitionedRowUntouched", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAssignmentRepo(db)

		// the WHERE guard on both transition timestamps matches zero rows
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `daily_assignments` SET").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		ok, err := repo.MarkCompleted(ctx, "a1", at, nil)
		require.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAssignmentRepo_MarkSkipped(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewAssignmentRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `daily_assignments` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err := repo.MarkSkipped(ctx, "a1", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepo_FindByUserDay(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewAssignmentRepo(db)

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT \\* FROM `daily_assignments`").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByUserDay(ctx, "u1", "2026-03-10")
		assert.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAssignmentRepo_CountCompletedSince(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewAssignmentRepo(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `daily_assignments`").
		WithArgs("u1", "2026-03-07").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(2))

	n, err := repo.CountCompletedSince(ctx, "u1", "2026-03-07")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
