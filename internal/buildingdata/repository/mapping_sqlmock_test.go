package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	clearPrimarySQL = `UPDATE building_address_mapping SET is_primary_entrance = $1 WHERE egid = $2`
	setPrimarySQL   = `UPDATE building_address_mapping SET is_primary_entrance = $1 WHERE egid = $2 AND building_entrance_id = $3`
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return conn, mock
}

func TestSetPrimaryEntranceRunsInOneTransaction(t *testing.T) {
	conn, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(clearPrimarySQL)).
		WithArgs(false, "150404").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(setPrimarySQL)).
		WithArgs(true, "150404", "entrance-x").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := ProvideMapping().SetPrimaryEntrance(context.Background(), conn, "150404", "entrance-x")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPrimaryEntranceRollsBackWhenEntranceNotMapped(t *testing.T) {
	conn, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(clearPrimarySQL)).
		WithArgs(false, "150404").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(setPrimarySQL)).
		WithArgs(true, "150404", "unknown").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := ProvideMapping().SetPrimaryEntrance(context.Background(), conn, "150404", "unknown")

	require.ErrorIs(t, err, domain.ErrEntranceNotMapped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPrimaryEntranceRollsBackOnClearFailure(t *testing.T) {
	conn, mock := setupMockDB(t)
	boom := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(clearPrimarySQL)).
		WithArgs(false, "150404").
		WillReturnError(boom)
	mock.ExpectRollback()

	err := ProvideMapping().SetPrimaryEntrance(context.Background(), conn, "150404", "entrance-x")

	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
