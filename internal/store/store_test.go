package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/model"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "ledger.db"),
		LogLevel: "silent",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestForUpdatePostgres(t *testing.T) {
	db, mock := newMockDB(t)
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE id IN \(\$1,\$2\) ORDER BY id FOR UPDATE`).
		WithArgs(a, b).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code"}).AddRow(a.String(), "5141").AddRow(b.String(), "7111"))

	var accts []model.Account
	err := ForUpdate(db).Where("id IN ?", []uuid.UUID{a, b}).Order("id").Find(&accts).Error
	require.NoError(t, err)
	require.Len(t, accts, 2)
	assert.Equal(t, "5141", accts[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForUpdateSQLiteHasNoLockingClause(t *testing.T) {
	db := openSQLite(t)
	dry := db.Session(&gorm.Session{DryRun: true})

	var accts []model.Account
	stmt := ForUpdate(dry).Where("code = ?", "5141").Find(&accts).Statement
	assert.NotContains(t, stmt.SQL.String(), "FOR UPDATE")
}

func TestReadSnapshot(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT count\(\*\) FROM "journal_entries"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectCommit()

		var n int64
		err := ReadSnapshot(context.Background(), db, func(tx *gorm.DB) error {
			return tx.Model(&model.JournalEntry{}).Count(&n).Error
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := ReadSnapshot(context.Background(), db, func(tx *gorm.DB) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Migrate(db))

	for _, m := range []any{
		&model.AccountType{}, &model.Account{}, &model.Journal{},
		&model.JournalEntry{}, &model.JournalEntryLine{}, &model.SequenceCounter{},
	} {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
	assert.True(t, db.Migrator().HasIndex(&model.JournalEntry{}, "idx_entries_company_state"))

	// Migrating twice is a no-op.
	require.NoError(t, Migrate(db))
}

func TestIsDuplicate(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Migrate(db))

	company := uuid.New()
	newType := func() *model.AccountType {
		return &model.AccountType{
			ID:            uuid.New(),
			CompanyID:     company,
			Code:          "5",
			Name:          "Trésorerie",
			Category:      model.CategoryAsset,
			NormalBalance: model.NormalDebit,
			IsActive:      true,
		}
	}
	require.NoError(t, db.Create(newType()).Error)

	err := db.Create(newType()).Error
	require.Error(t, err)
	assert.True(t, IsDuplicate(err))
	assert.False(t, IsDuplicate(errors.New("other")))
}

func TestIsNotFound(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Migrate(db))

	var acct model.Account
	err := db.First(&acct, "code = ?", "9999").Error
	assert.True(t, IsNotFound(err))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "books.db?"+sqliteParams, SQLiteDSN("books.db"))
	assert.Equal(t, "books.db?mode=ro", SQLiteDSN("books.db?mode=ro"))
}
