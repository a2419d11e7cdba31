// Package testutil provides common test utilities for the ledger packages.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/store"
)

// NewDB opens a migrated SQLite database in a per-test temp directory.
// A file is used rather than :memory: so every pooled connection sees the same data.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := store.Open(config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      path,
		LogLevel: "silent",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	t.Cleanup(func() { _ = store.Close(db) })
	return db
}

// NewCompany returns a fresh company ID so tests never share rows.
func NewCompany() uuid.UUID {
	return uuid.New()
}
