// Package dbtest opens migrated in-memory sqlite databases for package tests.
package dbtest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/pay2me/storefront/internal/db"
)

// Open returns a fresh database. The pool is pinned to one connection because
// every :memory: connection is a separate database; code under test must use
// the transaction handle inside Transaction callbacks.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := db.GormConfig()
	cfg.PrepareStmt = false

	gdb, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}
