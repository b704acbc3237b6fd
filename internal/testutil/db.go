// Package testutil provides reusable helpers for tests that need a real
// relational store.
package testutil

import (
	"path/filepath"
	"testing"

	"ivr-flow/internal/config"
	"ivr-flow/internal/database"
	"ivr-flow/internal/models"

	"gorm.io/gorm"
)

// SetupTestDB opens a migrated sqlite database under t.TempDir(). The
// connection is closed when the test finishes.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "ivr_test.db"),
	}
	db, err := database.Init(cfg)
	if err != nil {
		t.Fatalf("Init test database failed: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}

	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}

// CreateMenus inserts nodes directly, bypassing seeding.
func CreateMenus(t *testing.T, db *gorm.DB, nodes ...models.MenuNode) {
	t.Helper()
	for i := range nodes {
		if err := db.Create(&nodes[i]).Error; err != nil {
			t.Fatalf("create menu %s: %v", nodes[i].MenuID, err)
		}
	}
}
