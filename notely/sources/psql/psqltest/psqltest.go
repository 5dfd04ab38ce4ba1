// Package psqltest opens throwaway sqlite-backed databases with the notely
// schema applied, for tests in other packages.
package psqltest

import (
	"context"
	"path/filepath"
	"testing"

	"notely/notely/sources/psql"
	"notely/notely/sources/psql/models"
	"notely/notely/sources/psql/schema"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenRaw returns an empty database without any schema.
func OpenRaw(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notely.db")
	db, err := gorm.Open(sqlite.Open("file:"+path+"?_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	// sqlite allows a single writer; one connection keeps tests deterministic.
	database, err := psql.Wrap(db, psql.PoolOptions{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("failed to configure pool: %v", err)
	}
	t.Cleanup(database.Close)
	return db
}

// Open returns a database with every migration applied.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	db := OpenRaw(t)
	if err := schema.Ensure(context.Background(), db); err != nil {
		t.Fatalf("failed to ensure schema: %v", err)
	}
	return db
}

// CreateUser inserts a user row directly.
func CreateUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{Email: email}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return user
}
