package dbcache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wandergram/internal/config"
)

// models migrated on open. Order matters only for readability.
func models() []interface{} {
	return []interface{}{
		&User{},
		&Post{},
		&Comment{},
		&Follow{},
		&Like{},
		&Notification{},
		&TravelPermission{},
		&Country{},
		&City{},
		&Collection{},
		&CachedUserStats{},
		&DraftPost{},
	}
}

// NewSQLite opens the on-device cache database. A single writer connection
// serializes conflicting writes at the store, as the engine requires.
func NewSQLite(cnf *config.Config) (*gorm.DB, error) {
	path := cnf.Cache.Path
	if path == "" {
		return nil, fmt.Errorf("cache path is not set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("cannot create cache directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Warn),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open cache database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql.DB error: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate cache schema: %w", err)
	}

	slog.Info("cache database opened", "path", path)
	return db, nil
}

// NewMemory opens a private in-memory cache database. Used by tests.
func NewMemory() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open in-memory database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql.DB error: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate cache schema: %w", err)
	}
	return db, nil
}
