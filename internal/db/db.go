package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pokerjest/stamper/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the sqlite file at storagePath, creating its directory.
// Readers and writers may share the file concurrently (WAL + busy timeout).
func Open(storagePath string) (*gorm.DB, error) {
	if storagePath != ":memory:" {
		dir := filepath.Dir(storagePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	gdb, err := gorm.Open(sqlite.Open(dsn(storagePath)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database %s: %w", storagePath, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return gdb, nil
}

// OpenMedia opens the media store and ensures every relation exists.
func OpenMedia(storagePath string) (*gorm.DB, error) {
	gdb, err := Open(storagePath)
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(model.MediaModels()...); err != nil {
		_ = Close(gdb)
		return nil, fmt.Errorf("failed to migrate media store: %w", err)
	}
	return gdb, nil
}

// OpenSite opens the store holding per-user history and favorites.
func OpenSite(storagePath string) (*gorm.DB, error) {
	gdb, err := Open(storagePath)
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(model.SiteModels()...); err != nil {
		_ = Close(gdb)
		return nil, fmt.Errorf("failed to migrate site store: %w", err)
	}
	return gdb, nil
}

func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dsn(storagePath string) string {
	if storagePath == ":memory:" || strings.Contains(storagePath, "?") {
		return storagePath
	}
	return storagePath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
