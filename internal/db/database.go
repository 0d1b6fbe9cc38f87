package db

import (
	"fmt"

	"github.com/ikkim/restaurant-reviews/config"
	appLogger "github.com/ikkim/restaurant-reviews/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Initialize opens the local cache database.
func Initialize(cfg *config.CacheConfig) error {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return err
	}

	appLogger.Info("Opening local cache", map[string]interface{}{
		"driver": cfg.Driver,
		"path":   cfg.SQLitePath,
		"host":   cfg.Host,
	})

	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Use silent mode, we'll use our own logger
	})
	if err != nil {
		return fmt.Errorf("failed to open local cache: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	maxOpen := 20
	if cfg.Driver == "sqlite" {
		// SQLite serializes writers anyway; one connection avoids SQLITE_BUSY.
		maxOpen = 1
	}
	sqlDB.SetMaxIdleConns(maxOpen)
	sqlDB.SetMaxOpenConns(maxOpen)

	appLogger.Info("Local cache ready", map[string]interface{}{
		"driver":         cfg.Driver,
		"max_open_conns": maxOpen,
	})
	return nil
}

func dialectorFor(cfg *config.CacheConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return sqlite.Open(cfg.SQLitePath + "?_busy_timeout=5000&_foreign_keys=on"), nil
	case "postgres":
		return postgres.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
