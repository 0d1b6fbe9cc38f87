package db

import (
	"github.com/ikkim/restaurant-reviews/internal/app/model"
	"github.com/ikkim/restaurant-reviews/pkg/logger"
	"gorm.io/gorm"
)

// Models is every table the local cache owns.
func Models() []interface{} {
	return []interface{}{
		&model.Restaurant{},
		&model.Review{},
		&model.PendingReview{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB runs the cache migrations against an explicit handle.
func MigrateDB(conn *gorm.DB) error {
	logger.Info("Running local cache migrations...")

	models := Models()
	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Local cache migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}
