package repository

import (
	"context"
	"time"

	"github.com/ikkim/restaurant-reviews/internal/app/model"
	"github.com/ikkim/restaurant-reviews/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RestaurantRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Restaurant, error)
	Upsert(ctx context.Context, restaurant *model.Restaurant) error
	BulkUpsert(ctx context.Context, restaurants []model.Restaurant, batchSize int) error
}

type restaurantRepository struct {
	db *gorm.DB
}

func NewRestaurantRepository(db *gorm.DB) RestaurantRepository {
	return &restaurantRepository{db: db}
}

// FindByID returns gorm.ErrRecordNotFound on a cache miss.
func (r *restaurantRepository) FindByID(ctx context.Context, id uint) (*model.Restaurant, error) {
	var restaurant model.Restaurant
	if err := r.db.WithContext(ctx).First(&restaurant, id).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *restaurantRepository) Upsert(ctx context.Context, restaurant *model.Restaurant) error {
	restaurant.CachedAt = time.Now()
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(restaurant).Error
	if err != nil {
		logger.Error("Failed to cache restaurant", err, map[string]interface{}{
			"restaurant_id": restaurant.ID,
		})
		return err
	}

	logger.Debug("Restaurant cached", map[string]interface{}{
		"restaurant_id": restaurant.ID,
	})
	return nil
}

func (r *restaurantRepository) BulkUpsert(ctx context.Context, restaurants []model.Restaurant, batchSize int) error {
	if len(restaurants) == 0 {
		return nil
	}
	now := time.Now()
	for i := range restaurants {
		restaurants[i].CachedAt = now
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(restaurants, batchSize).Error
}
