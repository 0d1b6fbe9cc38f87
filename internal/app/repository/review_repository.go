package repository

import (
	"context"

	"github.com/ikkim/restaurant-reviews/internal/app/model"
	"github.com/ikkim/restaurant-reviews/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository interface {
	FindByRestaurantID(ctx context.Context, restaurantID uint) ([]model.Review, error)
	ReplaceForRestaurant(ctx context.Context, restaurantID uint, reviews []model.Review) error
	Upsert(ctx context.Context, review *model.Review) error
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// FindByRestaurantID returns the cached reviews newest first. An empty
// cache is not an error.
func (r *reviewRepository) FindByRestaurantID(ctx context.Context, restaurantID uint) ([]model.Review, error) {
	reviews := []model.Review{}
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// ReplaceForRestaurant swaps the cached list for one restaurant atomically.
func (r *reviewRepository) ReplaceForRestaurant(ctx context.Context, restaurantID uint, reviews []model.Review) error {
	logger.Debug("Replacing cached reviews", map[string]interface{}{
		"restaurant_id": restaurantID,
		"count":         len(reviews),
	})

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("restaurant_id = ?", restaurantID).Delete(&model.Review{}).Error; err != nil {
			return err
		}
		if len(reviews) == 0 {
			return nil
		}

		rows := make([]model.Review, 0, len(reviews))
		for _, review := range reviews {
			review.RestaurantID = restaurantID
			rows = append(rows, review)
		}
		// review IDs are global, so a review moved between restaurants must overwrite
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(rows, 100).Error
	})
}

func (r *reviewRepository) Upsert(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(review).Error
}
