package repository

import (
	"context"
	"time"

	"github.com/ikkim/restaurant-reviews/internal/app/model"
	"github.com/ikkim/restaurant-reviews/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OutboxRepository stores reviews that the backend has not acknowledged yet.
type OutboxRepository interface {
	Append(ctx context.Context, pending *model.PendingReview) error
	FindByCorrelationID(ctx context.Context, correlationID string) (*model.PendingReview, error)
	List(ctx context.Context, limit int) ([]model.PendingReview, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.PendingReview, error)
	ListByRestaurant(ctx context.Context, restaurantID uint) ([]model.PendingReview, error)
	CountByStatus(ctx context.Context) (map[model.PendingStatus]int64, error)
	MarkAttempt(ctx context.Context, correlationID string, lastErr string, nextAttemptAt time.Time) error
	MarkRejected(ctx context.Context, correlationID string, lastErr string) error
	MarkDelivered(ctx context.Context, correlationID string) error
	Remove(ctx context.Context, correlationID string) error
	PurgeDelivered(ctx context.Context) (int64, error)
}

type outboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

// Append is idempotent on the correlation id.
func (r *outboxRepository) Append(ctx context.Context, pending *model.PendingReview) error {
	if pending.Status == "" {
		pending.Status = model.PendingStatusPending
	}
	// times are stored in UTC so SQLite's text comparison in ListDue holds
	pending.NextAttemptAt = pending.NextAttemptAt.UTC()

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "correlation_id"}}, DoNothing: true}).
		Create(pending).Error
	if err != nil {
		logger.Error("Failed to append pending review", err, map[string]interface{}{
			"correlation_id": pending.CorrelationID,
			"restaurant_id":  pending.RestaurantID,
		})
		return err
	}

	logger.Debug("Pending review appended to outbox", map[string]interface{}{
		"correlation_id": pending.CorrelationID,
		"restaurant_id":  pending.RestaurantID,
	})
	return nil
}

func (r *outboxRepository) FindByCorrelationID(ctx context.Context, correlationID string) (*model.PendingReview, error) {
	var pending model.PendingReview
	err := r.db.WithContext(ctx).Where("correlation_id = ?", correlationID).First(&pending).Error
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

func (r *outboxRepository) List(ctx context.Context, limit int) ([]model.PendingReview, error) {
	entries := []model.PendingReview{}
	query := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListDue returns pending entries whose backoff has elapsed, oldest first.
func (r *outboxRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]model.PendingReview, error) {
	entries := []model.PendingReview{}
	query := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", model.PendingStatusPending, now.UTC()).
		Order("created_at ASC").
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *outboxRepository) ListByRestaurant(ctx context.Context, restaurantID uint) ([]model.PendingReview, error) {
	entries := []model.PendingReview{}
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND status <> ?", restaurantID, model.PendingStatusDelivered).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *outboxRepository) CountByStatus(ctx context.Context) (map[model.PendingStatus]int64, error) {
	var rows []struct {
		Status model.PendingStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.PendingReview{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[model.PendingStatus]int64{
		model.PendingStatusPending:   0,
		model.PendingStatusRejected:  0,
		model.PendingStatusDelivered: 0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *outboxRepository) MarkAttempt(ctx context.Context, correlationID string, lastErr string, nextAttemptAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.PendingReview{}).
		Where("correlation_id = ?", correlationID).
		Updates(map[string]interface{}{
			"attempts":        gorm.Expr("attempts + ?", 1),
			"last_error":      lastErr,
			"next_attempt_at": nextAttemptAt.UTC(),
		}).Error
}

func (r *outboxRepository) MarkRejected(ctx context.Context, correlationID string, lastErr string) error {
	return r.db.WithContext(ctx).
		Model(&model.PendingReview{}).
		Where("correlation_id = ?", correlationID).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + ?", 1),
			"status":     model.PendingStatusRejected,
			"last_error": lastErr,
		}).Error
}

// MarkDelivered parks an acknowledged entry that could not be deleted so no
// flush picks it up again. PurgeDelivered removes it later.
func (r *outboxRepository) MarkDelivered(ctx context.Context, correlationID string) error {
	return r.db.WithContext(ctx).
		Model(&model.PendingReview{}).
		Where("correlation_id = ?", correlationID).
		Update("status", model.PendingStatusDelivered).Error
}

func (r *outboxRepository) PurgeDelivered(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ?", model.PendingStatusDelivered).
		Delete(&model.PendingReview{})
	return result.RowsAffected, result.Error
}

// Remove deletes an acknowledged entry. Removing a missing entry is a no-op.
func (r *outboxRepository) Remove(ctx context.Context, correlationID string) error {
	err := r.db.WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		Delete(&model.PendingReview{}).Error
	if err != nil {
		logger.Error("Failed to remove pending review", err, map[string]interface{}{
			"correlation_id": correlationID,
		})
		return err
	}
	return nil
}
