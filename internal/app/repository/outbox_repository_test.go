package repository

import (
	"context"
	"testing"
	"time"

	"github.com/ikkim/restaurant-reviews/internal/app/model"
	"github.com/ikkim/restaurant-reviews/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOutboxTest(t *testing.T) OutboxRepository {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return NewOutboxRepository(testDB)
}

func pendingReview(correlationID string, restaurantID uint) *model.PendingReview {
	return &model.PendingReview{
		CorrelationID: correlationID,
		RestaurantID:  restaurantID,
		Name:          "Bo",
		Rating:        3,
		Comments:      "ok",
	}
}

func TestOutboxRepository_AppendAndList(t *testing.T) {
	repo := setupOutboxTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, pendingReview("a", 1)))
	require.NoError(t, repo.Append(ctx, pendingReview("b", 2)))

	entries, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].CorrelationID)
	assert.Equal(t, model.PendingStatusPending, entries[0].Status)
	assert.Equal(t, 3, entries[0].Rating)
	assert.Equal(t, "ok", entries[0].Comments)
}

func TestOutboxRepository_AppendIsIdempotent(t *testing.T) {
	repo := setupOutboxTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, pendingReview("same", 1)))
	require.NoError(t, repo.Append(ctx, pendingReview("same", 1)))

	entries, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOutboxRepository_ListDue_RespectsBackoffAndStatus(t *testing.T) {
	repo := setupOutboxTest(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Append(ctx, pendingReview("due", 1)))
	require.NoError(t, repo.Append(ctx, pendingReview("later", 1)))
	require.NoError(t, repo.Append(ctx, pendingReview("rejected", 1)))

	require.NoError(t, repo.MarkAttempt(ctx, "later", "connection refused", now.Add(time.Hour)))
	require.NoError(t, repo.MarkRejected(ctx, "rejected", "rating out of range"))

	due, err := repo.ListDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "due", due[0].CorrelationID)

	later, err := repo.FindByCorrelationID(ctx, "later")
	require.NoError(t, err)
	assert.Equal(t, 1, later.Attempts)
	assert.Equal(t, "connection refused", later.LastError)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[model.PendingStatusPending])
	assert.Equal(t, int64(1), counts[model.PendingStatusRejected])
}

func TestOutboxRepository_ListByRestaurant(t *testing.T) {
	repo := setupOutboxTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, pendingReview("a", 1)))
	require.NoError(t, repo.Append(ctx, pendingReview("b", 2)))

	entries, err := repo.ListByRestaurant(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].CorrelationID)
}

func TestOutboxRepository_Remove(t *testing.T) {
	repo := setupOutboxTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, pendingReview("a", 1)))
	require.NoError(t, repo.Remove(ctx, "a"))
	require.NoError(t, repo.Remove(ctx, "a"))

	_, err := repo.FindByCorrelationID(ctx, "a")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOutboxRepository_MarkDeliveredAndPurge(t *testing.T) {
	repo := setupOutboxTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, pendingReview("a", 1)))
	require.NoError(t, repo.Append(ctx, pendingReview("b", 1)))
	require.NoError(t, repo.MarkDelivered(ctx, "a"))

	due, err := repo.ListDue(ctx, time.Now().Add(time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "b", due[0].CorrelationID)

	shown, err := repo.ListByRestaurant(ctx, 1)
	require.NoError(t, err)
	require.Len(t, shown, 1)
	assert.Equal(t, "b", shown[0].CorrelationID)

	purged, err := repo.PurgeDelivered(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = repo.FindByCorrelationID(ctx, "a")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
