package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ikkim/restaurant-reviews/internal/app/model"
	"github.com/ikkim/restaurant-reviews/internal/app/repository"
	"github.com/ikkim/restaurant-reviews/internal/db"
	"github.com/ikkim/restaurant-reviews/pkg/reviewsapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageFixture struct {
	service        DetailPageService
	remote         *fakeRemote
	restaurantRepo repository.RestaurantRepository
	trigger        *countingTrigger
}

func setupDetailPageTest(t *testing.T) *pageFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	remote := newFakeRemote()
	restaurantRepo := repository.NewRestaurantRepository(testDB)
	syncService := NewReviewSyncService(
		remote,
		repository.NewReviewRepository(testDB),
		repository.NewOutboxRepository(testDB),
		newSwitchChecker(true),
		NewLocalLocker(),
		nil,
		SyncOptions{Retry: testRetryConfig()},
	)
	trigger := &countingTrigger{}

	return &pageFixture{
		service:        NewDetailPageService(remote, restaurantRepo, syncService, NewSessionStore(time.Minute), trigger, 1),
		remote:         remote,
		restaurantRepo: restaurantRepo,
		trigger:        trigger,
	}
}

func mission() model.Restaurant {
	return model.Restaurant{
		ID:           1,
		Name:         "Mission Chinese Food",
		Neighborhood: "Manhattan",
		Photograph:   "1",
		Address:      "171 E Broadway, New York, NY 10002",
		LatLng:       model.LatLng{Lat: 40.713829, Lng: -73.989667},
		CuisineType:  "Asian",
		OperatingHours: model.OperatingHours{
			"Monday": "5:30 pm - 11:00 pm",
		},
	}
}

func TestResolveRestaurantID(t *testing.T) {
	f := setupDetailPageTest(t)

	cases := map[string]uint{
		"":     1,
		"   ":  1,
		"abc":  1,
		"0":    1,
		"-4":   1,
		"3":    3,
		" 12 ": 12,
	}
	for raw, want := range cases {
		assert.Equal(t, want, f.service.ResolveRestaurantID(raw), "raw=%q", raw)
	}
}

func TestOpen_LoadsRestaurantAndCachesIt(t *testing.T) {
	f := setupDetailPageTest(t)
	f.remote.addRestaurant(mission())
	f.remote.addReview(model.Review{ID: 1, RestaurantID: 1, Name: "Steve", Rating: 4, Comments: "Good"})

	session := f.service.Open(context.Background(), "")
	snap := session.Snapshot()

	require.NotNil(t, snap.Restaurant)
	assert.Equal(t, "Mission Chinese Food", snap.Restaurant.Name)
	require.NotNil(t, snap.Reviews)
	assert.Len(t, snap.Reviews.Reviews, 1)
	assert.Empty(t, snap.Notices)
	assert.Equal(t, int32(1), f.trigger.count.Load())

	cached, err := f.restaurantRepo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Manhattan", cached.Neighborhood)

	got, ok := f.service.Session(session.ID)
	require.True(t, ok)
	assert.Same(t, session, got)
}

func TestOpen_ServesCachedRestaurantWhenBackendDown(t *testing.T) {
	f := setupDetailPageTest(t)
	r := mission()
	require.NoError(t, f.restaurantRepo.Upsert(context.Background(), &r))
	f.remote.restaurantErr = fmt.Errorf("dial: %w", reviewsapi.ErrNetwork)
	f.remote.reviewsErr = fmt.Errorf("dial: %w", reviewsapi.ErrNetwork)

	snap := f.service.Open(context.Background(), "1").Snapshot()
	require.NotNil(t, snap.Restaurant)
	assert.Equal(t, "Mission Chinese Food", snap.Restaurant.Name)
	assert.True(t, snap.Reviews.Empty())
	assert.Equal(t, SourceCache, snap.Reviews.Source)
}

func TestOpen_UnavailableRestaurantShowsNotice(t *testing.T) {
	f := setupDetailPageTest(t)
	f.remote.restaurantErr = fmt.Errorf("dial: %w", reviewsapi.ErrNetwork)

	snap := f.service.Open(context.Background(), "5").Snapshot()
	assert.Nil(t, snap.Restaurant)
	assert.Equal(t, uint(5), snap.RestaurantID)
	assert.Equal(t, []Notice{ErrorNotice(MsgRestaurantUnavailable)}, snap.Notices)
	assert.True(t, snap.Reviews.Empty())
}

func TestGetRestaurant_NotFound(t *testing.T) {
	f := setupDetailPageTest(t)

	_, err := f.service.GetRestaurant(context.Background(), 42)
	assert.ErrorIs(t, err, ErrRestaurantNotFound)
}

func TestRefreshReviews(t *testing.T) {
	f := setupDetailPageTest(t)
	session := f.service.Open(context.Background(), "2")
	assert.True(t, session.Reviews().Empty())

	f.remote.addReview(model.Review{ID: 9, RestaurantID: 2, Name: "Late", Rating: 5, Comments: "arrived"})
	list := f.service.RefreshReviews(context.Background(), session)
	assert.Len(t, list.Reviews, 1)
	assert.Same(t, list, session.Reviews())
}
