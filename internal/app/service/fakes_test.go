package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ikkim/restaurant-reviews/internal/app/model"
	"github.com/ikkim/restaurant-reviews/pkg/reviewsapi"
	"github.com/stretchr/testify/mock"
)

// fakeRemote is an in-memory reviews backend. It dedupes creates by
// correlation id like the real one does with the idempotency key.
type fakeRemote struct {
	mu sync.Mutex

	restaurants map[uint]*model.Restaurant
	reviews     map[uint][]model.Review
	byKey       map[string]model.Review
	nextID      uint
	base        time.Time

	restaurantErr error
	reviewsErr    error
	createErrs    []error // consumed one per CreateReview call
	loseResponse  int     // store the review but report a network error

	createCalls int
	created     []model.PendingReview
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		restaurants: make(map[uint]*model.Restaurant),
		reviews:     make(map[uint][]model.Review),
		byKey:       make(map[string]model.Review),
		nextID:      100,
		base:        time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeRemote) addRestaurant(r model.Restaurant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restaurants[r.ID] = &r
}

func (f *fakeRemote) addReview(r model.Review) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews[r.RestaurantID] = append(f.reviews[r.RestaurantID], r)
}

func (f *fakeRemote) reviewCount(restaurantID uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reviews[restaurantID])
}

func (f *fakeRemote) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

func (f *fakeRemote) FetchRestaurant(ctx context.Context, id uint) (*model.Restaurant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.restaurantErr != nil {
		return nil, f.restaurantErr
	}
	r, ok := f.restaurants[id]
	if !ok {
		return nil, fmt.Errorf("restaurant %d: %w", id, reviewsapi.ErrNotFound)
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRemote) FetchReviews(ctx context.Context, restaurantID uint) ([]model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reviewsErr != nil {
		return nil, f.reviewsErr
	}
	// server order is oldest first
	return append([]model.Review(nil), f.reviews[restaurantID]...), nil
}

func (f *fakeRemote) CreateReview(ctx context.Context, pending *model.PendingReview) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.created = append(f.created, *pending)

	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	if existing, ok := f.byKey[pending.CorrelationID]; ok {
		return &existing, nil
	}

	f.nextID++
	stamp := f.base.Add(time.Duration(f.nextID) * time.Minute)
	review := model.Review{
		ID:           f.nextID,
		RestaurantID: pending.RestaurantID,
		Name:         pending.Name,
		Rating:       pending.Rating,
		Comments:     pending.Comments,
		CreatedAt:    stamp,
		UpdatedAt:    stamp,
	}
	f.byKey[pending.CorrelationID] = review
	f.reviews[pending.RestaurantID] = append(f.reviews[pending.RestaurantID], review)

	if f.loseResponse > 0 {
		f.loseResponse--
		return nil, fmt.Errorf("read response: %w", reviewsapi.ErrNetwork)
	}
	return &review, nil
}

type switchChecker struct {
	online atomic.Bool
}

func newSwitchChecker(online bool) *switchChecker {
	c := &switchChecker{}
	c.online.Store(online)
	return c
}

func (c *switchChecker) IsOnline() bool { return c.online.Load() }
func (c *switchChecker) Set(online bool) { c.online.Store(online) }

type mockBroadcaster struct {
	mock.Mock
}

func (m *mockBroadcaster) BroadcastToRestaurant(restaurantID uint, message interface{}) {
	m.Called(restaurantID, message)
}

type countingTrigger struct {
	count atomic.Int32
}

func (c *countingTrigger) Trigger() { c.count.Add(1) }
