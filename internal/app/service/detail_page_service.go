package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ikkim/restaurant-reviews/internal/app/model"
	"github.com/ikkim/restaurant-reviews/internal/app/repository"
	"github.com/ikkim/restaurant-reviews/pkg/logger"
	"github.com/ikkim/restaurant-reviews/pkg/reviewsapi"
)

// FlushTrigger asks for an outbox flush without waiting for it.
type FlushTrigger interface {
	Trigger()
}

type DetailPageService interface {
	ResolveRestaurantID(raw string) uint
	Open(ctx context.Context, rawID string) *PageSession
	Session(id string) (*PageSession, bool)
	GetRestaurant(ctx context.Context, id uint) (*model.Restaurant, error)
	RefreshReviews(ctx context.Context, session *PageSession) *ReviewList
}

type detailPageService struct {
	remote         RemoteService
	restaurantRepo repository.RestaurantRepository
	reviews        ReviewSyncService
	sessions       *SessionStore
	flush          FlushTrigger
	defaultID      uint
}

func NewDetailPageService(
	remote RemoteService,
	restaurantRepo repository.RestaurantRepository,
	reviews ReviewSyncService,
	sessions *SessionStore,
	flush FlushTrigger,
	defaultID uint,
) DetailPageService {
	if defaultID == 0 {
		defaultID = 1
	}
	return &detailPageService{
		remote:         remote,
		restaurantRepo: restaurantRepo,
		reviews:        reviews,
		sessions:       sessions,
		flush:          flush,
		defaultID:      defaultID,
	}
}

// ResolveRestaurantID reads the id query value. Missing or unusable values
// select the default restaurant.
func (s *detailPageService) ResolveRestaurantID(raw string) uint {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		logger.Info("No restaurant id in URL, using default", map[string]interface{}{
			"default_id": s.defaultID,
		})
		return s.defaultID
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		logger.Debug("Unusable restaurant id, using default", map[string]interface{}{
			"raw":        raw,
			"default_id": s.defaultID,
		})
		return s.defaultID
	}
	return uint(id)
}

// Open starts a page session: restaurant details, then reviews. Both
// degrade to what the cache has, so a session is always returned.
func (s *detailPageService) Open(ctx context.Context, rawID string) *PageSession {
	restaurantID := s.ResolveRestaurantID(rawID)
	session := s.sessions.Create(restaurantID)

	restaurant, err := s.GetRestaurant(ctx, restaurantID)
	if err != nil {
		logger.Error("Failed to load restaurant", err, map[string]interface{}{
			"restaurant_id": restaurantID,
			"session_id":    session.ID,
		})
		session.AddNotice(NoticeFor(err))
	} else {
		session.SetRestaurant(restaurant)
	}

	session.SetReviews(s.reviews.LoadReviews(ctx, restaurantID))

	if s.flush != nil {
		s.flush.Trigger()
	}
	return session
}

func (s *detailPageService) Session(id string) (*PageSession, bool) {
	return s.sessions.Get(id)
}

// GetRestaurant prefers the backend and writes through to the cache.
func (s *detailPageService) GetRestaurant(ctx context.Context, id uint) (*model.Restaurant, error) {
	restaurant, remoteErr := s.remote.FetchRestaurant(ctx, id)
	if remoteErr == nil {
		if err := s.restaurantRepo.Upsert(ctx, restaurant); err != nil {
			logger.Warn("Failed to cache restaurant", map[string]interface{}{
				"restaurant_id": id,
				"error":         err.Error(),
			})
		}
		return restaurant, nil
	}

	cached, err := s.restaurantRepo.FindByID(ctx, id)
	if err == nil {
		logger.Warn("Serving cached restaurant", map[string]interface{}{
			"restaurant_id": id,
			"error":         remoteErr.Error(),
		})
		return cached, nil
	}

	if errors.Is(remoteErr, reviewsapi.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrRestaurantNotFound, id)
	}
	return nil, fmt.Errorf("%w: %d: %w", ErrRestaurantUnavailable, id, remoteErr)
}

// RefreshReviews reloads the session's reviews, e.g. after a flush.
func (s *detailPageService) RefreshReviews(ctx context.Context, session *PageSession) *ReviewList {
	list := s.reviews.LoadReviews(ctx, session.RestaurantID)
	session.SetReviews(list)
	return list
}
