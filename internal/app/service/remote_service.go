package service

import (
	"context"
	"time"

	"github.com/ikkim/restaurant-reviews/internal/app/model"
	"github.com/ikkim/restaurant-reviews/pkg/reviewsapi"
)

// RemoteService is the reviews backend as the workflow sees it. Errors are
// classified with the reviewsapi sentinels.
type RemoteService interface {
	FetchRestaurant(ctx context.Context, id uint) (*model.Restaurant, error)
	FetchReviews(ctx context.Context, restaurantID uint) ([]model.Review, error)
	CreateReview(ctx context.Context, pending *model.PendingReview) (*model.Review, error)
}

type remoteService struct {
	client *reviewsapi.Client
}

func NewRemoteService(client *reviewsapi.Client) RemoteService {
	return &remoteService{client: client}
}

func (s *remoteService) FetchRestaurant(ctx context.Context, id uint) (*model.Restaurant, error) {
	doc, err := s.client.GetRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}
	restaurant := restaurantFromAPI(doc)
	return &restaurant, nil
}

func (s *remoteService) FetchReviews(ctx context.Context, restaurantID uint) ([]model.Review, error) {
	docs, err := s.client.GetReviews(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	reviews := make([]model.Review, 0, len(docs))
	for i := range docs {
		reviews = append(reviews, reviewFromAPI(&docs[i]))
	}
	return reviews, nil
}

// CreateReview sends the pending entry with its correlation id as the
// idempotency key, so a resend after a lost response is not duplicated.
func (s *remoteService) CreateReview(ctx context.Context, pending *model.PendingReview) (*model.Review, error) {
	doc, err := s.client.CreateReview(ctx, reviewsapi.CreateReviewRequest{
		RestaurantID: pending.RestaurantID,
		Name:         pending.Name,
		Rating:       pending.Rating,
		Comments:     pending.Comments,
	}, pending.CorrelationID)
	if err != nil {
		return nil, err
	}

	review := reviewFromAPI(doc)
	// some backends answer with only an id
	if review.RestaurantID == 0 {
		review.RestaurantID = pending.RestaurantID
	}
	if review.Name == "" {
		review.Name = pending.Name
		review.Rating = pending.Rating
		review.Comments = pending.Comments
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	if review.UpdatedAt.IsZero() {
		review.UpdatedAt = review.CreatedAt
	}
	return &review, nil
}

func restaurantFromAPI(doc *reviewsapi.Restaurant) model.Restaurant {
	return model.Restaurant{
		ID:             uint(doc.ID),
		Name:           doc.Name,
		Neighborhood:   doc.Neighborhood,
		Photograph:     doc.Photograph,
		Address:        doc.Address,
		LatLng:         model.LatLng{Lat: doc.LatLng.Lat, Lng: doc.LatLng.Lng},
		CuisineType:    doc.CuisineType,
		OperatingHours: model.OperatingHours(doc.OperatingHours),
		CreatedAt:      doc.CreatedAt.Time,
		UpdatedAt:      doc.UpdatedAt.Time,
	}
}

func reviewFromAPI(doc *reviewsapi.Review) model.Review {
	return model.Review{
		ID:           uint(doc.ID),
		RestaurantID: uint(doc.RestaurantID),
		Name:         doc.Name,
		Rating:       int(doc.Rating),
		Comments:     doc.Comments,
		CreatedAt:    doc.CreatedAt.Time,
		UpdatedAt:    doc.UpdatedAt.Time,
	}
}
