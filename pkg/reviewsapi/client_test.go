package reviewsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return client
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestClient_GetRestaurant(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/restaurants/42", r.URL.Path)
		w.Write([]byte(`{
			"id": 42,
			"name": "Mission Chinese Food",
			"address": "171 E Broadway",
			"latlng": {"lat": 40.713829, "lng": -73.989667},
			"cuisine_type": "Asian",
			"operating_hours": {"Monday": "5:30 pm - 11:00 pm"},
			"createdAt": 1504095563444,
			"updatedAt": "2018-05-20T10:00:00.000Z"
		}`))
	})

	restaurant, err := client.GetRestaurant(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, FlexInt(42), restaurant.ID)
	assert.Equal(t, "Asian", restaurant.CuisineType)
	assert.Equal(t, "5:30 pm - 11:00 pm", restaurant.OperatingHours["Monday"])
	assert.Equal(t, int64(1504095563444), restaurant.CreatedAt.UnixMilli())
	assert.Equal(t, 2018, restaurant.UpdatedAt.Year())
}

func TestClient_GetRestaurant_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetRestaurant(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, IsRetryable(err))
}

func TestClient_GetReviews_FlexibleFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reviews/", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("restaurant_id"))
		w.Write([]byte(`[
			{"id": 1, "restaurant_id": 3, "name": "Steve", "rating": 4, "comments": "Good"},
			{"id": "2", "restaurant_id": "3", "name": "Morgan", "rating": "5", "comments": "Great"}
		]`))
	})

	reviews, err := client.GetReviews(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, FlexInt(2), reviews[1].ID)
	assert.Equal(t, FlexInt(3), reviews[1].RestaurantID)
	assert.Equal(t, FlexInt(5), reviews[1].Rating)
}

func TestClient_GetReviews_ServerErrorIsRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetReviews(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.True(t, IsRetryable(err))
}

func TestClient_CreateReview(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/reviews/", r.URL.Path)
		assert.Equal(t, "corr-1", r.Header.Get(IdempotencyHeader))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(42), body["restaurant_id"])
		assert.Equal(t, "Ann", body["name"])
		assert.Equal(t, float64(5), body["rating"])
		assert.Equal(t, "Great food", body["comments"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 31, "restaurant_id": 42, "name": "Ann", "rating": 5, "comments": "Great food",
			"createdAt": "2024-03-01T12:00:00Z", "updatedAt": "2024-03-01T12:00:00Z"}`))
	})

	review, err := client.CreateReview(context.Background(), CreateReviewRequest{
		RestaurantID: 42,
		Name:         "Ann",
		Rating:       5,
		Comments:     "Great food",
	}, "corr-1")
	require.NoError(t, err)
	assert.Equal(t, FlexInt(31), review.ID)
}

func TestClient_CreateReview_Rejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code": "E_INVALID", "message": "rating must be 1-5"}`))
	})

	_, err := client.CreateReview(context.Background(), CreateReviewRequest{RestaurantID: 1, Name: "x", Rating: 9, Comments: "y"}, "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "rating must be 1-5")
}

func TestClient_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client, err := NewClient(Config{BaseURL: baseURL, Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.GetReviews(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, client.Ping(context.Background()), ErrNetwork)
}

func TestClient_Ping(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	assert.NoError(t, client.Ping(context.Background()))
}

func TestFlexInt_Invalid(t *testing.T) {
	var f FlexInt
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &f))
	assert.NoError(t, json.Unmarshal([]byte(`null`), &f))
	assert.Equal(t, FlexInt(0), f)
}
