package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-reviews/config"
	"github.com/ikkim/restaurant-reviews/internal/app/repository"
	"github.com/ikkim/restaurant-reviews/internal/app/service"
	"github.com/ikkim/restaurant-reviews/internal/app/view"
	"github.com/ikkim/restaurant-reviews/internal/connectivity"
	"github.com/ikkim/restaurant-reviews/internal/db"
	"github.com/ikkim/restaurant-reviews/internal/websocket"
	"github.com/ikkim/restaurant-reviews/pkg/logger"
	"github.com/ikkim/restaurant-reviews/pkg/retry"
	"github.com/ikkim/restaurant-reviews/pkg/reviewsapi"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeBackend mimics the reviews backend's REST surface.
type fakeBackend struct {
	mu          sync.Mutex
	down        bool
	restaurants map[string]map[string]interface{}
	reviews     []map[string]interface{}
	byKey       map[string]map[string]interface{}
	nextID      int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		restaurants: map[string]map[string]interface{}{
			"1": {
				"id":           1,
				"name":         "Mission Chinese Food",
				"neighborhood": "Manhattan",
				"photograph":   "1",
				"address":      "171 E Broadway, New York, NY 10002",
				"latlng":       map[string]float64{"lat": 40.713829, "lng": -73.989667},
				"cuisine_type": "Asian",
				"operating_hours": map[string]string{
					"Monday": "5:30 pm - 11:00 pm",
				},
			},
		},
		byKey:  map[string]map[string]interface{}{},
		nextID: 10,
	}
}

func (b *fakeBackend) setDown(down bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.down = down
}

func (b *fakeBackend) reviewCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.reviews)
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.down {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/":
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/restaurants/"):
		restaurant, ok := b.restaurants[strings.TrimPrefix(r.URL.Path, "/restaurants/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(restaurant)

	case r.Method == http.MethodGet && r.URL.Path == "/reviews/":
		list := []map[string]interface{}{}
		for _, review := range b.reviews {
			if strconv.Itoa(review["restaurant_id"].(int)) == r.URL.Query().Get("restaurant_id") {
				list = append(list, review)
			}
		}
		json.NewEncoder(w).Encode(list)

	case r.Method == http.MethodPost && r.URL.Path == "/reviews/":
		if existing, ok := b.byKey[r.Header.Get(reviewsapi.IdempotencyHeader)]; ok {
			json.NewEncoder(w).Encode(existing)
			return
		}
		var req reviewsapi.CreateReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Rating > 5 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{"message": "invalid review"})
			return
		}
		b.nextID++
		now := time.Now().UTC().Add(time.Duration(b.nextID) * time.Second)
		review := map[string]interface{}{
			"id":            b.nextID,
			"restaurant_id": int(req.RestaurantID),
			"name":          req.Name,
			"rating":        strconv.Itoa(req.Rating),
			"comments":      req.Comments,
			"createdAt":     now.UnixMilli(),
			"updatedAt":     now.Format(time.RFC3339),
		}
		b.reviews = append(b.reviews, review)
		b.byKey[r.Header.Get(reviewsapi.IdempotencyHeader)] = review
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(review)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type controllerFixture struct {
	db       *gorm.DB
	backend  *fakeBackend
	monitor  *connectivity.Monitor
	hub      *websocket.Hub
	pages    service.DetailPageService
	reviews  service.ReviewSyncService
	sessions *service.SessionStore
	router   *gin.Engine
}

func setupControllerTest(t *testing.T) *controllerFixture {
	gin.SetMode(gin.TestMode)
	logger.Initialize(logger.Config{Level: "disabled"})

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	backend := newFakeBackend()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	client, err := reviewsapi.NewClient(reviewsapi.Config{BaseURL: server.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)

	monitor := connectivity.NewMonitor(client, time.Minute)
	monitor.Set(true)

	hub := websocket.NewHub()
	remote := service.NewRemoteService(client)
	sessions := service.NewSessionStore(time.Minute)
	reviews := service.NewReviewSyncService(
		remote,
		repository.NewReviewRepository(testDB),
		repository.NewOutboxRepository(testDB),
		monitor,
		service.NewLocalLocker(),
		hub,
		service.SyncOptions{Retry: &retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2}},
	)
	pages := service.NewDetailPageService(remote, repository.NewRestaurantRepository(testDB), reviews, sessions, nil, 1)

	router := gin.New()
	router.SetHTMLTemplate(view.Templates())

	pageController := NewPageController(pages, reviews, view.NewBuilder(nil, config.MapConfig{Zoom: 16, MaxZoom: 18}))
	router.GET("/restaurant.html", pageController.ShowRestaurant)
	router.POST("/restaurant/reviews", pageController.SubmitReviewForm)

	reviewController := NewReviewController(pages, reviews)
	outboxController := NewOutboxController(reviews)
	connectivityController := NewConnectivityController(monitor)
	v1 := router.Group("/api/v1")
	v1.GET("/restaurants/:id", reviewController.GetRestaurant)
	v1.GET("/restaurants/:id/reviews", reviewController.GetReviews)
	v1.POST("/restaurants/:id/reviews", reviewController.CreateReview)
	v1.GET("/outbox", outboxController.ListOutbox)
	v1.POST("/outbox/flush", outboxController.FlushOutbox)
	v1.DELETE("/outbox/:correlation_id", outboxController.DiscardRejected)
	v1.GET("/connectivity", connectivityController.GetConnectivity)

	return &controllerFixture{
		db:       testDB,
		backend:  backend,
		monitor:  monitor,
		hub:      hub,
		pages:    pages,
		reviews:  reviews,
		sessions: sessions,
		router:   router,
	}
}
