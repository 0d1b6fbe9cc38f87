package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-reviews/config"
	"github.com/ikkim/restaurant-reviews/internal/app/controller"
	"github.com/ikkim/restaurant-reviews/internal/app/view"
	"github.com/ikkim/restaurant-reviews/internal/middleware"
)

type Router struct {
	pageController         *controller.PageController
	reviewController       *controller.ReviewController
	outboxController       *controller.OutboxController
	connectivityController *controller.ConnectivityController
	webSocketController    *controller.WebSocketController
	config                 *config.Config
}

func NewRouter(
	pageController *controller.PageController,
	reviewController *controller.ReviewController,
	outboxController *controller.OutboxController,
	connectivityController *controller.ConnectivityController,
	webSocketController *controller.WebSocketController,
	cfg *config.Config,
) *Router {
	return &Router{
		pageController:         pageController,
		reviewController:       reviewController,
		outboxController:       outboxController,
		connectivityController: connectivityController,
		webSocketController:    webSocketController,
		config:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(cors.New(corsConfig(r.config.CORS.AllowedOrigins)))

	router.SetHTMLTemplate(view.Templates())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Restaurant reviews page server is running",
		})
	})

	// Photos served locally when PHOTOS_BASE_URL points at /img
	router.Static("/img", "./img")

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/restaurant.html")
	})
	router.GET("/restaurant.html", r.pageController.ShowRestaurant)
	router.GET("/restaurant", r.pageController.ShowRestaurant)
	router.POST("/restaurant/reviews", r.pageController.SubmitReviewForm)

	router.GET("/ws", r.webSocketController.HandleWebSocket)

	v1 := router.Group("/api/v1")
	{
		restaurants := v1.Group("/restaurants")
		{
			restaurants.GET("/:id", r.reviewController.GetRestaurant)
			restaurants.GET("/:id/reviews", r.reviewController.GetReviews)
			restaurants.POST("/:id/reviews", r.reviewController.CreateReview)
		}

		outbox := v1.Group("/outbox")
		{
			outbox.GET("", r.outboxController.ListOutbox)
			outbox.POST("/flush", r.outboxController.FlushOutbox)
			outbox.DELETE("/:correlation_id", r.outboxController.DiscardRejected)
		}

		v1.GET("/connectivity", r.connectivityController.GetConnectivity)
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cfg
		}
	}
	cfg.AllowOrigins = allowedOrigins
	return cfg
}
