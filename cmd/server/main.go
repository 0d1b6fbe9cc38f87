package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/restaurant-reviews/config"
	"github.com/ikkim/restaurant-reviews/internal/app/controller"
	"github.com/ikkim/restaurant-reviews/internal/app/repository"
	"github.com/ikkim/restaurant-reviews/internal/app/service"
	"github.com/ikkim/restaurant-reviews/internal/app/view"
	"github.com/ikkim/restaurant-reviews/internal/connectivity"
	"github.com/ikkim/restaurant-reviews/internal/db"
	"github.com/ikkim/restaurant-reviews/internal/router"
	"github.com/ikkim/restaurant-reviews/internal/scheduler"
	"github.com/ikkim/restaurant-reviews/internal/storage"
	"github.com/ikkim/restaurant-reviews/internal/websocket"
	"github.com/ikkim/restaurant-reviews/pkg/logger"
	"github.com/ikkim/restaurant-reviews/pkg/redis"
	"github.com/ikkim/restaurant-reviews/pkg/retry"
	"github.com/ikkim/restaurant-reviews/pkg/reviewsapi"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.LogLevel
	if logLevel == "" {
		logLevel = "info"
		if cfg.Server.Environment == "development" {
			logLevel = "debug"
		}
	}
	logFormat := "console"
	if cfg.Server.Environment == "production" {
		logFormat = "json"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: logFormat == "console",
	})

	logger.Info("Starting restaurant reviews page server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
		"backend":     cfg.Remote.BaseURL,
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize local cache
	if err := db.Initialize(&cfg.Cache); err != nil {
		logger.Fatal("Failed to initialize local cache", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Flush lock: Redis when shared, in-process otherwise
	var locker service.Locker = service.NewLocalLocker()
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, using in-process flush lock", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			locker = redis.NewLocker(redis.GetClient())
			defer func() {
				if err := redis.Close(); err != nil {
					logger.Error("Failed to close Redis connection", err)
				}
			}()
		}
	}

	// Reviews backend
	apiClient, err := reviewsapi.NewClient(reviewsapi.Config{
		BaseURL: cfg.Remote.BaseURL,
		Timeout: cfg.Remote.Timeout,
	})
	if err != nil {
		logger.Fatal("Failed to create reviews backend client", err)
	}
	remote := service.NewRemoteService(apiClient)

	monitor := connectivity.NewMonitor(apiClient, cfg.Sync.ProbeInterval)
	monitor.Check(ctx)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Initialize repositories
	restaurantRepo := repository.NewRestaurantRepository(db.GetDB())
	reviewRepo := repository.NewReviewRepository(db.GetDB())
	outboxRepo := repository.NewOutboxRepository(db.GetDB())

	// Initialize services
	sessions := service.NewSessionStore(cfg.Page.SessionTTL)
	reviewSync := service.NewReviewSyncService(
		remote,
		reviewRepo,
		outboxRepo,
		monitor,
		locker,
		hub,
		service.SyncOptions{
			BatchSize: cfg.Sync.BatchSize,
			LockTTL:   cfg.Sync.LockTTL,
			Retry: &retry.Config{
				MaxAttempts:   cfg.Sync.MaxAttempts,
				InitialDelay:  cfg.Sync.InitialDelay,
				MaxDelay:      cfg.Sync.MaxDelay,
				BackoffFactor: cfg.Sync.BackoffFactor,
				JitterEnabled: true,
			},
		},
	)

	outboxScheduler := scheduler.NewOutboxScheduler(reviewSync, sessions, cfg.Sync.FlushSchedule)
	if err := outboxScheduler.Start(ctx); err != nil {
		logger.Fatal("Failed to start outbox scheduler", err)
	}

	monitor.OnRestored(func() {
		logger.Info("Backend reachable again, flushing outbox")
		outboxScheduler.Trigger()
		hub.BroadcastAll(map[string]interface{}{
			"type":   "connectivity",
			"online": true,
		})
	})
	go monitor.Run(ctx)

	pages := service.NewDetailPageService(
		remote,
		restaurantRepo,
		reviewSync,
		sessions,
		outboxScheduler,
		cfg.Page.DefaultRestaurantID,
	)

	photos := storage.NewPhotoStorage(cfg.Photos)
	builder := view.NewBuilder(photos, cfg.Map)

	// Initialize controllers
	pageController := controller.NewPageController(pages, reviewSync, builder)
	reviewController := controller.NewReviewController(pages, reviewSync)
	outboxController := controller.NewOutboxController(reviewSync)
	connectivityController := controller.NewConnectivityController(monitor)
	webSocketController := controller.NewWebSocketController(hub, cfg.CORS.AllowedOrigins)

	// Setup router
	r := router.NewRouter(
		pageController,
		reviewController,
		outboxController,
		connectivityController,
		webSocketController,
		cfg,
	)
	engine := r.Setup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shut down", err)
	}

	outboxScheduler.Stop()
	stop()

	logger.Info("Server stopped successfully")
}
