package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notification-feed/internal/config"
	domainservice "notification-feed/internal/domain/service"
	"notification-feed/internal/handler"
	"notification-feed/internal/infrastructure/aggregator"
	"notification-feed/internal/infrastructure/cron"
	"notification-feed/internal/infrastructure/db"
	"notification-feed/internal/infrastructure/dedup"
	"notification-feed/internal/infrastructure/kafka"
	"notification-feed/internal/infrastructure/postgres"
	"notification-feed/internal/infrastructure/redis"
	"notification-feed/internal/middleware"
	"notification-feed/internal/service"
	"notification-feed/pkg/jwt"
)

type App struct {
	cfg *config.Config
}

// New creates a new application instance
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &App{
		cfg: cfg,
	}, nil
}

// Run starts the application
func (a *App) Run() error {
	ctx := context.Background()

	log.Println("Connecting to PostgreSQL...")
	pool, err := db.NewPostgresPool(ctx, &a.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer db.Close(pool)
	log.Println("Connected to PostgreSQL")

	log.Println("Connecting to Redis...")
	redisClient, err := redis.NewRedisClient(&a.cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redis.Close(redisClient)
	log.Println("Connected to Redis")

	// Repositories
	notificationRepo := postgres.NewNotificationRepository(pool)
	entitlementRepo := postgres.NewEntitlementRepository(pool)
	blocklistRepo := postgres.NewBlocklistRepository(pool)

	cache := redis.NewCache(redisClient)

	blocklist := service.NewBlocklistSnapshot(blocklistRepo)
	refresher := cron.NewBlocklistRefresher(blocklist, a.cfg.Moderation.BlocklistRefreshInterval)
	if err := refresher.Start(); err != nil {
		return fmt.Errorf("failed to start block-list refresher: %w", err)
	}
	defer refresher.Stop()
	log.Printf("Loaded %d blocked recipients", blocklist.Size())

	aggregatorClient := aggregator.NewClient(aggregator.Options{
		BaseURL:    a.cfg.Aggregator.BaseURL,
		APIKey:     a.cfg.Aggregator.APIKey,
		HTTPClient: &http.Client{Timeout: a.cfg.Aggregator.Timeout},
		MaxRetries: a.cfg.Aggregator.MaxRetries,
		BaseDelay:  a.cfg.Aggregator.RetryBackoff,
	})

	unreadCount := service.NewUnreadCountService(notificationRepo, cache, blocklist, a.cfg.Cache.UnreadCountTTL)
	entitlements := service.NewEntitlementChecker(entitlementRepo, cache, a.cfg.Cache.EntitlementTTL)

	var publisher domainservice.ReadStatePublisher
	var producer *kafka.Producer
	if a.cfg.Kafka.Enabled {
		producer = kafka.NewProducer(&a.cfg.Kafka)
		defer producer.Close()
		publisher = producer
		log.Println("Kafka producer initialized")
	}

	feed := service.NewFeedService(service.FeedDependencies{
		Repo:         notificationRepo,
		External:     aggregatorClient,
		Entitlements: entitlements,
		Blocklist:    blocklist,
		UnreadCount:  unreadCount,
		Cache:        cache,
		Dedup:        dedup.New(),
		Publisher:    publisher,
	}, service.FeedConfig{
		MaxLimit:        a.cfg.Feed.MaxLimit,
		ExternalCap:     a.cfg.Feed.ExternalCap,
		OverFetchFactor: a.cfg.Feed.OverFetchFactor,
		ExternalTimeout: a.cfg.Feed.ExternalTimeout,
		ResponseTTL:     a.cfg.Cache.ResponseTTL,
	})

	tokenManager := jwt.NewTokenManager(a.cfg.JWT.Secret, a.cfg.JWT.AccessTokenTTL, a.cfg.JWT.Issuer)
	rateLimiter := middleware.NewRateLimiter(a.cfg.HTTP.RequestsPerMinute)
	router := handler.NewRouter(
		handler.NewNotificationHandler(feed, unreadCount),
		middleware.NewAuthMiddleware(tokenManager),
		rateLimiter,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.HTTP.Port),
		Handler:      router.Setup(),
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errChan := make(chan error, 2)

	if a.cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(&a.cfg.Kafka, unreadCount)
		defer consumer.Close()
		go func() {
			if err := consumer.Start(ctx); err != nil {
				errChan <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
		log.Println("Kafka consumer initialized")
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rateLimiter.Cleanup()
			}
		}
	}()

	go func() {
		log.Printf("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Notification feed service started successfully")

	var runErr error
	select {
	case runErr = <-errChan:
		log.Printf("Service error: %v", runErr)
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	}

	log.Println("Shutting down gracefully...")
	cancel()

	shutdownTimeout := a.cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	log.Println("Application stopped")
	return runErr
}
