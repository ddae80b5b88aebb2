package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/user/internfinder/internal/adapter/chromedp_browser"
	"github.com/user/internfinder/internal/adapter/memory"
	"github.com/user/internfinder/internal/adapter/postgres"
	redis_adapter "github.com/user/internfinder/internal/adapter/redis"
	"github.com/user/internfinder/internal/delivery/http/handler"
	"github.com/user/internfinder/internal/delivery/http/router"
	"github.com/user/internfinder/internal/provider"
	"github.com/user/internfinder/internal/repository"
	"github.com/user/internfinder/internal/usecase"
	"github.com/user/internfinder/pkg/config"
	"github.com/user/internfinder/pkg/logger"
	"github.com/user/internfinder/pkg/metrics"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("Could not load config", zap.Error(err))
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("Could not build logger", zap.Error(err))
	}
	defer log.Sync()

	// --- Metrics ---
	m := metrics.New(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("Unable to connect to Redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	log.Info("Redis connection established")

	// --- Listing store ---
	var listings repository.ListingRepository
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		listings = memory.NewListingRepo()
		log.Warn("Using in-memory listing store; listings are lost on exit")
	default:
		dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatal("Unable to connect to database", zap.Error(err))
		}
		defer dbpool.Close()
		if err := postgres.Migrate(ctx, dbpool); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
		listings = postgres.NewListingRepo(dbpool)
		log.Info("PostgreSQL connection pool established")
	}

	// --- Repositories ---
	queue := redis_adapter.NewQueueRepo(rdb)
	statuses := redis_adapter.NewStatusRepo(rdb)

	if n, err := queue.Recover(ctx); err != nil {
		log.Error("Failed to recover stranded jobs", zap.Error(err))
	} else if n > 0 {
		log.Info("Recovered stranded jobs", zap.Int("count", n))
	}

	// --- Use Cases ---
	browser := chromedp_browser.NewChromedpBrowser(chromedp_browser.Options{
		Headless:          cfg.Headless,
		NavigationTimeout: cfg.NavigationTimeoutDuration(),
		Proxies:           cfg.Proxies(),
	}, log.Named("browser"))
	crawlers := provider.NewRegistry(provider.Options{
		Logger:     log.Named("provider"),
		PageDelay:  cfg.PageDelay(),
		MaxScrolls: cfg.MaxScrolls,
	})
	ingestor := usecase.NewIngestor(crawlers, browser, listings, statuses, m, log.Named("ingest"))
	pool := usecase.NewWorkerPool(queue, ingestor, usecase.PoolConfig{
		Workers:     cfg.CrawlWorkers,
		DequeueWait: cfg.DequeueWaitDuration(),
	}, m, log.Named("worker"))

	scheduler, err := usecase.NewScheduler(usecase.ScheduleConfig{
		Spec:     cfg.ScheduleCron,
		Location: cfg.Location(),
	}, queue, statuses, m, log.Named("scheduler"))
	if err != nil {
		log.Fatal("Invalid schedule", zap.Error(err))
	}

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(scheduler, statuses, queue, []handler.HealthCheck{
		{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		{Name: "store", Ping: listings.Ping},
	}, log.Named("http"))
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router.New(apiHandler, m, prometheus.DefaultGatherer, log.Named("http")),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	poolDone := make(chan error, 1)
	go func() { poolDone <- pool.Run(ctx) }()

	scheduler.Start()
	if cfg.RunOnStart {
		scheduler.RunOnce(ctx)
	}

	go func() {
		log.Info("Starting server", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Could not listen on port", zap.String("port", cfg.ServerPort), zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	scheduler.Stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	select {
	case err := <-poolDone:
		if err != nil {
			log.Error("Worker pool stopped with error", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		log.Warn("Worker pool did not stop in time; in-flight jobs will be recovered on next start")
	}

	log.Info("Server exiting")
}
