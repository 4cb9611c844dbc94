package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"feedcache/internal/cache"
	"feedcache/internal/common/logging"
	"feedcache/internal/config"
	"feedcache/internal/handlers"
	"feedcache/internal/invalidation"
	redisclient "feedcache/internal/redis"
	"feedcache/internal/sweeper"
	"feedcache/internal/tiers"
	memorytier "feedcache/internal/tiers/memory"
	postgrestier "feedcache/internal/tiers/postgres"
	redistier "feedcache/internal/tiers/redis"
	sqlitetier "feedcache/internal/tiers/sqlite"
	"feedcache/internal/warmer"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logging.InitGlobalLogger()
	defer logging.MustSync()
	logger := logging.GetGlobalLogger()

	// Persistent tier (primary)
	var primary tiers.Tier
	switch cfg.DatabaseType {
	case "postgres":
		tier, err := postgrestier.New(cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize postgres tier: %v", err)
		}
		defer tier.Close()
		primary = tier
	default:
		tier, err := sqlitetier.New(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("Failed to initialize sqlite tier: %v", err)
		}
		defer tier.Close()
		primary = tier
	}

	tierList := []tiers.Tier{primary}

	// Ephemeral tier (fallback) and the cross-process event bridge both need
	// redis; the service runs without them when redis is unreachable.
	var redisConn *redisclient.Client
	if client, err := redisclient.NewClient(&redisclient.Config{
		Address:  cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDBNumber(),
		PoolSize: cfg.RedisPool(),
	}); err != nil {
		logger.Warn("redis unavailable, running without ephemeral tier", logging.Err(err))
	} else {
		redisConn = client
		defer redisConn.Close()
		tierList = append(tierList, redistier.New(redisConn.RDB(), ""))
	}

	// In-memory tier, flushed wholesale on clear.
	tierList = append(tierList, memorytier.New(cfg.DefaultTTL(), 10*time.Minute))

	engine, err := cache.New(cache.Options{
		Tiers:      tierList,
		Enabled:    cfg.CacheEnabled,
		DefaultTTL: cfg.DefaultTTL(),
		Logger:     logger,
	})
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}

	// Mutation events -> invalidation
	bus := invalidation.NewBus()
	router := invalidation.NewRouter(engine, logger)
	router.Attach(bus)

	var bridge *invalidation.RedisBridge
	if redisConn != nil {
		bridge = invalidation.NewRedisBridge(redisConn, bus, cfg.EventChannel, logger)
		bridge.Start(context.Background())
		defer bridge.Stop()
	}

	// Scheduled expiry sweep
	sweep := sweeper.New(engine, cfg.SweepSchedule, logger)
	if err := sweep.Start(); err != nil {
		log.Fatalf("Failed to schedule expiry sweep: %v", err)
	}
	defer sweep.Stop()

	warm := warmer.New(cfg.SiteBaseURL, cfg.WarmTimeout, logger)

	h := handlers.New(engine, bus, warm, logger)
	muxRouter := mux.NewRouter()
	h.Register(muxRouter)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      muxRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", logging.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
