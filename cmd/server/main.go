package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	redisstore "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"leadgen/internal/cache"
	"leadgen/internal/config"
	"leadgen/internal/contactout"
	"leadgen/internal/gateway"
	"leadgen/internal/handlers/api"
	"leadgen/internal/jobs"
	"leadgen/internal/metrics"
	"leadgen/internal/middleware"
	"leadgen/internal/ratelimit"
	"leadgen/internal/server"
)

func main() {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	cfg := config.Load()
	setupLogging(cfg)

	yamlCfg, err := config.LoadYAMLConfig()
	if err != nil {
		log.Fatalf("Failed to load config file: %v", err)
	}
	yamlCfg.ApplyTo(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	metrics.Init()

	// Redis backs the cache, the upstream rate limit counters and the inbound limiter.
	var (
		cacheStore     cache.Store
		counter        ratelimit.Counter
		limiterStorage fiber.Storage
		pingers        = map[string]api.Pinger{}
	)
	store, err := openRedis(cfg.RedisURL)
	switch {
	case err == nil:
		defer store.Close()
		cacheStore = store
		limiterStorage = store
		counter = ratelimit.NewRedisCounter(store.Conn())
		pingers["redis"] = redisPinger{store.Conn()}
		slog.Info("connected to redis")
	case cfg.IsDev():
		slog.Warn("redis unavailable, running without cache and with in-memory rate limits", "error", err)
		counter = ratelimit.NewMemoryCounter()
	default:
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	ttls := yamlCfg.CacheTTLOverrides(cache.OpSearch, cache.OpDecision, cache.OpLinkedIn,
		cache.OpEmail, cache.OpCompany, cache.OpVerify)

	limiter := ratelimit.New(counter, map[ratelimit.Class]int{
		ratelimit.PeopleSearch:   cfg.RateLimitSearch,
		ratelimit.ContactChecker: cfg.RateLimitContactChecker,
		ratelimit.Other:          cfg.RateLimitOther,
	}, cfg.RateLimitFailClosed)

	client := contactout.NewClient(cfg.ContactOutBaseURL, cfg.ContactOutAPIKey, cfg.UpstreamTimeout)
	svc := gateway.NewService(client, cache.New(cacheStore, ttls), limiter, gateway.Options{
		QualityBatchSize:  cfg.QualityBatchSize,
		QualityBatchPause: cfg.QualityBatchPause,
	})

	// Bearer tokens replace the organization header when OIDC is configured.
	var verifier middleware.ClaimsVerifier
	if cfg.IsOIDCEnabled() {
		v, err := middleware.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
		if err != nil {
			log.Fatalf("Failed to initialize OIDC verifier: %v", err)
		}
		verifier = v
		slog.Info("bearer token authentication enabled", "issuer", cfg.OIDCIssuer, "claim", cfg.OIDCOrgClaim)
	} else {
		slog.Info("OIDC disabled, organization taken from the X-Organization-ID header")
	}

	srv := server.New(cfg)
	srv.RegisterRoutes(server.Deps{
		Gateway:        svc,
		Verifier:       verifier,
		Pingers:        pingers,
		LimiterStorage: limiterStorage,
	})

	var poller *jobs.UsagePoller
	if cfg.UsagePollSchedule != "" {
		poller = jobs.NewUsagePoller(svc, cfg.UsagePollSchedule)
		if err := poller.Start(ctx); err != nil {
			log.Fatalf("Failed to start usage poller: %v", err)
		}
	}

	// Graceful shutdown
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	stop()
	if poller != nil {
		poller.Stop()
	}
	if err := srv.Shutdown(); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	slog.Info("server exited")
}

// setupLogging installs a JSON handler in production and a text handler in
// development as the default slog logger.
func setupLogging(cfg *config.Config) {
	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}

// openRedis connects the shared storage. The storage constructor panics
// when the server cannot be reached.
func openRedis(url string) (store *redisstore.Storage, err error) {
	defer func() {
		if r := recover(); r != nil {
			store, err = nil, fmt.Errorf("connect to redis: %v", r)
		}
	}()
	return redisstore.New(redisstore.Config{URL: url}), nil
}

type redisPinger struct {
	client redis.UniversalClient
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
