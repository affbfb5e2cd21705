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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/aegis/internal/config"
	"github.com/kailas-cloud/aegis/internal/db/memory"
	dbPostgres "github.com/kailas-cloud/aegis/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/aegis/internal/db/redis"
	"github.com/kailas-cloud/aegis/internal/domain/query/mode"
	logpkg "github.com/kailas-cloud/aegis/internal/logger"
	"github.com/kailas-cloud/aegis/internal/metrics"
	"github.com/kailas-cloud/aegis/internal/repository/querycache"
	chiTransport "github.com/kailas-cloud/aegis/internal/transport/chi"
	"github.com/kailas-cloud/aegis/internal/transport/sonar"
	gatewayuc "github.com/kailas-cloud/aegis/internal/usecase/gateway"
	healthuc "github.com/kailas-cloud/aegis/internal/usecase/health"
	"github.com/kailas-cloud/aegis/internal/usecase/ratelimit"
	"github.com/kailas-cloud/aegis/internal/version"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting AEGIS Sonar gateway",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.String("rate_limit_driver", cfg.RateLimit.Driver),
	)

	metrics.RegisterUpstreamMetrics()
	metrics.RegisterGatewayMetrics()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	readyTimeout := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second

	var redisStore *dbRedis.Store
	if cfg.NeedsRedis() {
		redisStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Redis.Addrs,
			Username:   cfg.Redis.Username,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			Standalone: cfg.Redis.Standalone,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer redisStore.Close()

		if err := redisStore.WaitForReady(ctx, readyTimeout); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Redis.Addrs))
	}

	cacheStore, pinger := buildCacheStore(ctx, cfg, redisStore, logger)
	answerCache := querycache.New(cacheStore, logger,
		querycache.WithTTL(cfg.CacheTTL()),
		querycache.WithMetrics(metrics.CacheTotal),
	)

	limiter := buildLimiter(ctx, cfg, redisStore, logger)

	upstream, err := sonar.NewClient(sonar.Config{
		APIKey:        cfg.Upstream.APIKey,
		BaseURL:       cfg.Upstream.BaseURL,
		Timeout:       time.Duration(cfg.Upstream.TimeoutSec) * time.Second,
		MaxTokens:     cfg.Upstream.MaxTokens,
		Temperature:   cfg.Upstream.Temperature,
		TopP:          cfg.Upstream.TopP,
		SearchDomains: cfg.Upstream.SearchDomains,
		Models:        modelOverrides(cfg.Upstream.Models),
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("Failed to create upstream client", zap.Error(err))
	}

	opts := []gatewayuc.Option{gatewayuc.WithMetrics(metrics.RateLimitTotal, metrics.QueriesTotal)}
	if cfg.Gateway.SingleFlight {
		opts = append(opts, gatewayuc.WithSingleFlight())
	}
	gateway := gatewayuc.New(limiter, answerCache, upstream, logger, opts...)
	health := healthuc.New(pinger, upstream)

	server := chiTransport.NewServer(gateway, health, logger)
	router := chiTransport.NewRouter(server, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildCacheStore selects the answer cache backend and the pinger that reports its health.
func buildCacheStore(
	ctx context.Context,
	cfg config.Config,
	redisStore *dbRedis.Store,
	logger *zap.Logger,
) (querycache.Backend, healthuc.StorePinger) {
	switch cfg.Cache.Driver {
	case "postgres":
		pg, err := dbPostgres.NewStore(dbPostgres.Config{
			DSN:          cfg.Cache.DSN,
			MaxOpenConns: cfg.Cache.MaxOpenConns,
			LogSQL:       cfg.Cache.LogSQL,
		})
		if err != nil {
			logger.Fatal("Failed to open postgres", zap.Error(err))
		}
		if err := pg.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Postgres not ready", zap.Error(err))
		}
		if err := pg.Migrate(ctx, querycache.Models()...); err != nil {
			logger.Fatal("Failed to migrate cache schema", zap.Error(err))
		}
		logger.Info("Connected to postgres")
		return querycache.NewSQLStore(pg.DB()), pg
	case "redis", "valkey":
		return querycache.NewKVStore(redisStore), redisStore
	default:
		mem := memory.NewStore(10 * time.Minute)
		return querycache.NewKVStore(mem), mem
	}
}

func buildLimiter(
	ctx context.Context,
	cfg config.Config,
	redisStore *dbRedis.Store,
	logger *zap.Logger,
) ratelimit.Limiter {
	if cfg.RateLimit.Driver == "shared" {
		return ratelimit.NewShared(redisStore, cfg.RateLimit.Limit, cfg.RateLimitWindow(), logger)
	}

	limiter := ratelimit.NewMemory(cfg.RateLimit.Limit, cfg.RateLimitWindow())
	go limiter.Run(ctx, time.Duration(cfg.RateLimit.SweepIntervalSec)*time.Second)
	return limiter
}

func modelOverrides(in map[string]string) map[mode.Mode]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[mode.Mode]string, len(in))
	for k, v := range in {
		out[mode.Mode(k)] = v
	}
	return out
}
