// Package main is the entry point for the background worker. It runs
// the scheduled jobs - today that is the catalog refresh which keeps
// the Redis cache warm so dashboards rarely wait on the provider.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/skilltrack-hub/skill-progress-hub/config"
	"github.com/skilltrack-hub/skill-progress-hub/internal/infrastructure/external/catalog"
	"github.com/skilltrack-hub/skill-progress-hub/internal/infrastructure/messaging"
	"github.com/skilltrack-hub/skill-progress-hub/internal/infrastructure/persistence/redis"
	"github.com/skilltrack-hub/skill-progress-hub/internal/infrastructure/scheduler"
	"github.com/skilltrack-hub/skill-progress-hub/internal/infrastructure/scheduler/jobs"
	"github.com/skilltrack-hub/skill-progress-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:   cfg.Observability.LogLevel,
		Format:  logger.Format(cfg.Observability.LogFormat),
		AppName: cfg.App.Name + "-worker",
		Version: cfg.App.Version,
	})
	slog.SetDefault(log)

	if !cfg.Scheduler.Enabled {
		log.Info("scheduler disabled, nothing to do")
		return nil
	}
	if cfg.Catalog.BaseURL == "" {
		return fmt.Errorf("CATALOG_BASE_URL is required for the worker")
	}
	if cfg.Redis.Disabled {
		return fmt.Errorf("the worker needs Redis to store the refreshed catalog")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. REDIS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to Redis...")
	redisCfg := redis.DefaultConfig()
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	redisCfg.PoolSize = cfg.Redis.PoolSize
	redisCfg.MinIdleConns = cfg.Redis.MinIdleConns

	redisClient, err := redis.NewClient(ctx, redisCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()

	cache := redis.NewCatalogCache(redisClient, cfg.Redis.CacheTTL)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. CATALOG CLIENT & EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	clientCfg := catalog.DefaultClientConfig(cfg.Catalog.BaseURL)
	clientCfg.APIKey = cfg.Catalog.APIKey
	clientCfg.Timeout = cfg.Catalog.RequestTimeout
	clientCfg.FallbackEnabled = cfg.Catalog.FallbackEnabled
	clientCfg.RateLimiterConfig.RequestsPerSecond = cfg.Catalog.RateLimit
	clientCfg.RateLimiterConfig.BurstSize = cfg.Catalog.RateLimitBurst
	clientCfg.Logger = log
	provider := catalog.NewClient(clientCfg)

	busConfig := messaging.DefaultConfig()
	busConfig.Logger = log
	eventBus := messaging.NewEventBus(busConfig)
	defer eventBus.Close()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{Logger: log})

	refreshJob := jobs.NewRefreshCatalogJob(provider, cache, eventBus, log)
	if err := sched.Register(refreshJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RefreshCatalogInterval)); err != nil {
		return fmt.Errorf("failed to register catalog refresh job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// Warm the cache immediately instead of waiting a full interval.
	if err := sched.RunNow(ctx, refreshJob.Name()); err != nil {
		log.Warn("initial catalog refresh failed", slog.String("error", err.Error()))
	}

	log.Info("worker is running",
		slog.String("refresh_interval", cfg.Scheduler.RefreshCatalogInterval.String()))

	// ─────────────────────────────────────────────────────────────────────────
	// 5. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", slog.String("signal", sig.String()))

	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler gracefully", slog.String("error", err.Error()))
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}
