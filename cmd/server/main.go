// Package main is the entry point for the skill progress hub API server.
//
// The server exposes the append-only activity log over REST, derives
// progress metrics and badges on read, and ranks external catalog
// resources into recommendations. Architecture follows Clean
// Architecture and DDD:
//   - Domain: pure engines (progress, badge, recommend) with no I/O
//   - Application: use case orchestration (Commands/Queries)
//   - Infrastructure: postgres, redis, catalog client, event bus
//   - Interface: REST handlers
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/skilltrack-hub/skill-progress-hub/config"
	"github.com/skilltrack-hub/skill-progress-hub/internal/application/command"
	"github.com/skilltrack-hub/skill-progress-hub/internal/application/eventhandler"
	"github.com/skilltrack-hub/skill-progress-hub/internal/application/query"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/badge"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/progress"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/recommend"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/skill"
	"github.com/skilltrack-hub/skill-progress-hub/internal/infrastructure/external/catalog"
	"github.com/skilltrack-hub/skill-progress-hub/internal/infrastructure/messaging"
	"github.com/skilltrack-hub/skill-progress-hub/internal/infrastructure/persistence/memory"
	"github.com/skilltrack-hub/skill-progress-hub/internal/infrastructure/persistence/postgres"
	"github.com/skilltrack-hub/skill-progress-hub/internal/infrastructure/persistence/redis"
	"github.com/skilltrack-hub/skill-progress-hub/internal/infrastructure/scheduler"
	"github.com/skilltrack-hub/skill-progress-hub/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/skilltrack-hub/skill-progress-hub/internal/interface/http"
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
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	slog.SetDefault(log)

	log.Info("starting skill progress hub",
		slog.String("env", string(cfg.App.Environment)),
		slog.Bool("debug", cfg.App.Debug),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ENGINE POLICY (fail fast on a bad policy file)
	// ─────────────────────────────────────────────────────────────────────────
	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return fmt.Errorf("failed to load engine policy: %w", err)
	}

	aggregator, err := progress.NewAggregator(policy.ProgressConfig())
	if err != nil {
		return fmt.Errorf("failed to configure aggregator: %w", err)
	}
	badgeEngine, err := badge.NewEngine(policy.BadgeDefinitions())
	if err != nil {
		return fmt.Errorf("failed to configure badge engine: %w", err)
	}
	recEngine, err := recommend.NewEngine(policy.RecommendConfig())
	if err != nil {
		return fmt.Errorf("failed to configure recommendation engine: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. PERSISTENCE
	// ─────────────────────────────────────────────────────────────────────────
	var (
		activityStore  skill.ActivityStore
		badgeStore     skill.BadgeStore
		keyVerifier    httpserver.KeyVerifier
		healthCheckers = make(map[string]httpserver.HealthChecker)
	)

	if cfg.Database.URL != "" {
		log.Info("connecting to database...")
		dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			dbConn.Close()
		}()

		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		repo := postgres.NewActivityRepository(dbConn)
		activityStore = repo
		badgeStore = postgres.NewBadgeRepository(dbConn)
		if !cfg.Server.AuthDisabled {
			keyVerifier = postgres.NewCredentialRepository(dbConn)
		}
		healthCheckers["postgres"] = pingChecker{dbConn.Ping}
	} else {
		// No database configured: in-memory store, development only.
		log.Warn("DATABASE_URL not set, using in-memory activity store")
		store := memory.NewActivityStore()
		activityStore = store
		badgeStore = store
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (catalog cache, optional)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		catalogCache query.CatalogCache
		redisCache   *redis.CatalogCache
	)
	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisClient, err := redis.NewClient(ctx, redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, catalog caching disabled",
				slog.String("error", err.Error()))
		} else {
			defer redisClient.Close()
			redisCache = redis.NewCatalogCache(redisClient, cfg.Redis.CacheTTL)
			catalogCache = redisCache
			healthCheckers["redis"] = pingChecker{func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}}
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS & HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultConfig()
	busConfig.Logger = log
	eventBus := messaging.NewEventBus(busConfig)
	defer func() {
		log.Info("closing event bus...")
		eventBus.Close()
	}()

	if err := eventBus.Register(eventhandler.NewBadgeNotifier(log)); err != nil {
		return fmt.Errorf("failed to register badge notifier: %w", err)
	}
	if cfg.App.Debug {
		if err := eventBus.Register(eventhandler.NewActivityAuditor(log)); err != nil {
			return fmt.Errorf("failed to register activity auditor: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EXTERNAL CATALOG CLIENT
	// ─────────────────────────────────────────────────────────────────────────
	var provider recommend.Provider
	if cfg.Catalog.BaseURL != "" {
		clientCfg := catalog.DefaultClientConfig(cfg.Catalog.BaseURL)
		clientCfg.APIKey = cfg.Catalog.APIKey
		clientCfg.Timeout = cfg.Catalog.RequestTimeout
		clientCfg.FallbackEnabled = cfg.Catalog.FallbackEnabled
		clientCfg.RateLimiterConfig.RequestsPerSecond = cfg.Catalog.RateLimit
		clientCfg.RateLimiterConfig.BurstSize = cfg.Catalog.RateLimitBurst
		clientCfg.Logger = log
		provider = catalog.NewClient(clientCfg)
	} else {
		// Dashboards degrade gracefully without a catalog.
		log.Warn("CATALOG_BASE_URL not set, recommendations will be degraded")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	dashboardHandler := query.NewGetDashboardHandler(
		activityStore, badgeStore, aggregator, badgeEngine, recEngine,
		provider, catalogCache, eventBus,
		query.GetDashboardHandlerConfig{
			CatalogTimeout: cfg.Catalog.DashboardTimeout,
			Logger:         log,
		},
	)

	httpDeps := httpserver.Dependencies{
		CreateSkillHandler:     command.NewCreateSkillHandler(activityStore, eventBus),
		ArchiveSkillHandler:    command.NewArchiveSkillHandler(activityStore, eventBus),
		LogStudySessionHandler: command.NewLogStudySessionHandler(activityStore, eventBus),
		AddJournalEntryHandler: command.NewAddJournalEntryHandler(activityStore, eventBus),
		AddGoalHandler:         command.NewAddGoalHandler(activityStore, eventBus),
		ToggleGoalHandler:      command.NewToggleGoalHandler(activityStore, eventBus),
		GetDashboardHandler:    dashboardHandler,
		GetStudyHistoryHandler: query.NewGetStudyHistoryHandler(activityStore),
		KeyVerifier:            keyVerifier,
		HealthCheckers:         healthCheckers,
		Logger:                 log,
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. BACKGROUND SCHEDULER (in-process catalog refresh)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Scheduler.Enabled && provider != nil && redisCache != nil {
		sched := scheduler.New(scheduler.Config{Logger: log})
		refreshJob := jobs.NewRefreshCatalogJob(provider, redisCache, eventBus, log)
		if err := sched.Register(refreshJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RefreshCatalogInterval)); err != nil {
			return fmt.Errorf("failed to register catalog refresh job: %w", err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() { _ = sched.Stop() }()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.Server.Host
	httpConfig.Port = cfg.Server.Port
	httpConfig.ReadTimeout = cfg.Server.ReadTimeout
	httpConfig.WriteTimeout = cfg.Server.WriteTimeout
	httpConfig.IdleTimeout = cfg.Server.IdleTimeout
	httpConfig.RateLimitPerMinute = cfg.Server.RateLimitPerMinute

	server := httpserver.NewServer(httpConfig, httpDeps)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
		close(errCh)
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("skill progress hub is running", slog.String("address", server.Address()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("service error", slog.String("error", err.Error()))
			return err
		}
	}

	log.Info("starting graceful shutdown...",
		slog.String("timeout", cfg.App.ShutdownTimeout.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", slog.String("error", err.Error()))
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// pingChecker adapts a ping function to the health checker interface.
type pingChecker struct {
	ping func(ctx context.Context) error
}

func (p pingChecker) Health(ctx context.Context) error {
	return p.ping(ctx)
}
