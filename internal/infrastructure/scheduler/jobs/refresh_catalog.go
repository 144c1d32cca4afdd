// Package jobs contains the scheduled background jobs.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/recommend"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
	"github.com/skilltrack-hub/skill-progress-hub/internal/infrastructure/messaging"
	"github.com/skilltrack-hub/skill-progress-hub/internal/infrastructure/persistence/redis"
)

// RefreshCatalogJob fetches the full catalog from the provider and
// replaces the Redis cache. When the provider is down the job fails
// quietly and the cache keeps serving its last good payload until the
// TTL runs out.
type RefreshCatalogJob struct {
	provider recommend.Provider
	cache    *redis.CatalogCache
	bus      *messaging.EventBus
	logger   *slog.Logger
}

// NewRefreshCatalogJob creates the catalog refresh job.
func NewRefreshCatalogJob(provider recommend.Provider, cache *redis.CatalogCache, bus *messaging.EventBus, logger *slog.Logger) *RefreshCatalogJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshCatalogJob{
		provider: provider,
		cache:    cache,
		bus:      bus,
		logger:   logger.With(slog.String("job", "refresh_catalog")),
	}
}

// Name implements scheduler.Job.
func (j *RefreshCatalogJob) Name() string { return "refresh_catalog" }

// Description implements scheduler.Job.
func (j *RefreshCatalogJob) Description() string {
	return "Fetches the learning-resource catalog and refreshes the Redis cache"
}

// Run implements scheduler.Job.
func (j *RefreshCatalogJob) Run(ctx context.Context) error {
	now := time.Now().UTC()

	entries, err := j.provider.FetchCandidates(ctx, nil)
	if err != nil {
		j.logger.Warn("catalog refresh failed, cache left untouched",
			slog.String("error", err.Error()))
		j.publish(shared.EventCatalogDegraded, now)
		return err
	}

	if err := j.cache.Set(ctx, entries, now); err != nil {
		return err
	}

	j.logger.Info("catalog refreshed", slog.Int("entries", len(entries)))
	j.publish(shared.EventCatalogRefreshed, now)
	return nil
}

func (j *RefreshCatalogJob) publish(eventType shared.EventType, at time.Time) {
	if j.bus == nil {
		return
	}
	_ = j.bus.Publish(shared.NewBaseEvent(eventType, "catalog", at))
}
