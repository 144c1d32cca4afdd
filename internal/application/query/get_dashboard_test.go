package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/badge"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/progress"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/recommend"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/skill"
	"github.com/skilltrack-hub/skill-progress-hub/internal/infrastructure/persistence/memory"
)

var dashNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// stubProvider is a recommend.Provider returning canned entries or an error.
type stubProvider struct {
	entries []recommend.CatalogEntry
	err     error
	calls   int
}

func (p *stubProvider) FetchCandidates(ctx context.Context, _ []shared.Category) ([]recommend.CatalogEntry, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.entries, nil
}

// stubCache is an in-memory CatalogCache.
type stubCache struct {
	entries []recommend.CatalogEntry
	has     bool
	sets    int
}

func (c *stubCache) Get(ctx context.Context) ([]recommend.CatalogEntry, error) {
	if !c.has {
		return nil, shared.ErrCatalogFetch
	}
	return c.entries, nil
}

func (c *stubCache) Set(ctx context.Context, entries []recommend.CatalogEntry, _ time.Time) error {
	c.entries = entries
	c.has = true
	c.sets++
	return nil
}

type dashboardFixture struct {
	store    *memory.ActivityStore
	provider *stubProvider
	cache    *stubCache
	handler  *GetDashboardHandler
}

func newDashboardFixture(t *testing.T, provider *stubProvider, cache CatalogCache) *dashboardFixture {
	t.Helper()

	store := memory.NewActivityStore()
	aggregator, err := progress.NewAggregator(progress.DefaultConfig())
	require.NoError(t, err)
	badgeEng, err := badge.NewEngine(nil)
	require.NoError(t, err)
	recEng, err := recommend.NewEngine(recommend.DefaultConfig())
	require.NoError(t, err)

	handler := NewGetDashboardHandler(
		store, store, aggregator, badgeEng, recEng,
		provider, cache, nil,
		GetDashboardHandlerConfig{CatalogTimeout: time.Second},
	)
	handler.now = func() time.Time { return dashNow }

	f := &dashboardFixture{store: store, provider: provider, handler: handler}
	if sc, ok := cache.(*stubCache); ok {
		f.cache = sc
	}
	return f
}

func (f *dashboardFixture) seedActivity(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	sk, err := skill.NewSkill("go", "user-1", "Go", "Programming", "", dashNow.AddDate(0, 0, -10))
	require.NoError(t, err)
	require.NoError(t, f.store.CreateSkill(ctx, sk))

	// Three consecutive days, 60 minutes each, ending today.
	for i := 0; i < 3; i++ {
		sess, err := skill.NewStudySession(
			"s"+string(rune('0'+i)), "user-1", "go",
			dashNow.AddDate(0, 0, -i), 60, skill.SourceManual)
		require.NoError(t, err)
		require.NoError(t, f.store.RecordSession(ctx, sess))
	}
}

func catalogEntries() []recommend.CatalogEntry {
	return []recommend.CatalogEntry{
		{Ref: "r1", Title: "Go Patterns", Category: "programming", Position: 0},
		{Ref: "r2", Title: "Piano 101", Category: "music", Position: 1},
	}
}

func TestGetDashboard_AssemblesFromOneSnapshot(t *testing.T) {
	f := newDashboardFixture(t, &stubProvider{entries: catalogEntries()}, nil)
	f.seedActivity(t)

	dto, err := f.handler.Handle(context.Background(), GetDashboardQuery{UserID: "user-1"})
	require.NoError(t, err)

	require.Len(t, dto.Skills, 1)
	sk := dto.Skills[0]
	assert.InDelta(t, 3.0, sk.TotalHours, 1e-9)
	assert.Equal(t, 3, sk.CurrentStreakDays)
	assert.Greater(t, sk.MasteryScore, 0.0)

	assert.False(t, dto.CatalogDegraded)
	assert.NotEmpty(t, dto.Recommendations)
	assert.InDelta(t, 3.0, dto.Totals.TotalHours, 1e-9)
}

func TestGetDashboard_BadgeTransitionsPersist(t *testing.T) {
	f := newDashboardFixture(t, &stubProvider{entries: catalogEntries()}, nil)
	f.seedActivity(t)
	ctx := context.Background()

	dto, err := f.handler.Handle(ctx, GetDashboardQuery{UserID: "user-1"})
	require.NoError(t, err)

	// 3h of activity earns the 1h entry badge, flagged new on first sight.
	var entryBadge *EarnedBadgeDTO
	for i := range dto.Badges {
		if dto.Badges[i].BadgeID == "entry" {
			entryBadge = &dto.Badges[i]
		}
	}
	require.NotNil(t, entryBadge)
	assert.True(t, entryBadge.New)

	// Second read: still earned, no longer new, timestamp unchanged.
	again, err := f.handler.Handle(ctx, GetDashboardQuery{UserID: "user-1"})
	require.NoError(t, err)
	for _, b := range again.Badges {
		if b.BadgeID == "entry" {
			assert.False(t, b.New)
			assert.Equal(t, entryBadge.EarnedAt, b.EarnedAt)
		}
	}
}

func TestGetDashboard_CatalogFailureDegradesNotErrors(t *testing.T) {
	f := newDashboardFixture(t, &stubProvider{err: shared.ErrCatalogFetch}, nil)
	f.seedActivity(t)

	dto, err := f.handler.Handle(context.Background(), GetDashboardQuery{UserID: "user-1"})
	require.NoError(t, err, "catalog unavailability must never fail the dashboard")

	assert.True(t, dto.CatalogDegraded)
	assert.Empty(t, dto.Recommendations)
	assert.NotEmpty(t, dto.Skills, "progress and badges are still served")
	assert.NotEmpty(t, dto.Badges)
}

func TestGetDashboard_CacheServesWhenProviderDown(t *testing.T) {
	cache := &stubCache{entries: catalogEntries(), has: true}
	f := newDashboardFixture(t, &stubProvider{err: shared.ErrCatalogFetch}, cache)
	f.seedActivity(t)

	dto, err := f.handler.Handle(context.Background(), GetDashboardQuery{UserID: "user-1"})
	require.NoError(t, err)

	assert.False(t, dto.CatalogDegraded, "cached catalog avoids degraded mode")
	assert.NotEmpty(t, dto.Recommendations)
	assert.Zero(t, f.provider.calls, "cache hit skips the provider entirely")
}

func TestGetDashboard_ProviderSuccessRefillsCache(t *testing.T) {
	cache := &stubCache{}
	f := newDashboardFixture(t, &stubProvider{entries: catalogEntries()}, cache)
	f.seedActivity(t)

	_, err := f.handler.Handle(context.Background(), GetDashboardQuery{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
}

func TestGetDashboard_EmptyUserStillWorks(t *testing.T) {
	f := newDashboardFixture(t, &stubProvider{entries: catalogEntries()}, nil)

	dto, err := f.handler.Handle(context.Background(), GetDashboardQuery{UserID: "fresh-user"})
	require.NoError(t, err)

	assert.Empty(t, dto.Skills)
	assert.Empty(t, dto.Badges)
	// A brand-new user gets ungated catalog entries in catalog order.
	require.Len(t, dto.Recommendations, 2)
	assert.Equal(t, "r1", dto.Recommendations[0].ResourceRef)
}

func TestGetDashboard_ValidationError(t *testing.T) {
	f := newDashboardFixture(t, &stubProvider{}, nil)

	_, err := f.handler.Handle(context.Background(), GetDashboardQuery{})
	assert.ErrorIs(t, err, shared.ErrValidation)
}
