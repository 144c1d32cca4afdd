// Package query contains read operations (CQRS - Queries). The dashboard
// query is the session orchestrator: it takes one snapshot of the user's
// activity log and derives everything - progress metrics, badge state,
// recommendations - from that single consistent view.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/badge"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/progress"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/recommend"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/skill"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// ══════════════════════════════════════════════════════════════════════════════

// CatalogCache is the read side of the cached catalog. Implemented by
// the Redis catalog cache; a nil cache simply means every dashboard
// fetch goes to the provider.
type CatalogCache interface {
	Get(ctx context.Context) ([]recommend.CatalogEntry, error)
	Set(ctx context.Context, entries []recommend.CatalogEntry, fetchedAt time.Time) error
}

// GetDashboardQuery contains the parameters for the dashboard read.
type GetDashboardQuery struct {
	// UserID is the authenticated user.
	UserID shared.UserID

	// MaxRecommendations caps the ranked list (default 5).
	MaxRecommendations int
}

// Validate validates the query.
func (q GetDashboardQuery) Validate() error {
	if !q.UserID.IsValid() {
		return errors.New("get_dashboard: user_id is required")
	}
	return nil
}

// SkillProgressDTO is the per-skill progress block of the dashboard.
type SkillProgressDTO struct {
	SkillID           shared.SkillID  `json:"skill_id"`
	Name              string          `json:"name"`
	Category          shared.Category `json:"category"`
	Archived          bool            `json:"archived"`
	TotalHours        float64         `json:"total_hours"`
	SessionCount      int             `json:"session_count"`
	CurrentStreakDays int             `json:"current_streak_days"`
	LongestStreakDays int             `json:"longest_streak_days"`
	MasteryScore      float64         `json:"mastery_score"`
	LastActivityAt    *time.Time      `json:"last_activity_at,omitempty"`
}

// EarnedBadgeDTO is one earned badge on the dashboard.
type EarnedBadgeDTO struct {
	BadgeID     string    `json:"badge_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earned_at"`
	New         bool      `json:"new"` // earned during this evaluation
}

// GoalDTO is one goal on the dashboard.
type GoalDTO struct {
	GoalID      string          `json:"goal_id"`
	SkillID     *shared.SkillID `json:"skill_id,omitempty"`
	Text        string          `json:"text"`
	TargetDate  *time.Time      `json:"target_date,omitempty"`
	Completed   bool            `json:"completed"`
	Overdue     bool            `json:"overdue"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// DashboardDTO is the assembled dashboard.
type DashboardDTO struct {
	UserID      shared.UserID `json:"user_id"`
	GeneratedAt time.Time     `json:"generated_at"`

	// Skills holds per-skill progress in creation order.
	Skills []SkillProgressDTO `json:"skills"`

	// CategoryHours is the user's hour distribution by category.
	CategoryHours map[shared.Category]float64 `json:"category_hours"`

	// Totals are the cumulative statistics the badge ladder reads.
	Totals progress.CumulativeStats `json:"totals"`

	// Badges lists all earned badges in ladder order.
	Badges []EarnedBadgeDTO `json:"badges"`

	// Goals lists the user's goals in creation order.
	Goals []GoalDTO `json:"goals"`

	// Recommendations is the ranked resource list. Empty (never nil in
	// JSON terms, but possibly zero-length) when the catalog is degraded.
	Recommendations []recommend.Recommendation `json:"recommendations"`

	// CatalogDegraded is set when the catalog could not be reached and
	// no cached payload existed. Everything else on the dashboard is
	// still complete and current.
	CatalogDegraded bool `json:"catalog_degraded"`
}

// GetDashboardHandler orchestrates the dashboard read.
type GetDashboardHandler struct {
	activity   skill.ActivityStore
	badges     skill.BadgeStore
	aggregator *progress.Aggregator
	badgeEng   *badge.Engine
	recEng     *recommend.Engine
	provider   recommend.Provider
	cache      CatalogCache
	publisher  shared.EventPublisher
	logger     *slog.Logger

	catalogTimeout time.Duration
	now            func() time.Time
}

// GetDashboardHandlerConfig contains configuration for the handler.
type GetDashboardHandlerConfig struct {
	// CatalogTimeout bounds the provider call. The snapshot and derived
	// metrics never wait longer than this on the collaborator.
	CatalogTimeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultGetDashboardHandlerConfig returns sensible defaults.
func DefaultGetDashboardHandlerConfig() GetDashboardHandlerConfig {
	return GetDashboardHandlerConfig{CatalogTimeout: 3 * time.Second}
}

// NewGetDashboardHandler creates a new GetDashboardHandler.
func NewGetDashboardHandler(
	activity skill.ActivityStore,
	badges skill.BadgeStore,
	aggregator *progress.Aggregator,
	badgeEng *badge.Engine,
	recEng *recommend.Engine,
	provider recommend.Provider,
	cache CatalogCache,
	publisher shared.EventPublisher,
	config GetDashboardHandlerConfig,
) *GetDashboardHandler {
	if config.CatalogTimeout <= 0 {
		config.CatalogTimeout = DefaultGetDashboardHandlerConfig().CatalogTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &GetDashboardHandler{
		activity:       activity,
		badges:         badges,
		aggregator:     aggregator,
		badgeEng:       badgeEng,
		recEng:         recEng,
		provider:       provider,
		cache:          cache,
		publisher:      publisher,
		logger:         logger.With(slog.String("component", "dashboard")),
		catalogTimeout: config.CatalogTimeout,
		now:            time.Now,
	}
}

// Handle assembles the dashboard. Store and configuration failures are
// returned as errors; catalog unavailability is absorbed into a
// degraded result instead.
func (h *GetDashboardHandler) Handle(ctx context.Context, q GetDashboardQuery) (*DashboardDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.NewDomainError("dashboard", "Get", shared.ErrValidation, err.Error())
	}
	maxRecs := q.MaxRecommendations
	if maxRecs <= 0 {
		maxRecs = 5
	}

	now := h.now().UTC()

	// One snapshot; every derived figure below reads from it and nothing
	// else, so the dashboard can never mix two points in time.
	snap, err := h.activity.Snapshot(ctx, q.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("get_dashboard: snapshot: %w", err)
	}

	profile, err := h.aggregator.Aggregate(snap, now)
	if err != nil {
		return nil, fmt.Errorf("get_dashboard: aggregate: %w", err)
	}

	badgeDTOs, err := h.evaluateBadges(ctx, q.UserID, profile, now)
	if err != nil {
		return nil, err
	}

	recs, degraded := h.recommendations(ctx, profile, snap, maxRecs)

	dto := &DashboardDTO{
		UserID:          q.UserID,
		GeneratedAt:     now,
		Skills:          skillProgress(snap, profile),
		CategoryHours:   profile.CategoryHours,
		Totals:          profile.Cumulative,
		Badges:          badgeDTOs,
		Goals:           goalDTOs(snap, now),
		Recommendations: recs,
		CatalogDegraded: degraded,
	}
	return dto, nil
}

// evaluateBadges runs the badge engine against the profile, persists any
// new transitions, and returns the full earned list in ladder order.
func (h *GetDashboardHandler) evaluateBadges(ctx context.Context, userID shared.UserID, profile *progress.Profile, now time.Time) ([]EarnedBadgeDTO, error) {
	earned, err := h.badges.EarnedBadgeIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get_dashboard: earned badges: %w", err)
	}

	newly := h.badgeEng.Evaluate(earned, profile.Cumulative, now)
	newIDs := make(map[string]struct{}, len(newly))
	for _, n := range newly {
		if err := h.badges.MarkEarned(ctx, userID, n.Definition.ID, n.EarnedAt); err != nil {
			return nil, fmt.Errorf("get_dashboard: mark badge: %w", err)
		}
		newIDs[n.Definition.ID] = struct{}{}

		if h.publisher != nil {
			_ = h.publisher.Publish(shared.BadgeEarnedEvent{
				BaseEvent: shared.NewBaseEvent(shared.EventBadgeEarned, string(userID), n.EarnedAt),
				UserID:    userID,
				BadgeID:   n.Definition.ID,
				BadgeName: n.Definition.Name,
			})
		}
	}

	all := h.badgeEng.Collect(earned, newly)
	dtos := make([]EarnedBadgeDTO, 0, len(all))
	for _, e := range all {
		_, isNew := newIDs[e.Definition.ID]
		dtos = append(dtos, EarnedBadgeDTO{
			BadgeID:     e.Definition.ID,
			Name:        e.Definition.Name,
			Description: e.Definition.Description,
			EarnedAt:    e.EarnedAt,
			New:         isNew,
		})
	}
	return dtos, nil
}

// recommendations fetches the catalog (cache first, then the provider
// under a timeout) and ranks it. Any catalog failure degrades; it never
// fails the dashboard.
func (h *GetDashboardHandler) recommendations(ctx context.Context, profile *progress.Profile, snap *skill.Snapshot, maxRecs int) ([]recommend.Recommendation, bool) {
	entries, err := h.fetchCatalog(ctx)
	if err != nil {
		if !shared.IsCatalogUnavailable(err) {
			// Unexpected shape; still degrade, but make noise.
			h.logger.Error("catalog fetch failed with non-catalog error",
				slog.String("error", err.Error()))
		} else {
			h.logger.Warn("catalog unavailable, serving degraded dashboard",
				slog.String("error", err.Error()))
		}
		if h.publisher != nil {
			_ = h.publisher.Publish(shared.NewBaseEvent(shared.EventCatalogDegraded, string(profile.UserID), profile.Now))
		}
		return nil, true
	}

	recs := h.recEng.Recommend(profile, snap.Skills, snap.ConsumedResourceRefs(), entries, maxRecs)
	return recs, false
}

// fetchCatalog tries the cache, then the provider. A provider success
// refills the cache best-effort.
func (h *GetDashboardHandler) fetchCatalog(ctx context.Context) ([]recommend.CatalogEntry, error) {
	if h.cache != nil {
		if entries, err := h.cache.Get(ctx); err == nil {
			return entries, nil
		}
	}

	if h.provider == nil {
		return nil, shared.ErrCatalogFetch
	}

	fetchCtx, cancel := context.WithTimeout(ctx, h.catalogTimeout)
	defer cancel()

	entries, err := h.provider.FetchCandidates(fetchCtx, nil)
	if err != nil {
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			return nil, shared.ErrCatalogTimeout
		}
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, entries, h.now().UTC()); err != nil {
			h.logger.Warn("catalog cache refill failed", slog.String("error", err.Error()))
		}
	}
	return entries, nil
}

// skillProgress joins the snapshot's skills with the derived metrics.
func skillProgress(snap *skill.Snapshot, profile *progress.Profile) []SkillProgressDTO {
	dtos := make([]SkillProgressDTO, 0, len(snap.Skills))
	for _, sk := range snap.Skills {
		m := profile.MetricFor(sk.ID)
		dto := SkillProgressDTO{
			SkillID:           sk.ID,
			Name:              sk.Name,
			Category:          sk.Category,
			Archived:          sk.IsArchived(),
			TotalHours:        m.TotalHours,
			SessionCount:      m.SessionCount,
			CurrentStreakDays: m.CurrentStreakDays,
			LongestStreakDays: m.LongestStreakDays,
			MasteryScore:      m.MasteryScore,
		}
		if !m.LastActivityAt.IsZero() {
			at := m.LastActivityAt
			dto.LastActivityAt = &at
		}
		dtos = append(dtos, dto)
	}
	return dtos
}

func goalDTOs(snap *skill.Snapshot, now time.Time) []GoalDTO {
	dtos := make([]GoalDTO, 0, len(snap.Goals))
	for _, g := range snap.Goals {
		dtos = append(dtos, GoalDTO{
			GoalID:      g.ID,
			SkillID:     g.SkillID,
			Text:        g.Text,
			TargetDate:  g.TargetDate,
			Completed:   g.Completed,
			Overdue:     g.IsOverdue(now),
			CompletedAt: g.CompletedAt,
		})
	}
	return dtos
}
