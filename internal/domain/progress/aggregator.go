package progress

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/skill"
	"github.com/skilltrack-hub/skill-progress-hub/pkg/timeutil"
)

// Config holds the tunable constants of the aggregation model. The decay
// constant and half-life are deliberately configuration, not hard-coded:
// the product has not fixed the learning-curve parameters yet.
type Config struct {
	// DecayConstant is k in mastery = 1 - e^(-k * weightedHours).
	// Larger k saturates faster. Must be > 0.
	DecayConstant float64

	// HalfLifeDays controls recency weighting: a session's hours count at
	// 50% after this many days, 25% after twice as many, and so on.
	// Nothing is ever fully forgotten. Must be > 0.
	HalfLifeDays float64

	// StreakGapDays is the calendar-day gap that breaks a streak.
	// With the default of 2, a one-day step keeps the streak alive and a
	// gap of two or more days resets it.
	StreakGapDays int
}

// DefaultConfig returns the tuning used when no override is configured.
func DefaultConfig() Config {
	return Config{
		DecayConstant: 0.1,
		HalfLifeDays:  30,
		StreakGapDays: 2,
	}
}

// Validate checks the configuration. Invalid tuning is a startup error.
func (c Config) Validate() error {
	if c.DecayConstant <= 0 {
		return shared.WrapError("progress", "Configure", shared.ErrConfiguration,
			"decay constant must be positive", nil)
	}
	if c.HalfLifeDays <= 0 {
		return shared.WrapError("progress", "Configure", shared.ErrConfiguration,
			"half-life must be positive", nil)
	}
	if c.StreakGapDays < 1 {
		return shared.WrapError("progress", "Configure", shared.ErrConfiguration,
			"streak gap must be at least 1 day", nil)
	}
	return nil
}

// Aggregator derives progress metrics from activity snapshots. It holds no
// mutable state: Aggregate is a pure function of (snapshot, now, config),
// bit-for-bit reproducible for identical inputs.
type Aggregator struct {
	cfg Config
}

// NewAggregator creates an aggregator, validating the configuration.
func NewAggregator(cfg Config) (*Aggregator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Aggregator{cfg: cfg}, nil
}

// Aggregate computes the full profile for one user from a snapshot.
// Sessions inside the snapshot are already in canonical order (StartedAt
// ascending, insertion order as tie-break).
func (a *Aggregator) Aggregate(snap *skill.Snapshot, now time.Time) (*Profile, error) {
	if snap == nil {
		return nil, errors.New("progress: snapshot is nil")
	}

	profile := &Profile{
		UserID:        snap.UserID,
		Now:           now,
		Metrics:       make(map[shared.SkillID]Metric),
		CategoryHours: make(map[shared.Category]float64),
	}

	categoryOf := make(map[shared.SkillID]shared.Category, len(snap.Skills))
	for _, sk := range snap.Skills {
		categoryOf[sk.ID] = sk.Category.Normalize()
	}

	// Skills are visited in sorted ID order: the per-category hour sums
	// feed recommendation scores, and float addition is order-sensitive,
	// so a fixed order keeps the profile reproducible.
	grouped := snap.SessionsBySkill()
	skillIDs := make([]string, 0, len(grouped))
	for skillID := range grouped {
		skillIDs = append(skillIDs, string(skillID))
	}
	sort.Strings(skillIDs)

	for _, id := range skillIDs {
		skillID := shared.SkillID(id)
		metric := a.aggregateSkill(skillID, grouped[skillID], now)
		profile.Metrics[skillID] = metric

		if cat, ok := categoryOf[skillID]; ok {
			profile.CategoryHours[cat] += metric.TotalHours
		}
	}

	profile.Cumulative = a.cumulativeStats(snap, now)
	return profile, nil
}

// aggregateSkill computes the metric for one skill from its ordered sessions.
func (a *Aggregator) aggregateSkill(skillID shared.SkillID, sessions []skill.StudySession, now time.Time) Metric {
	metric := Metric{SkillID: skillID}
	if len(sessions) == 0 {
		return metric
	}

	var weighted float64
	for _, sess := range sessions {
		hours := sess.Hours()
		metric.TotalHours += hours
		metric.SessionCount++

		ageDays := timeutil.HoursSince(sess.StartedAt, now) / 24.0
		weighted += hours * math.Exp2(-ageDays/a.cfg.HalfLifeDays)

		if sess.StartedAt.After(metric.LastActivityAt) {
			metric.LastActivityAt = sess.StartedAt
		}
	}

	metric.WeightedHours = weighted
	metric.MasteryScore = saturate(a.cfg.DecayConstant * weighted)
	metric.CurrentStreakDays, metric.LongestStreakDays = a.streaks(activeDays(sessions), now)
	return metric
}

// cumulativeStats computes the never-decreasing raw-history aggregates.
func (a *Aggregator) cumulativeStats(snap *skill.Snapshot, now time.Time) CumulativeStats {
	stats := CumulativeStats{
		TotalSessions:  len(snap.Sessions),
		DistinctSkills: snap.DistinctSkillsPracticed(),
		JournalEntries: len(snap.Journal),
	}
	for _, sess := range snap.Sessions {
		stats.TotalMinutes += int(sess.DurationMinutes)
	}
	stats.TotalHours = float64(stats.TotalMinutes) / 60.0
	for _, goal := range snap.Goals {
		if goal.Completed {
			stats.GoalsCompleted++
		}
	}
	stats.CurrentStreakDays, stats.LongestStreakDays = a.streaks(activeDays(snap.Sessions), now)
	return stats
}

// streaks computes (current, longest) streaks from the ordered distinct
// activity days. The current streak counts only if the last active day is
// within the configured gap of today; otherwise it has broken to 0.
func (a *Aggregator) streaks(days []time.Time, now time.Time) (current, longest int) {
	if len(days) == 0 {
		return 0, 0
	}

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		gap := timeutil.DaysBetween(days[i-1], days[i])
		if gap < a.cfg.StreakGapDays {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	lastGap := timeutil.DaysBetween(days[len(days)-1], now)
	if lastGap >= 0 && lastGap < a.cfg.StreakGapDays {
		current = run
	}
	return current, longest
}

// activeDays returns the distinct calendar days with at least one session,
// in ascending order. Sessions are already sorted, so days come out sorted.
func activeDays(sessions []skill.StudySession) []time.Time {
	days := make([]time.Time, 0, len(sessions))
	for _, sess := range sessions {
		day := timeutil.StartOfDay(sess.StartedAt)
		if len(days) == 0 || !days[len(days)-1].Equal(day) {
			days = append(days, day)
		}
	}
	return days
}

// saturate maps a non-negative weighted sum into [0,1): 1 - e^(-x).
// Monotonic and bounded, so scores stay comparable across skills no matter
// how many absolute hours were invested.
func saturate(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return 1 - math.Exp(-x)
}
