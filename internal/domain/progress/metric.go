// Package progress converts raw study activity into per-skill progress
// metrics: total hours, calendar streaks, and a recency-weighted mastery
// score. This is a pure domain layer with zero external dependencies:
// metrics are never persisted, they are recomputed from the activity
// snapshot on every read, which rules out staleness bugs by construction.
package progress

import (
	"time"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
)

// Metric is the derived progress state for one skill. It is a pure function
// of the skill's session history and a fixed "now" timestamp.
type Metric struct {
	SkillID shared.SkillID `json:"skill_id"`

	// TotalHours is the plain sum of session durations, undecayed.
	TotalHours float64 `json:"total_hours"`

	// SessionCount is the number of recorded sessions.
	SessionCount int `json:"session_count"`

	// CurrentStreakDays counts consecutive calendar days with at least one
	// session, ending today or yesterday. 0 once the streak gap is exceeded.
	CurrentStreakDays int `json:"current_streak_days"`

	// LongestStreakDays is the best streak across the full history.
	LongestStreakDays int `json:"longest_streak_days"`

	// MasteryScore is the recency-weighted proficiency proxy in [0,1].
	// It grows with practice, saturates toward 1, and decays toward 0 as
	// LastActivityAt recedes into the past.
	MasteryScore float64 `json:"mastery_score"`

	// WeightedHours is the decayed hour sum behind MasteryScore, exposed
	// for explainability in rationale strings.
	WeightedHours float64 `json:"weighted_hours"`

	// LastActivityAt is the start time of the most recent session.
	LastActivityAt time.Time `json:"last_activity_at"`
}

// Profile is the full derived state for one user: per-skill metrics plus
// the cumulative, never-decreasing statistics the badge engine evaluates.
type Profile struct {
	UserID shared.UserID `json:"user_id"`

	// Now is the timestamp the profile was computed against. Identical
	// (history, Now) inputs always produce an identical profile.
	Now time.Time `json:"now"`

	// Metrics holds one entry per skill that has at least one session.
	Metrics map[shared.SkillID]Metric `json:"metrics"`

	// CategoryHours is the user's hour distribution across normalized
	// categories. Input to the recommendation affinity term.
	CategoryHours map[shared.Category]float64 `json:"category_hours"`

	// Cumulative holds raw-history statistics. Unlike MasteryScore these
	// never decrease, so a badge earned from them is never un-earned.
	Cumulative CumulativeStats `json:"cumulative"`
}

// CumulativeStats are monotonically non-decreasing aggregates over the
// user's entire raw history.
type CumulativeStats struct {
	TotalSessions     int     `json:"total_sessions"`
	TotalHours        float64 `json:"total_hours"`
	TotalMinutes      int     `json:"total_minutes"`
	DistinctSkills    int     `json:"distinct_skills"`
	CurrentStreakDays int     `json:"current_streak_days"` // across all skills
	LongestStreakDays int     `json:"longest_streak_days"` // across all skills
	GoalsCompleted    int     `json:"goals_completed"`
	JournalEntries    int     `json:"journal_entries"`
}

// MetricFor returns the metric for a skill, or a zero metric when the
// skill has no sessions yet (mastery 0, streak 0).
func (p *Profile) MetricFor(skillID shared.SkillID) Metric {
	if m, ok := p.Metrics[skillID]; ok {
		return m
	}
	return Metric{SkillID: skillID}
}

// MasteryFor returns the mastery score for a skill, 0 when unpracticed.
func (p *Profile) MasteryFor(skillID shared.SkillID) float64 {
	return p.MetricFor(skillID).MasteryScore
}

// TotalCategoryHours sums the category distribution.
func (p *Profile) TotalCategoryHours() float64 {
	var total float64
	for _, h := range p.CategoryHours {
		total += h
	}
	return total
}
