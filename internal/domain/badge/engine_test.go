package badge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/progress"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
)

var evalNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestNewEngine_RejectsUnknownCriterion(t *testing.T) {
	_, err := NewEngine([]Definition{
		{
			ID:        "bogus",
			Name:      "Bogus",
			Criterion: Criterion{Type: "lunar_phase", Threshold: 1},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConfiguration)
}

func TestNewEngine_RejectsNonPositiveThreshold(t *testing.T) {
	_, err := NewEngine([]Definition{
		{
			ID:        "zero",
			Name:      "Zero",
			Criterion: Criterion{Type: CriterionTotalHours, Threshold: 0},
		},
	})
	assert.ErrorIs(t, err, shared.ErrConfiguration)
}

func TestNewEngine_RejectsDuplicateIDs(t *testing.T) {
	def := Definition{
		ID:        "dup",
		Name:      "Dup",
		Criterion: Criterion{Type: CriterionTotalHours, Threshold: 1},
	}
	_, err := NewEngine([]Definition{def, def})
	assert.ErrorIs(t, err, shared.ErrConfiguration)
}

func TestNewEngine_DefaultLadderIsValid(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, engine.Definitions())
}

func TestEvaluate_HourLadder(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	stats := progress.CumulativeStats{TotalHours: 16, TotalSessions: 20}
	newly := engine.Evaluate(nil, stats, evalNow)

	ids := make([]string, 0, len(newly))
	for _, e := range newly {
		ids = append(ids, e.Definition.ID)
	}
	assert.Contains(t, ids, "entry")
	assert.Contains(t, ids, "beginner")
	assert.Contains(t, ids, "intermediate")
	assert.NotContains(t, ids, "proficient")
}

func TestEvaluate_IdempotentForEarnedBadges(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	stats := progress.CumulativeStats{TotalHours: 2}

	first := engine.Evaluate(nil, stats, evalNow)
	require.Len(t, first, 1)
	assert.Equal(t, "entry", first[0].Definition.ID)

	earned := map[string]time.Time{"entry": evalNow}
	second := engine.Evaluate(earned, stats, evalNow.Add(time.Hour))
	assert.Empty(t, second, "re-evaluating an earned badge is a no-op")
}

func TestEvaluate_NeverRevokes(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	// Badge was earned from a 7-day streak that has since broken.
	// Cumulative history keeps LongestStreakDays, so the badge stays
	// satisfied - and even if it did not, Evaluate only ever adds.
	earned := map[string]time.Time{"week-streak": evalNow.AddDate(0, 0, -30)}
	stats := progress.CumulativeStats{CurrentStreakDays: 0, LongestStreakDays: 7}

	newly := engine.Evaluate(earned, stats, evalNow)
	all := engine.Collect(earned, newly)

	ids := make([]string, 0, len(all))
	for _, e := range all {
		ids = append(ids, e.Definition.ID)
	}
	assert.Contains(t, ids, "week-streak")
}

func TestEvaluate_StreakUsesLongestAsWell(t *testing.T) {
	engine, err := NewEngine([]Definition{
		{
			ID:        "week-streak",
			Name:      "Week Streak",
			Criterion: Criterion{Type: CriterionStreakDays, Threshold: 7},
		},
	})
	require.NoError(t, err)

	stats := progress.CumulativeStats{CurrentStreakDays: 0, LongestStreakDays: 9}
	newly := engine.Evaluate(nil, stats, evalNow)
	require.Len(t, newly, 1)
}

func TestEvaluate_DistinctSkillsAndGoals(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	stats := progress.CumulativeStats{DistinctSkills: 5, GoalsCompleted: 10}
	newly := engine.Evaluate(nil, stats, evalNow)

	ids := make([]string, 0, len(newly))
	for _, e := range newly {
		ids = append(ids, e.Definition.ID)
	}
	assert.Contains(t, ids, "explorer")
	assert.Contains(t, ids, "goal-getter")
}

func TestCollect_PreservesDeclarationOrder(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	earned := map[string]time.Time{
		"beginner": evalNow.AddDate(0, 0, -2),
		"entry":    evalNow.AddDate(0, 0, -5),
	}
	all := engine.Collect(earned, nil)
	require.Len(t, all, 2)
	assert.Equal(t, "entry", all[0].Definition.ID)
	assert.Equal(t, "beginner", all[1].Definition.ID)
}
