package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/skill"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestAggregator(t *testing.T) *Aggregator {
	t.Helper()
	agg, err := NewAggregator(DefaultConfig())
	require.NoError(t, err)
	return agg
}

func session(t *testing.T, id string, skillID shared.SkillID, startedAt time.Time, minutes int) skill.StudySession {
	t.Helper()
	sess, err := skill.NewStudySession(id, "user-1", skillID, startedAt, shared.Minutes(minutes), skill.SourceManual)
	require.NoError(t, err)
	return *sess
}

func snapshotOf(skills []skill.Skill, sessions []skill.StudySession) *skill.Snapshot {
	return skill.NewSnapshot("user-1", testNow, skills, sessions, nil, nil)
}

func TestAggregate_EmptySnapshot(t *testing.T) {
	agg := newTestAggregator(t)

	profile, err := agg.Aggregate(snapshotOf(nil, nil), testNow)
	require.NoError(t, err)

	assert.Empty(t, profile.Metrics)
	assert.Empty(t, profile.CategoryHours)
	assert.Equal(t, 0, profile.Cumulative.TotalSessions)
	assert.Equal(t, 0, profile.Cumulative.CurrentStreakDays)
}

func TestAggregate_ThreeConsecutiveDays(t *testing.T) {
	agg := newTestAggregator(t)

	// Three 60-minute sessions on consecutive days ending today.
	sessions := []skill.StudySession{
		session(t, "s1", "python", testNow.AddDate(0, 0, -2), 60),
		session(t, "s2", "python", testNow.AddDate(0, 0, -1), 60),
		session(t, "s3", "python", testNow, 60),
	}

	profile, err := agg.Aggregate(snapshotOf(nil, sessions), testNow)
	require.NoError(t, err)

	metric := profile.MetricFor("python")
	assert.InDelta(t, 3.0, metric.TotalHours, 1e-9)
	assert.Equal(t, 3, metric.CurrentStreakDays)
	assert.Equal(t, 3, metric.LongestStreakDays)
	assert.Greater(t, metric.MasteryScore, 0.0)
	assert.Equal(t, testNow, metric.LastActivityAt)
}

func TestAggregate_StreakBreaksAfterGap(t *testing.T) {
	agg := newTestAggregator(t)

	sessions := []skill.StudySession{
		session(t, "s1", "go", testNow.AddDate(0, 0, -10), 30),
		session(t, "s2", "go", testNow.AddDate(0, 0, -9), 30),
		session(t, "s3", "go", testNow.AddDate(0, 0, -8), 30),
		// gap of 8 days
	}

	profile, err := agg.Aggregate(snapshotOf(nil, sessions), testNow)
	require.NoError(t, err)

	metric := profile.MetricFor("go")
	assert.Equal(t, 0, metric.CurrentStreakDays, "streak must break after a gap")
	assert.Equal(t, 3, metric.LongestStreakDays, "longest streak is preserved")
}

func TestAggregate_StreakEndingYesterdayStillCounts(t *testing.T) {
	agg := newTestAggregator(t)

	sessions := []skill.StudySession{
		session(t, "s1", "go", testNow.AddDate(0, 0, -2), 30),
		session(t, "s2", "go", testNow.AddDate(0, 0, -1), 30),
	}

	profile, err := agg.Aggregate(snapshotOf(nil, sessions), testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, profile.MetricFor("go").CurrentStreakDays)
}

func TestAggregate_MultipleSessionsSameDayCountOnce(t *testing.T) {
	agg := newTestAggregator(t)

	sessions := []skill.StudySession{
		session(t, "s1", "go", testNow.Add(-4*time.Hour), 30),
		session(t, "s2", "go", testNow.Add(-2*time.Hour), 30),
		session(t, "s3", "go", testNow.Add(-1*time.Hour), 30),
	}

	profile, err := agg.Aggregate(snapshotOf(nil, sessions), testNow)
	require.NoError(t, err)

	metric := profile.MetricFor("go")
	assert.Equal(t, 1, metric.CurrentStreakDays)
	assert.Equal(t, 3, metric.SessionCount)
}

func TestAggregate_MasteryBounds(t *testing.T) {
	agg := newTestAggregator(t)

	// A huge amount of recent practice saturates toward 1 without crossing it.
	var sessions []skill.StudySession
	for i := 0; i < 200; i++ {
		sessions = append(sessions, session(t, "s", "go", testNow.Add(-time.Duration(i)*time.Hour), 600))
	}

	profile, err := agg.Aggregate(snapshotOf(nil, sessions), testNow)
	require.NoError(t, err)

	score := profile.MasteryFor("go")
	assert.Greater(t, score, 0.99)
	assert.LessOrEqual(t, score, 1.0)
}

func TestAggregate_MasteryDecaysWithAge(t *testing.T) {
	agg := newTestAggregator(t)

	recent := snapshotOf(nil, []skill.StudySession{
		session(t, "s1", "go", testNow.AddDate(0, 0, -1), 120),
	})
	stale := snapshotOf(nil, []skill.StudySession{
		session(t, "s1", "go", testNow.AddDate(-2, 0, 0), 120),
	})

	recentProfile, err := agg.Aggregate(recent, testNow)
	require.NoError(t, err)
	staleProfile, err := agg.Aggregate(stale, testNow)
	require.NoError(t, err)

	assert.Greater(t, recentProfile.MasteryFor("go"), staleProfile.MasteryFor("go"))
	assert.Less(t, staleProfile.MasteryFor("go"), 0.01, "mastery approaches 0 as activity recedes")
}

func TestAggregate_MasteryMonotonicUnderAppend(t *testing.T) {
	agg := newTestAggregator(t)

	base := []skill.StudySession{
		session(t, "s1", "go", testNow.AddDate(0, 0, -3), 60),
		session(t, "s2", "go", testNow.AddDate(0, 0, -2), 45),
	}
	extended := append(append([]skill.StudySession{}, base...),
		session(t, "s3", "go", testNow.AddDate(0, 0, -1), 30))

	baseProfile, err := agg.Aggregate(snapshotOf(nil, base), testNow)
	require.NoError(t, err)
	extProfile, err := agg.Aggregate(snapshotOf(nil, extended), testNow)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, extProfile.MasteryFor("go"), baseProfile.MasteryFor("go"))
	assert.Greater(t, extProfile.MetricFor("go").TotalHours, baseProfile.MetricFor("go").TotalHours)
}

func TestAggregate_OrderInsensitiveForDistinctTimestamps(t *testing.T) {
	agg := newTestAggregator(t)

	a := session(t, "s1", "go", testNow.AddDate(0, 0, -2), 60)
	b := session(t, "s2", "go", testNow.AddDate(0, 0, -1), 45)
	c := session(t, "s3", "go", testNow, 30)

	p1, err := agg.Aggregate(snapshotOf(nil, []skill.StudySession{a, b, c}), testNow)
	require.NoError(t, err)
	p2, err := agg.Aggregate(snapshotOf(nil, []skill.StudySession{c, a, b}), testNow)
	require.NoError(t, err)

	assert.Equal(t, p1.MetricFor("go"), p2.MetricFor("go"))
}

func TestAggregate_Deterministic(t *testing.T) {
	agg := newTestAggregator(t)

	// Many skills sharing categories, so the category sums accumulate
	// several float terms each. The sums must come out bit-identical on
	// every run regardless of map iteration order.
	var skills []skill.Skill
	var sessions []skill.StudySession
	categories := []shared.Category{"Programming", "Music", "Design"}
	for i := 0; i < 12; i++ {
		id := shared.SkillID(string(rune('a' + i)))
		sk, err := skill.NewSkill(id, "user-1", string(id), categories[i%len(categories)], "", testNow.AddDate(0, 0, -30))
		require.NoError(t, err)
		skills = append(skills, *sk)
		sessions = append(sessions, session(t, "s"+string(id), id, testNow.AddDate(0, 0, -i), 10*(i+1)))
	}

	first, err := agg.Aggregate(snapshotOf(skills, sessions), testNow)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		p, err := agg.Aggregate(snapshotOf(skills, sessions), testNow)
		require.NoError(t, err)
		assert.Equal(t, first.Metrics, p.Metrics)
		assert.Equal(t, first.CategoryHours, p.CategoryHours)
		assert.Equal(t, first.Cumulative, p.Cumulative)
	}
}

func TestAggregate_CategoryHours(t *testing.T) {
	agg := newTestAggregator(t)

	goSkill, err := skill.NewSkill("go", "user-1", "Go", "Programming", "", testNow.AddDate(0, 0, -30))
	require.NoError(t, err)
	pianoSkill, err := skill.NewSkill("piano", "user-1", "Piano", "Music", "", testNow.AddDate(0, 0, -30))
	require.NoError(t, err)

	sessions := []skill.StudySession{
		session(t, "s1", "go", testNow.AddDate(0, 0, -1), 90),
		session(t, "s2", "piano", testNow.AddDate(0, 0, -1), 30),
	}

	profile, err := agg.Aggregate(snapshotOf([]skill.Skill{*goSkill, *pianoSkill}, sessions), testNow)
	require.NoError(t, err)

	assert.InDelta(t, 1.5, profile.CategoryHours["programming"], 1e-9)
	assert.InDelta(t, 0.5, profile.CategoryHours["music"], 1e-9)
}

func TestAggregate_CumulativeStats(t *testing.T) {
	agg := newTestAggregator(t)

	goalSkill := shared.SkillID("go")
	goal, err := skill.NewGoalEntry("g1", "user-1", &goalSkill, "finish the book", nil, testNow.AddDate(0, 0, -2))
	require.NoError(t, err)
	require.NoError(t, goal.Complete(testNow.AddDate(0, 0, -1)))

	snap := skill.NewSnapshot("user-1", testNow, nil, []skill.StudySession{
		session(t, "s1", "go", testNow.AddDate(0, 0, -1), 60),
		session(t, "s2", "python", testNow, 30),
	}, nil, []skill.GoalEntry{*goal})

	profile, err := agg.Aggregate(snap, testNow)
	require.NoError(t, err)

	assert.Equal(t, 2, profile.Cumulative.TotalSessions)
	assert.Equal(t, 90, profile.Cumulative.TotalMinutes)
	assert.Equal(t, 2, profile.Cumulative.DistinctSkills)
	assert.Equal(t, 1, profile.Cumulative.GoalsCompleted)
	assert.Equal(t, 2, profile.Cumulative.CurrentStreakDays)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults are valid", DefaultConfig(), false},
		{"zero decay constant", Config{DecayConstant: 0, HalfLifeDays: 30, StreakGapDays: 2}, true},
		{"negative half-life", Config{DecayConstant: 0.1, HalfLifeDays: -1, StreakGapDays: 2}, true},
		{"zero streak gap", Config{DecayConstant: 0.1, HalfLifeDays: 30, StreakGapDays: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
