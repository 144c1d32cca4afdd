package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadPolicy_EmptyPathUsesDefaults(t *testing.T) {
	p, err := LoadPolicy("")
	require.NoError(t, err)

	cfg := p.ProgressConfig()
	assert.Equal(t, 0.1, cfg.DecayConstant)
	assert.Equal(t, 30.0, cfg.HalfLifeDays)

	rec := p.RecommendConfig()
	assert.Equal(t, 0.4, rec.PrerequisiteThreshold)
	assert.Nil(t, p.BadgeDefinitions())
}

func TestLoadPolicy_OverridesApply(t *testing.T) {
	path := writePolicy(t, `
progress:
  decay_constant: 0.25
  streak_gap_days: 3
recommend:
  weights:
    affinity: 2.0
    gap_fill: 1.0
    freshness: 0.1
  prerequisite_threshold: 0.6
badges:
  - id: marathon
    name: Marathon
    description: Log 1000 total study hours
    criterion:
      type: total_hours
      threshold: 1000
`)

	p, err := LoadPolicy(path)
	require.NoError(t, err)

	cfg := p.ProgressConfig()
	assert.Equal(t, 0.25, cfg.DecayConstant)
	assert.Equal(t, 30.0, cfg.HalfLifeDays, "absent fields keep defaults")
	assert.Equal(t, 3, cfg.StreakGapDays)

	rec := p.RecommendConfig()
	assert.Equal(t, 2.0, rec.Weights.Affinity)
	assert.Equal(t, 0.6, rec.PrerequisiteThreshold)

	require.Len(t, p.BadgeDefinitions(), 1)
	assert.Equal(t, "marathon", p.BadgeDefinitions()[0].ID)
}

func TestLoadPolicy_FailFast(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPolicy(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, shared.ErrConfiguration)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writePolicy(t, "badges: [not closed")
		_, err := LoadPolicy(path)
		assert.ErrorIs(t, err, shared.ErrConfiguration)
	})

	t.Run("explicit zero decay rejected", func(t *testing.T) {
		path := writePolicy(t, "progress:\n  decay_constant: 0\n")
		_, err := LoadPolicy(path)
		assert.ErrorIs(t, err, shared.ErrConfiguration)
	})

	t.Run("unknown badge criterion rejected", func(t *testing.T) {
		path := writePolicy(t, `
badges:
  - id: weird
    name: Weird
    criterion:
      type: vibes
      threshold: 1
`)
		_, err := LoadPolicy(path)
		assert.ErrorIs(t, err, shared.ErrConfiguration)
	})
}
