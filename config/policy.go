package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/badge"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/progress"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/recommend"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE POLICY
// ══════════════════════════════════════════════════════════════════════════════

// Policy is the tunable half of the engines: the aggregation constants,
// the recommendation weights, and the badge ladder. It lives in a YAML
// file so product can retune without a deploy. Absent sections fall back
// to the built-in defaults; an invalid section is a startup error.
type Policy struct {
	Progress  progressPolicy     `yaml:"progress"`
	Recommend *recommend.Config  `yaml:"recommend"`
	Badges    []badge.Definition `yaml:"badges"`
}

// progressPolicy mirrors progress.Config with YAML field names. Pointer
// fields distinguish "absent" from "explicit zero" - an explicit zero is
// invalid and should fail, not silently fall back.
type progressPolicy struct {
	DecayConstant *float64 `yaml:"decay_constant"`
	HalfLifeDays  *float64 `yaml:"half_life_days"`
	StreakGapDays *int     `yaml:"streak_gap_days"`
}

// LoadPolicy reads the policy file. An empty path yields the built-in
// defaults. A missing or malformed file is a configuration error.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return &Policy{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, shared.WrapError("config", "LoadPolicy", shared.ErrConfiguration,
			fmt.Sprintf("cannot read policy file %s", path), err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, shared.WrapError("config", "LoadPolicy", shared.ErrConfiguration,
			fmt.Sprintf("cannot parse policy file %s", path), err)
	}

	// Validate eagerly so a bad policy stops the process at startup.
	if _, err := progress.NewAggregator(p.ProgressConfig()); err != nil {
		return nil, err
	}
	if _, err := recommend.NewEngine(p.RecommendConfig()); err != nil {
		return nil, err
	}
	if _, err := badge.NewEngine(p.Badges); err != nil {
		return nil, err
	}

	return &p, nil
}

// ProgressConfig resolves the aggregation tuning, defaulting absent fields.
func (p *Policy) ProgressConfig() progress.Config {
	cfg := progress.DefaultConfig()
	if p.Progress.DecayConstant != nil {
		cfg.DecayConstant = *p.Progress.DecayConstant
	}
	if p.Progress.HalfLifeDays != nil {
		cfg.HalfLifeDays = *p.Progress.HalfLifeDays
	}
	if p.Progress.StreakGapDays != nil {
		cfg.StreakGapDays = *p.Progress.StreakGapDays
	}
	return cfg
}

// RecommendConfig resolves the recommendation tuning.
func (p *Policy) RecommendConfig() recommend.Config {
	if p.Recommend == nil {
		return recommend.DefaultConfig()
	}
	return *p.Recommend
}

// BadgeDefinitions returns the configured ladder; nil means the built-in
// ladder (the badge engine substitutes it).
func (p *Policy) BadgeDefinitions() []badge.Definition {
	return p.Badges
}
