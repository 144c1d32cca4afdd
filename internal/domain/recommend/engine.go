package recommend

import (
	"fmt"
	"math"
	"sort"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/progress"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/skill"
)

// Weights are the relative importance of the three scoring terms.
type Weights struct {
	// Affinity weighs the cosine similarity between the user's
	// per-category hour distribution and the candidate's category.
	Affinity float64 `json:"affinity" yaml:"affinity"`

	// GapFill weighs categories where the user has activity but low
	// mastery - the "next logical step" term.
	GapFill float64 `json:"gap_fill" yaml:"gap_fill"`

	// Freshness weighs the mild penalty for already-consumed resources.
	// It is a penalty, never a hard exclusion: re-recommending later is valid.
	Freshness float64 `json:"freshness" yaml:"freshness"`
}

// DefaultWeights returns the tuning used when none is configured.
func DefaultWeights() Weights {
	return Weights{Affinity: 1.0, GapFill: 1.2, Freshness: 0.5}
}

// Validate checks the weights at startup.
func (w Weights) Validate() error {
	if w.Affinity < 0 || w.GapFill < 0 || w.Freshness < 0 {
		return shared.ErrInvalidWeights
	}
	if w.Affinity == 0 && w.GapFill == 0 {
		return shared.WrapError("recommend", "Configure", shared.ErrConfiguration,
			"at least one positive scoring weight is required", nil)
	}
	return nil
}

// Config tunes the recommendation engine.
type Config struct {
	Weights Weights `yaml:"weights"`

	// PrerequisiteThreshold is the mastery score a prerequisite skill must
	// reach before a candidate depending on it becomes eligible. The gate
	// is hard: an ineligible candidate is excluded, never partially scored.
	PrerequisiteThreshold float64 `yaml:"prerequisite_threshold"`
}

// DefaultConfig returns the default engine tuning.
func DefaultConfig() Config {
	return Config{
		Weights:               DefaultWeights(),
		PrerequisiteThreshold: 0.4,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.PrerequisiteThreshold < 0 || c.PrerequisiteThreshold > 1 {
		return shared.WrapError("recommend", "Configure", shared.ErrConfiguration,
			"prerequisite threshold must be within [0,1]", nil)
	}
	return nil
}

// Engine scores and ranks catalog entries. Stateless and shared.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine, validating the configuration.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Recommend returns the top n candidates for the user.
//
// Pipeline:
//  1. hard prerequisite gate (mastery below threshold excludes outright),
//  2. weighted score: affinity + gap-fill - freshness penalty,
//  3. rank descending, catalog insertion order breaks ties,
//  4. keep top n with a rationale from the dominant term.
//
// An empty or fully filtered catalog yields an empty list - recommendation
// absence is a valid state, not an error.
func (e *Engine) Recommend(profile *progress.Profile, skills []skill.Skill, consumed map[string]struct{}, entries []CatalogEntry, n int) []Recommendation {
	if n <= 0 || len(entries) == 0 {
		return nil
	}

	hourNorm := vectorNorm(profile.CategoryHours)
	catMastery := categoryMastery(profile, skills)

	scored := make([]Recommendation, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsValid() {
			continue
		}
		if !e.prerequisitesMet(profile, entry) {
			continue
		}

		cat := entry.Category.Normalize()

		affinity := 0.0
		if hourNorm > 0 {
			// The candidate's category vector is one-hot, so the cosine
			// similarity collapses to hours[cat] / ||hours||.
			affinity = profile.CategoryHours[cat] / hourNorm
		}

		gapFill := 0.0
		if cm, active := catMastery[cat]; active {
			gapFill = 1 - cm
		}

		penalty := 0.0
		if _, seen := consumed[entry.Ref]; seen {
			penalty = 1.0
		}

		w := e.cfg.Weights
		affinityTerm := w.Affinity * affinity
		gapTerm := w.GapFill * gapFill
		freshTerm := w.Freshness * penalty

		scored = append(scored, Recommendation{
			ResourceRef: entry.Ref,
			Title:       entry.Title,
			SkillID:     weakestSkillIn(cat, profile, skills),
			Score:       affinityTerm + gapTerm - freshTerm,
			Rationale:   rationale(entry, affinityTerm, gapTerm, freshTerm),
		})
	}

	// Entries arrive in catalog insertion order; a stable sort keeps that
	// order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

// prerequisitesMet applies the hard gate: every prerequisite skill must
// have mastery at or above the configured threshold.
func (e *Engine) prerequisitesMet(profile *progress.Profile, entry CatalogEntry) bool {
	for _, prereq := range entry.PrerequisiteSkillIDs {
		if profile.MasteryFor(prereq) < e.cfg.PrerequisiteThreshold {
			return false
		}
	}
	return true
}

// categoryMastery averages mastery per normalized category over skills the
// user actually practiced. Categories without any activity are absent.
func categoryMastery(profile *progress.Profile, skills []skill.Skill) map[shared.Category]float64 {
	sums := make(map[shared.Category]float64)
	counts := make(map[shared.Category]int)
	for _, sk := range skills {
		metric, ok := profile.Metrics[sk.ID]
		if !ok {
			continue
		}
		cat := sk.Category.Normalize()
		sums[cat] += metric.MasteryScore
		counts[cat]++
	}

	avg := make(map[shared.Category]float64, len(sums))
	for cat, sum := range sums {
		avg[cat] = sum / float64(counts[cat])
	}
	return avg
}

// weakestSkillIn picks the user's lowest-mastery active skill in the
// category - the skill this resource most directly advances.
func weakestSkillIn(cat shared.Category, profile *progress.Profile, skills []skill.Skill) shared.SkillID {
	var (
		weakest shared.SkillID
		lowest  = math.Inf(1)
	)
	for _, sk := range skills {
		if sk.IsArchived() || sk.Category.Normalize() != cat {
			continue
		}
		if m := profile.MasteryFor(sk.ID); m < lowest {
			lowest = m
			weakest = sk.ID
		}
	}
	return weakest
}

// vectorNorm is the Euclidean norm of the category hour distribution.
// Keys are summed in sorted order: float addition is order-sensitive and
// map iteration order is random, so a fixed order keeps scores reproducible.
func vectorNorm(hours map[shared.Category]float64) float64 {
	cats := make([]string, 0, len(hours))
	for cat := range hours {
		cats = append(cats, string(cat))
	}
	sort.Strings(cats)

	var sumSq float64
	for _, cat := range cats {
		h := hours[shared.Category(cat)]
		sumSq += h * h
	}
	return math.Sqrt(sumSq)
}

// rationale names the dominant scoring term in one short sentence.
func rationale(entry CatalogEntry, affinityTerm, gapTerm, freshTerm float64) string {
	if freshTerm > 0 && affinityTerm == 0 && gapTerm == 0 {
		return "You have seen this before - worth revisiting later"
	}
	if gapTerm >= affinityTerm && gapTerm > 0 {
		return fmt.Sprintf("Targets a gap in your %s progress", entry.Category)
	}
	if affinityTerm > 0 {
		return fmt.Sprintf("Matches your recent %s activity", entry.Category)
	}
	return fmt.Sprintf("A starting point for %s", entry.Category)
}
