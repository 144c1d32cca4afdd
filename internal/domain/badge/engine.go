package badge

import (
	"fmt"
	"time"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/progress"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
)

// Earned is a badge a user holds, with the time of the one-way transition.
type Earned struct {
	Definition Definition `json:"definition"`
	EarnedAt   time.Time  `json:"earned_at"`
}

// Engine evaluates badge criteria against a user's cumulative statistics.
// The engine itself is stateless and shared across users; earned state
// lives in the BadgeStore and is only ever extended.
type Engine struct {
	defs []Definition
	byID map[string]Definition
}

// NewEngine creates an engine, validating every definition. A single bad
// definition fails construction: configuration errors surface at startup,
// not at evaluation time.
func NewEngine(defs []Definition) (*Engine, error) {
	if len(defs) == 0 {
		defs = DefaultDefinitions()
	}

	byID := make(map[string]Definition, len(defs))
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := byID[def.ID]; dup {
			return nil, shared.WrapError("badge", "Configure", shared.ErrConfiguration,
				fmt.Sprintf("duplicate badge ID %q", def.ID), nil)
		}
		byID[def.ID] = def
	}

	return &Engine{defs: defs, byID: byID}, nil
}

// Definitions returns the configured badge definitions in declaration order.
func (e *Engine) Definitions() []Definition {
	return e.defs
}

// DefinitionByID looks up a badge definition.
func (e *Engine) DefinitionByID(id string) (Definition, bool) {
	def, ok := e.byID[id]
	return def, ok
}

// Evaluate returns the badges newly earned given the cumulative stats and
// the set already earned. Re-evaluating an earned badge is a no-op, and
// since criteria read only never-decreasing aggregates the result set can
// only grow over time - a badge is never un-earned even when mastery
// scores have decayed to zero.
func (e *Engine) Evaluate(alreadyEarned map[string]time.Time, stats progress.CumulativeStats, now time.Time) []Earned {
	var newly []Earned
	for _, def := range e.defs {
		if _, ok := alreadyEarned[def.ID]; ok {
			continue
		}
		if satisfied(def.Criterion, stats) {
			newly = append(newly, Earned{Definition: def, EarnedAt: now})
		}
	}
	return newly
}

// Collect merges already-earned badges with newly earned ones into the
// full display list, ordered by declaration order of the definitions.
func (e *Engine) Collect(alreadyEarned map[string]time.Time, newly []Earned) []Earned {
	newlyAt := make(map[string]time.Time, len(newly))
	for _, n := range newly {
		newlyAt[n.Definition.ID] = n.EarnedAt
	}

	all := make([]Earned, 0, len(alreadyEarned)+len(newly))
	for _, def := range e.defs {
		if at, ok := alreadyEarned[def.ID]; ok {
			all = append(all, Earned{Definition: def, EarnedAt: at})
		} else if at, ok := newlyAt[def.ID]; ok {
			all = append(all, Earned{Definition: def, EarnedAt: at})
		}
	}
	return all
}

// satisfied checks one criterion against the cumulative stats.
// Every CriterionType validated by NewEngine must be handled here.
func satisfied(c Criterion, stats progress.CumulativeStats) bool {
	switch c.Type {
	case CriterionTotalHours:
		return stats.TotalHours >= c.Threshold
	case CriterionStreakDays:
		return float64(stats.CurrentStreakDays) >= c.Threshold ||
			float64(stats.LongestStreakDays) >= c.Threshold
	case CriterionDistinctSkills:
		return float64(stats.DistinctSkills) >= c.Threshold
	case CriterionSessionCount:
		return float64(stats.TotalSessions) >= c.Threshold
	case CriterionGoalsCompleted:
		return float64(stats.GoalsCompleted) >= c.Threshold
	default:
		// Unreachable: NewEngine rejects unknown types at startup.
		return false
	}
}
