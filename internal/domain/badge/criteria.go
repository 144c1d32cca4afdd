// Package badge implements the achievement engine: a per-(user, badge)
// state machine with exactly two states, unearned and earned, and a single
// one-way transition between them. Criteria are declarative and evaluated
// against cumulative raw history, never against decayed scores, so a badge
// once earned can never be lost.
package badge

import (
	"fmt"
	"strings"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
)

// CriterionType identifies what a badge threshold is measured against.
type CriterionType string

const (
	// CriterionTotalHours - cumulative study hours across all skills.
	CriterionTotalHours CriterionType = "total_hours"

	// CriterionStreakDays - current consecutive-day streak length.
	CriterionStreakDays CriterionType = "streak_days"

	// CriterionDistinctSkills - number of distinct skills practiced.
	CriterionDistinctSkills CriterionType = "distinct_skills"

	// CriterionSessionCount - total number of recorded sessions.
	CriterionSessionCount CriterionType = "session_count"

	// CriterionGoalsCompleted - number of goals marked done.
	CriterionGoalsCompleted CriterionType = "goals_completed"
)

// knownCriteria is the closed set of supported criterion types.
// An unknown type in configuration is a startup error, never a silent
// no-op at evaluation time.
var knownCriteria = map[CriterionType]struct{}{
	CriterionTotalHours:     {},
	CriterionStreakDays:     {},
	CriterionDistinctSkills: {},
	CriterionSessionCount:   {},
	CriterionGoalsCompleted: {},
}

// Criterion is a declarative badge condition: one measured quantity and
// one threshold it must reach.
type Criterion struct {
	Type      CriterionType `json:"type" yaml:"type"`
	Threshold float64       `json:"threshold" yaml:"threshold"`
}

// Validate checks the criterion at configuration time.
func (c Criterion) Validate() error {
	if _, ok := knownCriteria[CriterionType(strings.TrimSpace(string(c.Type)))]; !ok {
		return shared.WrapError("badge", "Configure", shared.ErrConfiguration,
			fmt.Sprintf("unknown criterion type %q", c.Type), nil)
	}
	if c.Threshold <= 0 {
		return shared.WrapError("badge", "Configure", shared.ErrConfiguration,
			fmt.Sprintf("criterion %q: threshold must be positive, got %v", c.Type, c.Threshold), nil)
	}
	return nil
}

// Definition describes one badge a user can earn.
type Definition struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Criterion   Criterion `json:"criterion" yaml:"criterion"`
}

// Validate checks the definition at configuration time.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return shared.WrapError("badge", "Configure", shared.ErrConfiguration,
			"badge ID cannot be empty", nil)
	}
	if strings.TrimSpace(d.Name) == "" {
		return shared.WrapError("badge", "Configure", shared.ErrConfiguration,
			fmt.Sprintf("badge %q: name cannot be empty", d.ID), nil)
	}
	return d.Criterion.Validate()
}

// DefaultDefinitions returns the badge ladder the tracker ships with:
// the study-hour ladder plus streak and breadth badges. Deployments
// override it through the engine policy file.
func DefaultDefinitions() []Definition {
	hourLadder := []struct {
		id, name string
		hours    float64
	}{
		{"entry", "Entry", 1},
		{"beginner", "Beginner", 5},
		{"intermediate", "Intermediate", 15},
		{"proficient", "Proficient", 30},
		{"advanced", "Advanced", 60},
		{"expert", "Expert", 120},
		{"a-plus-student", "A+ Student", 200},
		{"master", "Master", 300},
		{"grand-master", "Grand Master", 400},
		{"study-machine", "Study Machine", 500},
		{"study-master", "Study Master", 600},
	}

	defs := make([]Definition, 0, len(hourLadder)+4)
	for _, lvl := range hourLadder {
		defs = append(defs, Definition{
			ID:          lvl.id,
			Name:        lvl.name,
			Description: fmt.Sprintf("Log %.0f total study hours", lvl.hours),
			Criterion:   Criterion{Type: CriterionTotalHours, Threshold: lvl.hours},
		})
	}

	defs = append(defs,
		Definition{
			ID:          "week-streak",
			Name:        "Week Streak",
			Description: "Study 7 days in a row",
			Criterion:   Criterion{Type: CriterionStreakDays, Threshold: 7},
		},
		Definition{
			ID:          "month-streak",
			Name:        "Month Streak",
			Description: "Study 30 days in a row",
			Criterion:   Criterion{Type: CriterionStreakDays, Threshold: 30},
		},
		Definition{
			ID:          "explorer",
			Name:        "Explorer",
			Description: "Practice 5 different skills",
			Criterion:   Criterion{Type: CriterionDistinctSkills, Threshold: 5},
		},
		Definition{
			ID:          "goal-getter",
			Name:        "Goal Getter",
			Description: "Complete 10 goals",
			Criterion:   Criterion{Type: CriterionGoalsCompleted, Threshold: 10},
		},
	)
	return defs
}
