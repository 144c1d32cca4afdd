// Package recommend ranks candidate learning resources for a user by
// personalized relevance. Scoring is a pure function of the user's derived
// progress profile, the normalized catalog, and the configured weights -
// no hidden state, so identical inputs always rank identically.
package recommend

import (
	"context"
	"strings"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
)

// Difficulty buckets for catalog entries.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// CatalogEntry is the single normalized shape every third-party learning
// resource is mapped into at the collaborator boundary. Varying upstream
// response shapes never reach the engine.
type CatalogEntry struct {
	// Ref is the stable external reference (URL or provider ID).
	Ref string `json:"ref"`

	// Title is the display title of the resource.
	Title string `json:"title"`

	// Description is a short summary, used in rationale output.
	Description string `json:"description"`

	// Category is the normalized category tag.
	Category shared.Category `json:"category"`

	// Difficulty is the resource's difficulty bucket.
	Difficulty Difficulty `json:"difficulty"`

	// PrerequisiteSkillIDs lists skills that must be sufficiently mastered
	// before the resource is eligible at all.
	PrerequisiteSkillIDs []shared.SkillID `json:"prerequisite_skill_ids,omitempty"`

	// Position is the entry's insertion order in the catalog. It is the
	// deterministic tie-break for equal scores.
	Position int `json:"position"`
}

// IsValid checks the minimal shape of a normalized entry.
func (e CatalogEntry) IsValid() bool {
	return strings.TrimSpace(e.Ref) != "" && e.Category.IsValid()
}

// Provider fetches candidate resources from the external catalog
// collaborator. Implementations must return an error satisfying
// shared.ErrCatalogUnavailable when the upstream cannot be reached; the
// orchestrator absorbs that error and degrades instead of failing.
type Provider interface {
	// FetchCandidates returns normalized catalog entries, optionally
	// filtered to the given categories. Order defines Position.
	FetchCandidates(ctx context.Context, categories []shared.Category) ([]CatalogEntry, error)
}

// Recommendation is one ranked result. It is ephemeral: computed per
// request from the current profile and catalog, never persisted.
type Recommendation struct {
	// ResourceRef identifies the recommended resource.
	ResourceRef string `json:"resource_ref"`

	// Title is carried through for the presentation layer.
	Title string `json:"title"`

	// SkillID is the user's skill this resource most directly advances
	// (lowest-mastery active skill in the entry's category), empty when
	// the user has no skill in that category yet.
	SkillID shared.SkillID `json:"skill_id,omitempty"`

	// Score is the final weighted score.
	Score float64 `json:"score"`

	// Rationale is a short explanation built from the dominant scoring term.
	Rationale string `json:"rationale"`
}
