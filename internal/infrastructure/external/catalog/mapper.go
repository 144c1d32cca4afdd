package catalog

import (
	"errors"
	"strings"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/recommend"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - DTO to domain transformations
// ══════════════════════════════════════════════════════════════════════════════

// ErrNilDTO is returned when a nil DTO is passed to the mapper.
var ErrNilDTO = errors.New("catalog: nil DTO")

// Mapper normalizes catalog API DTOs into recommend.CatalogEntry. It is
// an anti-corruption layer: upstream shape changes stop here, and
// entries that cannot be normalized are dropped rather than passed on.
type Mapper struct{}

// NewMapper creates a new Mapper instance.
func NewMapper() *Mapper {
	return &Mapper{}
}

// EntriesFromList normalizes a primary-endpoint response. Position is
// assigned from upstream order.
func (m *Mapper) EntriesFromList(items []ResourceDTO) []recommend.CatalogEntry {
	entries := make([]recommend.CatalogEntry, 0, len(items))
	for _, dto := range items {
		entry, err := m.entryFromResource(dto)
		if err != nil {
			continue
		}
		entry.Position = len(entries)
		entries = append(entries, *entry)
	}
	return entries
}

// EntriesFromSearch normalizes a fallback-search response. The fallback
// document carries no difficulty or prerequisites, so results default to
// beginner and ungated.
func (m *Mapper) EntriesFromSearch(results []SearchResultDTO) []recommend.CatalogEntry {
	entries := make([]recommend.CatalogEntry, 0, len(results))
	for _, dto := range results {
		ref := strings.TrimSpace(dto.Link)
		category := shared.Category(dto.CategoryTag).Normalize()
		if ref == "" || !category.IsValid() {
			continue
		}
		entries = append(entries, recommend.CatalogEntry{
			Ref:         ref,
			Title:       strings.TrimSpace(dto.Title),
			Description: strings.TrimSpace(dto.Snippet),
			Category:    category,
			Difficulty:  recommend.DifficultyBeginner,
			Position:    len(entries),
		})
	}
	return entries
}

func (m *Mapper) entryFromResource(dto ResourceDTO) (*recommend.CatalogEntry, error) {
	ref := strings.TrimSpace(dto.URL)
	if ref == "" {
		ref = strings.TrimSpace(dto.ID)
	}
	category := shared.Category(dto.Category).Normalize()
	if ref == "" || !category.IsValid() {
		return nil, ErrNilDTO
	}

	prereqs := make([]shared.SkillID, 0, len(dto.Prerequisites))
	for _, p := range dto.Prerequisites {
		if p = strings.TrimSpace(p); p != "" {
			prereqs = append(prereqs, shared.SkillID(p))
		}
	}
	if len(prereqs) == 0 {
		prereqs = nil
	}

	return &recommend.CatalogEntry{
		Ref:                  ref,
		Title:                strings.TrimSpace(dto.Title),
		Description:          strings.TrimSpace(dto.Summary),
		Category:             category,
		Difficulty:           difficultyFromLevel(dto.Level),
		PrerequisiteSkillIDs: prereqs,
	}, nil
}

// difficultyFromLevel maps provider difficulty labels onto our buckets.
// Unknown labels land on beginner so they stay recommendable.
func difficultyFromLevel(level string) recommend.Difficulty {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "advanced", "expert", "hard":
		return recommend.DifficultyAdvanced
	case "intermediate", "medium":
		return recommend.DifficultyIntermediate
	default:
		return recommend.DifficultyBeginner
	}
}
