package catalog

// ══════════════════════════════════════════════════════════════════════════════
// API RESPONSE WRAPPERS
// ══════════════════════════════════════════════════════════════════════════════

// listResponse is the primary /resources response shape.
type listResponse struct {
	Items []ResourceDTO `json:"items"`
	Total int           `json:"total,omitempty"`
}

// searchResponse is the fallback /search response shape. The fallback
// endpoint returns a flatter document without difficulty or
// prerequisite data.
type searchResponse struct {
	Results []SearchResultDTO `json:"results"`
}

// ══════════════════════════════════════════════════════════════════════════════
// RESOURCE DTOs
// ══════════════════════════════════════════════════════════════════════════════

// ResourceDTO is a learning resource as returned by the catalog API.
// This is the external representation that gets normalized into
// recommend.CatalogEntry before anything downstream sees it.
type ResourceDTO struct {
	// ID is the provider's stable identifier.
	ID string `json:"id"`

	// URL is the canonical resource link. Preferred over ID as the
	// external reference when present.
	URL string `json:"url,omitempty"`

	// Title is the display title.
	Title string `json:"title"`

	// Summary is a short description.
	Summary string `json:"summary,omitempty"`

	// Category is the provider's category tag, free-form case.
	Category string `json:"category"`

	// Level is the provider's difficulty label.
	Level string `json:"level,omitempty"`

	// Prerequisites lists skill identifiers gated before this resource.
	Prerequisites []string `json:"prerequisites,omitempty"`
}

// SearchResultDTO is one hit from the fallback search endpoint.
type SearchResultDTO struct {
	Link        string `json:"link"`
	Title       string `json:"title"`
	Snippet     string `json:"snippet,omitempty"`
	CategoryTag string `json:"category_tag,omitempty"`
}
