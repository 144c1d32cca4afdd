package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skilltrack-hub/skill-progress-hub/internal/application/command"
	"github.com/skilltrack-hub/skill-progress-hub/internal/application/query"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/badge"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/progress"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/recommend"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
	"github.com/skilltrack-hub/skill-progress-hub/internal/infrastructure/persistence/memory"
)

// fixedProvider serves a tiny catalog without any network.
type fixedProvider struct{}

func (fixedProvider) FetchCandidates(_ context.Context, _ []shared.Category) ([]recommend.CatalogEntry, error) {
	return []recommend.CatalogEntry{
		{Ref: "r1", Title: "Go Patterns", Category: "programming", Position: 0},
	}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store := memory.NewActivityStore()
	aggregator, err := progress.NewAggregator(progress.DefaultConfig())
	require.NoError(t, err)
	badgeEng, err := badge.NewEngine(nil)
	require.NoError(t, err)
	recEng, err := recommend.NewEngine(recommend.DefaultConfig())
	require.NoError(t, err)

	dashboard := query.NewGetDashboardHandler(
		store, store, aggregator, badgeEng, recEng,
		fixedProvider{}, nil, nil,
		query.DefaultGetDashboardHandlerConfig(),
	)

	deps := Dependencies{
		CreateSkillHandler:     command.NewCreateSkillHandler(store, nil),
		ArchiveSkillHandler:    command.NewArchiveSkillHandler(store, nil),
		LogStudySessionHandler: command.NewLogStudySessionHandler(store, nil),
		AddJournalEntryHandler: command.NewAddJournalEntryHandler(store, nil),
		AddGoalHandler:         command.NewAddGoalHandler(store, nil),
		ToggleGoalHandler:      command.NewToggleGoalHandler(store, nil),
		GetDashboardHandler:    dashboard,
		GetStudyHistoryHandler: query.NewGetStudyHistoryHandler(store),
	}

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0 // not under test here
	return NewServer(cfg, deps)
}

func doJSON(t *testing.T, s *Server, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data
}

func TestServer_SkillLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/skills", "user-1", createSkillRequest{
		Name:     "Go",
		Category: "programming",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	skillID, _ := decodeData(t, rec)["SkillID"].(string)
	require.NotEmpty(t, skillID)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/sessions", "user-1", logSessionRequest{
		SkillID:         skillID,
		DurationMinutes: 90,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/dashboard", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, false, data["catalog_degraded"])
	skills, _ := data["skills"].([]interface{})
	require.Len(t, skills, 1)

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/skills/"+skillID, "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_ErrorTaxonomy(t *testing.T) {
	s := newTestServer(t)

	t.Run("validation maps to 400", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodPost, "/api/v1/skills", "user-1", createSkillRequest{
			Name: "", Category: "programming",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("negative duration maps to 400", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodPost, "/api/v1/sessions", "user-1", logSessionRequest{
			SkillID: "whatever", DurationMinutes: -10,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing entity maps to 404", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodDelete, "/api/v1/skills/nope", "user-1", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = doJSON(t, s, http.MethodPost, "/api/v1/goals/nope/toggle", "user-1", toggleGoalRequest{Completed: true})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("duplicate skill maps to 409", func(t *testing.T) {
		first := doJSON(t, s, http.MethodPost, "/api/v1/skills", "user-2", createSkillRequest{
			Name: "Piano", Category: "music",
		})
		require.Equal(t, http.StatusCreated, first.Code)

		dup := doJSON(t, s, http.MethodPost, "/api/v1/skills", "user-2", createSkillRequest{
			Name: "piano", Category: "music",
		})
		assert.Equal(t, http.StatusConflict, dup.Code)
	})

	t.Run("repeated archive maps to 409", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodPost, "/api/v1/skills", "user-3", createSkillRequest{
			Name: "Chess", Category: "sports",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		skillID, _ := decodeData(t, rec)["SkillID"].(string)

		rec = doJSON(t, s, http.MethodDelete, "/api/v1/skills/"+skillID, "user-3", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, s, http.MethodDelete, "/api/v1/skills/"+skillID, "user-3", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("reopening an open goal maps to 409", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodPost, "/api/v1/goals", "user-3", addGoalRequest{
			Text: "practice openings",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		goalID, _ := decodeData(t, rec)["GoalID"].(string)
		require.NotEmpty(t, goalID)

		rec = doJSON(t, s, http.MethodPost, "/api/v1/goals/"+goalID+"/toggle", "user-3", toggleGoalRequest{Completed: false})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/skills", bytes.NewBufferString("{nope"))
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_AuthRequired(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Health stays open.
	rec = doJSON(t, s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_HistoryEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/skills", "user-1", createSkillRequest{
		Name: "Go", Category: "programming",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	skillID, _ := decodeData(t, rec)["SkillID"].(string)

	for i := 0; i < 3; i++ {
		rec = doJSON(t, s, http.MethodPost, "/api/v1/sessions", "user-1", logSessionRequest{
			SkillID: skillID, DurationMinutes: 30,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/history?limit=2", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	sessions, _ := data["sessions"].([]interface{})
	assert.Len(t, sessions, 2)

	t.Run("bad time format rejected", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodGet, "/api/v1/history?from=yesterday", "user-1", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
