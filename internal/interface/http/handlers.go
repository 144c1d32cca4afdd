// Package http implements the REST API for the skill progress hub.
package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/skilltrack-hub/skill-progress-hub/internal/application/command"
	"github.com/skilltrack-hub/skill-progress-hub/internal/application/query"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/skill"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "Skill Progress Hub API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":    "/health",
			"dashboard": "/api/v1/dashboard",
			"history":   "/api/v1/history",
			"skills":    "/api/v1/skills",
			"sessions":  "/api/v1/sessions",
			"journal":   "/api/v1/journal",
			"goals":     "/api/v1/goals",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(s.deps.HealthCheckers))
	healthy := true
	for name, checker := range s.deps.HealthCheckers {
		if err := checker.Health(r.Context()); err != nil {
			checks[name] = err.Error()
			healthy = false
		} else {
			checks[name] = "ok"
		}
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"uptime": s.Uptime().String(),
		"checks": checks,
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	for name, checker := range s.deps.HealthCheckers {
		if err := checker.Health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": fmt.Sprintf("%s: %v", name, err),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD & HISTORY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetDashboard handles GET /api/v1/dashboard
func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	q := query.GetDashboardQuery{
		UserID:             userFromContext(r.Context()),
		MaxRecommendations: getQueryParamInt(r, "max_recommendations", 0),
	}

	result, err := s.deps.GetDashboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetHistory handles GET /api/v1/history
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	from, err := getQueryParamTime(r, "from")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	to, err := getQueryParamTime(r, "to")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	q := query.GetStudyHistoryQuery{
		UserID:  userFromContext(r.Context()),
		SkillID: shared.SkillID(getQueryParam(r, "skill_id", "")),
		From:    from,
		To:      to,
		Limit:   getQueryParamInt(r, "limit", 0),
	}

	result, err := s.deps.GetStudyHistoryHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// SKILL HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type createSkillRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}

// handleCreateSkill handles POST /api/v1/skills
func (s *Server) handleCreateSkill(w http.ResponseWriter, r *http.Request) {
	var req createSkillRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.CreateSkillHandler.Handle(r.Context(), command.CreateSkillCommand{
		UserID:      userFromContext(r.Context()),
		Name:        req.Name,
		Category:    shared.Category(req.Category),
		Description: req.Description,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleArchiveSkill handles DELETE /api/v1/skills/{id}
func (s *Server) handleArchiveSkill(w http.ResponseWriter, r *http.Request) {
	skillID := shared.SkillID(r.PathValue("id"))

	err := s.deps.ArchiveSkillHandler.Handle(r.Context(), command.ArchiveSkillCommand{
		UserID:  userFromContext(r.Context()),
		SkillID: skillID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"skill_id": skillID,
		"archived": true,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type logSessionRequest struct {
	SkillID         string     `json:"skill_id"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	Source          string     `json:"source,omitempty"`

	// EndedAt closes a timer-style session: when set together with
	// started_at, the duration is computed instead of typed in.
	EndedAt *time.Time `json:"ended_at,omitempty"`
}

// handleLogSession handles POST /api/v1/sessions
func (s *Server) handleLogSession(w http.ResponseWriter, r *http.Request) {
	var req logSessionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.LogStudySessionCommand{
		UserID:          userFromContext(r.Context()),
		SkillID:         shared.SkillID(req.SkillID),
		DurationMinutes: shared.Minutes(req.DurationMinutes),
		Source:          skill.SessionSource(req.Source),
	}
	if req.StartedAt != nil {
		cmd.StartedAt = *req.StartedAt
	}
	if req.EndedAt != nil {
		if req.StartedAt == nil {
			writeJSONError(w, http.StatusBadRequest, "validation_error", "ended_at requires started_at")
			return
		}
		cmd.DurationMinutes = shared.Minutes(req.EndedAt.Sub(*req.StartedAt) / time.Minute)
		if cmd.Source == "" {
			cmd.Source = skill.SourceTimer
		}
	}

	result, err := s.deps.LogStudySessionHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// JOURNAL HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type addJournalRequest struct {
	SkillID     string `json:"skill_id,omitempty"`
	Text        string `json:"text"`
	Mood        string `json:"mood,omitempty"`
	ResourceRef string `json:"resource_ref,omitempty"`
}

// handleAddJournal handles POST /api/v1/journal
func (s *Server) handleAddJournal(w http.ResponseWriter, r *http.Request) {
	var req addJournalRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.AddJournalEntryCommand{
		UserID:      userFromContext(r.Context()),
		Text:        req.Text,
		Mood:        req.Mood,
		ResourceRef: req.ResourceRef,
	}
	if req.SkillID != "" {
		skillID := shared.SkillID(req.SkillID)
		cmd.SkillID = &skillID
	}

	result, err := s.deps.AddJournalEntryHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// GOAL HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type addGoalRequest struct {
	SkillID    string     `json:"skill_id,omitempty"`
	Text       string     `json:"text"`
	TargetDate *time.Time `json:"target_date,omitempty"`
}

// handleAddGoal handles POST /api/v1/goals
func (s *Server) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	var req addGoalRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.AddGoalCommand{
		UserID:     userFromContext(r.Context()),
		Text:       req.Text,
		TargetDate: req.TargetDate,
	}
	if req.SkillID != "" {
		skillID := shared.SkillID(req.SkillID)
		cmd.SkillID = &skillID
	}

	result, err := s.deps.AddGoalHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type toggleGoalRequest struct {
	Completed bool `json:"completed"`
}

// handleToggleGoal handles POST /api/v1/goals/{id}/toggle
func (s *Server) handleToggleGoal(w http.ResponseWriter, r *http.Request) {
	var req toggleGoalRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.ToggleGoalHandler.Handle(r.Context(), command.ToggleGoalCommand{
		UserID:    userFromContext(r.Context()),
		GoalID:    r.PathValue("id"),
		Completed: req.Completed,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DECODING
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody decodes a JSON request body into dst. On failure it writes
// the 400 response itself and returns false.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()

	body := io.LimitReader(r.Body, s.config.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	return true
}
