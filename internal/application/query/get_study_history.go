package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/skill"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDY HISTORY QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetStudyHistoryQuery contains the parameters for the history read.
type GetStudyHistoryQuery struct {
	// UserID is the authenticated user.
	UserID shared.UserID

	// SkillID optionally restricts the history to one skill.
	SkillID shared.SkillID

	// From/To bound the range (inclusive from, exclusive to). Zero
	// values mean unbounded.
	From time.Time
	To   time.Time

	// Limit caps the number of sessions (0 = unlimited).
	Limit int
}

// Validate validates the query.
func (q GetStudyHistoryQuery) Validate() error {
	if !q.UserID.IsValid() {
		return errors.New("get_history: user_id is required")
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return errors.New("get_history: to must not precede from")
	}
	if q.Limit < 0 {
		return errors.New("get_history: limit cannot be negative")
	}
	return nil
}

// SessionDTO is one study session in the history.
type SessionDTO struct {
	SessionID       string          `json:"session_id"`
	SkillID         shared.SkillID  `json:"skill_id"`
	SkillName       string          `json:"skill_name"`
	Category        shared.Category `json:"category"`
	StartedAt       time.Time       `json:"started_at"`
	DurationMinutes int             `json:"duration_minutes"`
	Source          string          `json:"source"`
}

// DailyTotalDTO aggregates one calendar day of the range.
type DailyTotalDTO struct {
	Day        time.Time `json:"day"`
	TotalHours float64   `json:"total_hours"`
	Sessions   int       `json:"sessions"`
}

// SkillTotalDTO aggregates one skill across the range.
type SkillTotalDTO struct {
	SkillID    shared.SkillID `json:"skill_id"`
	SkillName  string         `json:"skill_name"`
	TotalHours float64        `json:"total_hours"`
	Sessions   int            `json:"sessions"`
}

// StudyHistoryDTO is the assembled history view.
type StudyHistoryDTO struct {
	UserID      shared.UserID   `json:"user_id"`
	Sessions    []SessionDTO    `json:"sessions"`
	DailyTotal  []DailyTotalDTO `json:"daily_totals"`
	SkillTotals []SkillTotalDTO `json:"skill_totals"`
	TotalHours  float64         `json:"total_hours"`
}

// GetStudyHistoryHandler handles the GetStudyHistoryQuery.
type GetStudyHistoryHandler struct {
	activity skill.ActivityStore
}

// NewGetStudyHistoryHandler creates a new GetStudyHistoryHandler.
func NewGetStudyHistoryHandler(activity skill.ActivityStore) *GetStudyHistoryHandler {
	return &GetStudyHistoryHandler{activity: activity}
}

// Handle executes the history query. Sessions come back in chronological
// order with per-day totals alongside.
func (h *GetStudyHistoryHandler) Handle(ctx context.Context, q GetStudyHistoryQuery) (*StudyHistoryDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.NewDomainError("dashboard", "History", shared.ErrValidation, err.Error())
	}

	sessions, err := h.activity.ListSessions(ctx, q.UserID, skill.ListFilters{
		SkillID: q.SkillID,
		From:    q.From,
		To:      q.To,
		Limit:   q.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("get_history: %w", err)
	}

	skills, err := h.activity.ListSkills(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_history: %w", err)
	}
	names := make(map[shared.SkillID]skill.Skill, len(skills))
	for _, sk := range skills {
		names[sk.ID] = sk
	}

	dto := &StudyHistoryDTO{
		UserID:   q.UserID,
		Sessions: make([]SessionDTO, 0, len(sessions)),
	}

	type dayKey struct{ y, m, d int }
	totals := make(map[dayKey]*DailyTotalDTO)
	var order []dayKey

	bySkill := make(map[shared.SkillID]*SkillTotalDTO)
	var skillOrder []shared.SkillID

	for _, sess := range sessions {
		sk := names[sess.SkillID]
		dto.Sessions = append(dto.Sessions, SessionDTO{
			SessionID:       sess.ID,
			SkillID:         sess.SkillID,
			SkillName:       sk.Name,
			Category:        sk.Category,
			StartedAt:       sess.StartedAt,
			DurationMinutes: int(sess.DurationMinutes),
			Source:          string(sess.Source),
		})
		dto.TotalHours += sess.Hours()

		day := sess.Day().Time()
		key := dayKey{day.Year(), int(day.Month()), day.Day()}
		if _, ok := totals[key]; !ok {
			totals[key] = &DailyTotalDTO{Day: day}
			order = append(order, key)
		}
		totals[key].TotalHours += sess.Hours()
		totals[key].Sessions++

		if _, ok := bySkill[sess.SkillID]; !ok {
			bySkill[sess.SkillID] = &SkillTotalDTO{SkillID: sess.SkillID, SkillName: sk.Name}
			skillOrder = append(skillOrder, sess.SkillID)
		}
		bySkill[sess.SkillID].TotalHours += sess.Hours()
		bySkill[sess.SkillID].Sessions++
	}

	dto.DailyTotal = make([]DailyTotalDTO, 0, len(order))
	for _, key := range order {
		dto.DailyTotal = append(dto.DailyTotal, *totals[key])
	}

	// Per-skill totals ranked by invested hours; first-seen order breaks
	// ties so the ranking is stable.
	dto.SkillTotals = make([]SkillTotalDTO, 0, len(skillOrder))
	for _, id := range skillOrder {
		dto.SkillTotals = append(dto.SkillTotals, *bySkill[id])
	}
	sort.SliceStable(dto.SkillTotals, func(i, j int) bool {
		return dto.SkillTotals[i].TotalHours > dto.SkillTotals[j].TotalHours
	})
	return dto, nil
}
