package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/skill"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOG STUDY SESSION COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// LogStudySessionCommand appends one study session to the activity log.
type LogStudySessionCommand struct {
	// UserID is the authenticated owner.
	UserID shared.UserID

	// SkillID is the skill the time was spent on.
	SkillID shared.SkillID

	// StartedAt is when the session began. Zero means "now".
	StartedAt time.Time

	// DurationMinutes is the session length. Zero is allowed (a timer
	// stopped immediately); negative is rejected whole.
	DurationMinutes shared.Minutes

	// Source records whether the duration was typed in or measured by
	// the study timer. Empty defaults to manual.
	Source skill.SessionSource
}

// Validate validates the command.
func (c LogStudySessionCommand) Validate() error {
	if !c.UserID.IsValid() {
		return errors.New("log_session: user_id is required")
	}
	if !c.SkillID.IsValid() {
		return errors.New("log_session: skill_id is required")
	}
	if !c.DurationMinutes.IsValid() {
		return errors.New("log_session: duration cannot be negative")
	}
	return nil
}

// LogStudySessionResult contains the result of logging a session.
type LogStudySessionResult struct {
	// SessionID is the generated identifier.
	SessionID string

	// SkillID echoes the command.
	SkillID shared.SkillID

	// StartedAt is the effective session start.
	StartedAt time.Time

	// Hours is the logged duration in fractional hours.
	Hours float64
}

// LogStudySessionHandler handles the LogStudySessionCommand.
type LogStudySessionHandler struct {
	store     skill.ActivityStore
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewLogStudySessionHandler creates a new LogStudySessionHandler.
func NewLogStudySessionHandler(store skill.ActivityStore, publisher shared.EventPublisher) *LogStudySessionHandler {
	return &LogStudySessionHandler{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// Handle executes the log study session command. The append either
// lands whole or not at all; a validation failure leaves the log
// untouched.
func (h *LogStudySessionHandler) Handle(ctx context.Context, cmd LogStudySessionCommand) (*LogStudySessionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.NewDomainError("skill", "LogSession", shared.ErrValidation, err.Error())
	}

	now := h.now().UTC()
	startedAt := cmd.StartedAt
	if startedAt.IsZero() {
		startedAt = now
	}

	session, err := skill.NewStudySession(
		uuid.NewString(),
		cmd.UserID,
		cmd.SkillID,
		startedAt,
		cmd.DurationMinutes,
		cmd.Source,
	)
	if err != nil {
		return nil, shared.NewDomainError("skill", "LogSession", shared.ErrValidation, err.Error())
	}

	if err := h.store.RecordSession(ctx, session); err != nil {
		return nil, fmt.Errorf("log_session: %w", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.SessionLoggedEvent{
			BaseEvent:       shared.NewBaseEvent(shared.EventSessionLogged, session.ID, now),
			UserID:          session.UserID,
			SkillID:         session.SkillID,
			DurationMinutes: session.DurationMinutes,
		})
	}

	return &LogStudySessionResult{
		SessionID: session.ID,
		SkillID:   session.SkillID,
		StartedAt: session.StartedAt,
		Hours:     session.Hours(),
	}, nil
}
