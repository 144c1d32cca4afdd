package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/skill"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD GOAL COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// AddGoalCommand appends a goal to the activity log.
type AddGoalCommand struct {
	// UserID is the authenticated owner.
	UserID shared.UserID

	// SkillID optionally ties the goal to one skill.
	SkillID *shared.SkillID

	// Text is the goal body.
	Text string

	// TargetDate is the optional deadline.
	TargetDate *time.Time
}

// Validate validates the command.
func (c AddGoalCommand) Validate() error {
	if !c.UserID.IsValid() {
		return errors.New("add_goal: user_id is required")
	}
	if strings.TrimSpace(c.Text) == "" {
		return errors.New("add_goal: text is required")
	}
	if c.SkillID != nil && !c.SkillID.IsValid() {
		return errors.New("add_goal: skill_id cannot be empty when set")
	}
	return nil
}

// AddGoalResult contains the result of adding a goal.
type AddGoalResult struct {
	GoalID    string
	CreatedAt time.Time
}

// AddGoalHandler handles the AddGoalCommand.
type AddGoalHandler struct {
	store     skill.ActivityStore
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewAddGoalHandler creates a new AddGoalHandler.
func NewAddGoalHandler(store skill.ActivityStore, publisher shared.EventPublisher) *AddGoalHandler {
	return &AddGoalHandler{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// Handle executes the add goal command.
func (h *AddGoalHandler) Handle(ctx context.Context, cmd AddGoalCommand) (*AddGoalResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.NewDomainError("skill", "AddGoal", shared.ErrValidation, err.Error())
	}

	now := h.now().UTC()
	goal, err := skill.NewGoalEntry(
		uuid.NewString(),
		cmd.UserID,
		cmd.SkillID,
		cmd.Text,
		cmd.TargetDate,
		now,
	)
	if err != nil {
		return nil, shared.NewDomainError("skill", "AddGoal", shared.ErrValidation, err.Error())
	}

	if err := h.store.RecordGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("add_goal: %w", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewBaseEvent(shared.EventGoalAdded, goal.ID, now))
	}

	return &AddGoalResult{GoalID: goal.ID, CreatedAt: goal.CreatedAt}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TOGGLE GOAL COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// ToggleGoalCommand flips a goal's completion state, the only mutation
// allowed on a recorded entry.
type ToggleGoalCommand struct {
	UserID    shared.UserID
	GoalID    string
	Completed bool
}

// Validate validates the command.
func (c ToggleGoalCommand) Validate() error {
	if !c.UserID.IsValid() {
		return errors.New("toggle_goal: user_id is required")
	}
	if strings.TrimSpace(c.GoalID) == "" {
		return errors.New("toggle_goal: goal_id is required")
	}
	return nil
}

// ToggleGoalResult contains the result of the transition.
type ToggleGoalResult struct {
	GoalID      string
	Completed   bool
	CompletedAt *time.Time
}

// ToggleGoalHandler handles the ToggleGoalCommand.
type ToggleGoalHandler struct {
	store     skill.ActivityStore
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewToggleGoalHandler creates a new ToggleGoalHandler.
func NewToggleGoalHandler(store skill.ActivityStore, publisher shared.EventPublisher) *ToggleGoalHandler {
	return &ToggleGoalHandler{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// Handle executes the toggle goal command.
func (h *ToggleGoalHandler) Handle(ctx context.Context, cmd ToggleGoalCommand) (*ToggleGoalResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.NewDomainError("skill", "ToggleGoal", shared.ErrValidation, err.Error())
	}

	now := h.now().UTC()
	goal, err := h.store.SetGoalCompletion(ctx, cmd.UserID, cmd.GoalID, cmd.Completed, now)
	if err != nil {
		return nil, fmt.Errorf("toggle_goal: %w", err)
	}

	if cmd.Completed && h.publisher != nil {
		_ = h.publisher.Publish(shared.NewBaseEvent(shared.EventGoalCompleted, goal.ID, now))
	}

	return &ToggleGoalResult{
		GoalID:      goal.ID,
		Completed:   goal.Completed,
		CompletedAt: goal.CompletedAt,
	}, nil
}
