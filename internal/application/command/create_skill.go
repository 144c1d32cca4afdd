// Package command contains write operations (CQRS - Commands). Every
// command validates itself before touching the store, appends through
// the activity store, and publishes domain events after the write
// commits. Event publication is best-effort: a failing subscriber never
// rolls back a recorded fact.
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
// CREATE SKILL COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// CreateSkillCommand contains the data to create a skill.
type CreateSkillCommand struct {
	// UserID is the authenticated owner of the skill.
	UserID shared.UserID

	// Name is the skill name, unique per user among active skills.
	Name string

	// Category tags the skill for affinity scoring. When empty the
	// handler rejects; the API layer offers skill.DefaultCategories.
	Category shared.Category

	// Description is optional free text.
	Description string
}

// Validate validates the command.
func (c CreateSkillCommand) Validate() error {
	if !c.UserID.IsValid() {
		return errors.New("create_skill: user_id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("create_skill: name is required")
	}
	if !c.Category.IsValid() {
		return errors.New("create_skill: category is required")
	}
	return nil
}

// CreateSkillResult contains the result of creating a skill.
type CreateSkillResult struct {
	// SkillID is the generated identifier.
	SkillID shared.SkillID

	// Name and Category echo the persisted values.
	Name     string
	Category shared.Category

	// CreatedAt is the creation timestamp.
	CreatedAt time.Time
}

// CreateSkillHandler handles the CreateSkillCommand.
type CreateSkillHandler struct {
	store     skill.ActivityStore
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewCreateSkillHandler creates a new CreateSkillHandler.
func NewCreateSkillHandler(store skill.ActivityStore, publisher shared.EventPublisher) *CreateSkillHandler {
	return &CreateSkillHandler{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// Handle executes the create skill command.
func (h *CreateSkillHandler) Handle(ctx context.Context, cmd CreateSkillCommand) (*CreateSkillResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.NewDomainError("skill", "Create", shared.ErrValidation, err.Error())
	}

	now := h.now().UTC()
	sk, err := skill.NewSkill(
		shared.SkillID(uuid.NewString()),
		cmd.UserID,
		cmd.Name,
		cmd.Category,
		cmd.Description,
		now,
	)
	if err != nil {
		return nil, shared.NewDomainError("skill", "Create", shared.ErrValidation, err.Error())
	}

	if err := h.store.CreateSkill(ctx, sk); err != nil {
		return nil, fmt.Errorf("create_skill: %w", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewBaseEvent(shared.EventSkillCreated, string(sk.ID), now))
	}

	return &CreateSkillResult{
		SkillID:   sk.ID,
		Name:      sk.Name,
		Category:  sk.Category,
		CreatedAt: sk.CreatedAt,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ARCHIVE SKILL COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// ArchiveSkillCommand soft-deletes a skill. Its history stays in the
// log and keeps feeding aggregation.
type ArchiveSkillCommand struct {
	UserID  shared.UserID
	SkillID shared.SkillID
}

// Validate validates the command.
func (c ArchiveSkillCommand) Validate() error {
	if !c.UserID.IsValid() {
		return errors.New("archive_skill: user_id is required")
	}
	if !c.SkillID.IsValid() {
		return errors.New("archive_skill: skill_id is required")
	}
	return nil
}

// ArchiveSkillHandler handles the ArchiveSkillCommand.
type ArchiveSkillHandler struct {
	store     skill.ActivityStore
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewArchiveSkillHandler creates a new ArchiveSkillHandler.
func NewArchiveSkillHandler(store skill.ActivityStore, publisher shared.EventPublisher) *ArchiveSkillHandler {
	return &ArchiveSkillHandler{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// Handle executes the archive skill command.
func (h *ArchiveSkillHandler) Handle(ctx context.Context, cmd ArchiveSkillCommand) error {
	if err := cmd.Validate(); err != nil {
		return shared.NewDomainError("skill", "Archive", shared.ErrValidation, err.Error())
	}

	now := h.now().UTC()
	if err := h.store.ArchiveSkill(ctx, cmd.UserID, cmd.SkillID, now); err != nil {
		return fmt.Errorf("archive_skill: %w", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewBaseEvent(shared.EventSkillArchived, string(cmd.SkillID), now))
	}
	return nil
}
