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
// ADD JOURNAL ENTRY COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// AddJournalEntryCommand appends a progress note to the activity log.
type AddJournalEntryCommand struct {
	// UserID is the authenticated owner.
	UserID shared.UserID

	// SkillID optionally ties the entry to one skill.
	SkillID *shared.SkillID

	// Text is the note body.
	Text string

	// Mood is an optional free-form mood tag.
	Mood string

	// ResourceRef optionally records a catalog resource the user
	// consumed. Consumed refs feed the freshness penalty.
	ResourceRef string
}

// Validate validates the command.
func (c AddJournalEntryCommand) Validate() error {
	if !c.UserID.IsValid() {
		return errors.New("add_journal: user_id is required")
	}
	if strings.TrimSpace(c.Text) == "" {
		return errors.New("add_journal: text is required")
	}
	if c.SkillID != nil && !c.SkillID.IsValid() {
		return errors.New("add_journal: skill_id cannot be empty when set")
	}
	return nil
}

// AddJournalEntryResult contains the result of adding a journal entry.
type AddJournalEntryResult struct {
	EntryID   string
	CreatedAt time.Time
}

// AddJournalEntryHandler handles the AddJournalEntryCommand.
type AddJournalEntryHandler struct {
	store     skill.ActivityStore
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewAddJournalEntryHandler creates a new AddJournalEntryHandler.
func NewAddJournalEntryHandler(store skill.ActivityStore, publisher shared.EventPublisher) *AddJournalEntryHandler {
	return &AddJournalEntryHandler{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// Handle executes the add journal entry command.
func (h *AddJournalEntryHandler) Handle(ctx context.Context, cmd AddJournalEntryCommand) (*AddJournalEntryResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.NewDomainError("skill", "AddJournal", shared.ErrValidation, err.Error())
	}

	now := h.now().UTC()
	entry, err := skill.NewJournalEntry(
		uuid.NewString(),
		cmd.UserID,
		cmd.SkillID,
		cmd.Text,
		cmd.Mood,
		cmd.ResourceRef,
		now,
	)
	if err != nil {
		return nil, shared.NewDomainError("skill", "AddJournal", shared.ErrValidation, err.Error())
	}

	if err := h.store.RecordJournalEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("add_journal: %w", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewBaseEvent(shared.EventJournalAdded, entry.ID, now))
	}

	return &AddJournalEntryResult{EntryID: entry.ID, CreatedAt: entry.CreatedAt}, nil
}
