package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/skill"
	"github.com/skilltrack-hub/skill-progress-hub/internal/infrastructure/persistence/memory"
)

// recordingPublisher collects published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

func seedSkill(t *testing.T, store *memory.ActivityStore, userID shared.UserID) shared.SkillID {
	t.Helper()
	h := NewCreateSkillHandler(store, nil)
	res, err := h.Handle(context.Background(), CreateSkillCommand{
		UserID:   userID,
		Name:     "Go",
		Category: "programming",
	})
	require.NoError(t, err)
	return res.SkillID
}

func TestCreateSkillHandler(t *testing.T) {
	store := memory.NewActivityStore()
	pub := &recordingPublisher{}
	h := NewCreateSkillHandler(store, pub)
	ctx := context.Background()

	t.Run("creates and publishes", func(t *testing.T) {
		res, err := h.Handle(ctx, CreateSkillCommand{
			UserID:      "user-1",
			Name:        "Go",
			Category:    "programming",
			Description: "systems language",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, res.SkillID)
		assert.Equal(t, "Go", res.Name)
		assert.Contains(t, pub.types(), shared.EventSkillCreated)
	})

	t.Run("rejects duplicate active name", func(t *testing.T) {
		_, err := h.Handle(ctx, CreateSkillCommand{
			UserID:   "user-1",
			Name:     "go", // case-insensitive match
			Category: "programming",
		})
		assert.ErrorIs(t, err, shared.ErrSkillAlreadyExists)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		_, err := h.Handle(ctx, CreateSkillCommand{UserID: "user-1"})
		assert.ErrorIs(t, err, shared.ErrValidation)

		_, err = h.Handle(ctx, CreateSkillCommand{Name: "Go", Category: "programming"})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestArchiveSkillHandler(t *testing.T) {
	store := memory.NewActivityStore()
	pub := &recordingPublisher{}
	ctx := context.Background()

	skillID := seedSkill(t, store, "user-1")
	h := NewArchiveSkillHandler(store, pub)

	require.NoError(t, h.Handle(ctx, ArchiveSkillCommand{UserID: "user-1", SkillID: skillID}))
	assert.Contains(t, pub.types(), shared.EventSkillArchived)

	// Archived skills no longer accept sessions.
	logH := NewLogStudySessionHandler(store, nil)
	_, err := logH.Handle(ctx, LogStudySessionCommand{
		UserID:          "user-1",
		SkillID:         skillID,
		DurationMinutes: 30,
	})
	assert.ErrorIs(t, err, shared.ErrSkillArchived)

	t.Run("unknown skill", func(t *testing.T) {
		err := h.Handle(ctx, ArchiveSkillCommand{UserID: "user-1", SkillID: "missing"})
		assert.ErrorIs(t, err, shared.ErrSkillNotFound)
	})
}

func TestLogStudySessionHandler(t *testing.T) {
	store := memory.NewActivityStore()
	pub := &recordingPublisher{}
	ctx := context.Background()

	skillID := seedSkill(t, store, "user-1")
	h := NewLogStudySessionHandler(store, pub)

	t.Run("defaults start to now", func(t *testing.T) {
		fixed := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
		h.now = func() time.Time { return fixed }

		res, err := h.Handle(ctx, LogStudySessionCommand{
			UserID:          "user-1",
			SkillID:         skillID,
			DurationMinutes: 90,
		})
		require.NoError(t, err)
		assert.Equal(t, fixed, res.StartedAt)
		assert.InDelta(t, 1.5, res.Hours, 1e-9)
		assert.Contains(t, pub.types(), shared.EventSessionLogged)
	})

	t.Run("zero duration is a valid session", func(t *testing.T) {
		res, err := h.Handle(ctx, LogStudySessionCommand{
			UserID:  "user-1",
			SkillID: skillID,
		})
		require.NoError(t, err)
		assert.Zero(t, res.Hours)
	})

	t.Run("negative duration rejected whole", func(t *testing.T) {
		before, err := store.ListSessions(ctx, "user-1", skill.ListFilters{})
		require.NoError(t, err)

		_, err = h.Handle(ctx, LogStudySessionCommand{
			UserID:          "user-1",
			SkillID:         skillID,
			DurationMinutes: -5,
		})
		assert.ErrorIs(t, err, shared.ErrValidation)

		after, err := store.ListSessions(ctx, "user-1", skill.ListFilters{})
		require.NoError(t, err)
		assert.Len(t, after, len(before), "rejected append leaves the log untouched")
	})

	t.Run("unknown skill", func(t *testing.T) {
		_, err := h.Handle(ctx, LogStudySessionCommand{
			UserID:          "user-1",
			SkillID:         "missing",
			DurationMinutes: 10,
		})
		assert.ErrorIs(t, err, shared.ErrSkillNotFound)
	})
}

func TestAddJournalEntryHandler(t *testing.T) {
	store := memory.NewActivityStore()
	pub := &recordingPublisher{}
	h := NewAddJournalEntryHandler(store, pub)
	ctx := context.Background()

	skillID := seedSkill(t, store, "user-1")

	res, err := h.Handle(ctx, AddJournalEntryCommand{
		UserID:      "user-1",
		SkillID:     &skillID,
		Text:        "finished the concurrency chapter",
		Mood:        "energized",
		ResourceRef: "https://example.com/go-book",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.EntryID)
	assert.Contains(t, pub.types(), shared.EventJournalAdded)

	// Consumed refs surface through the snapshot for freshness scoring.
	snap, err := store.Snapshot(ctx, "user-1", time.Now().UTC())
	require.NoError(t, err)
	_, consumed := snap.ConsumedResourceRefs()["https://example.com/go-book"]
	assert.True(t, consumed)

	t.Run("blank text rejected", func(t *testing.T) {
		_, err := h.Handle(ctx, AddJournalEntryCommand{UserID: "user-1", Text: "   "})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestGoalHandlers(t *testing.T) {
	store := memory.NewActivityStore()
	pub := &recordingPublisher{}
	ctx := context.Background()

	addH := NewAddGoalHandler(store, pub)
	toggleH := NewToggleGoalHandler(store, pub)

	target := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	res, err := addH.Handle(ctx, AddGoalCommand{
		UserID:     "user-1",
		Text:       "ship a CLI tool",
		TargetDate: &target,
	})
	require.NoError(t, err)
	assert.Contains(t, pub.types(), shared.EventGoalAdded)

	t.Run("complete then reopen", func(t *testing.T) {
		done, err := toggleH.Handle(ctx, ToggleGoalCommand{
			UserID: "user-1", GoalID: res.GoalID, Completed: true,
		})
		require.NoError(t, err)
		assert.True(t, done.Completed)
		require.NotNil(t, done.CompletedAt)
		assert.Contains(t, pub.types(), shared.EventGoalCompleted)

		reopened, err := toggleH.Handle(ctx, ToggleGoalCommand{
			UserID: "user-1", GoalID: res.GoalID, Completed: false,
		})
		require.NoError(t, err)
		assert.False(t, reopened.Completed)
		assert.Nil(t, reopened.CompletedAt)
	})

	t.Run("unknown goal", func(t *testing.T) {
		_, err := toggleH.Handle(ctx, ToggleGoalCommand{
			UserID: "user-1", GoalID: "missing", Completed: true,
		})
		assert.ErrorIs(t, err, shared.ErrGoalNotFound)
	})
}
