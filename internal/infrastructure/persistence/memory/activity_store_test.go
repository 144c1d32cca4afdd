package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/skill"
)

var storeNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func mustSkill(t *testing.T, store *ActivityStore, userID shared.UserID, id shared.SkillID, name string) *skill.Skill {
	t.Helper()
	sk, err := skill.NewSkill(id, userID, name, "Programming", "", storeNow)
	require.NoError(t, err)
	require.NoError(t, store.CreateSkill(context.Background(), sk))
	return sk
}

func TestActivityStore_CreateAndGetSkill(t *testing.T) {
	store := NewActivityStore()
	ctx := context.Background()

	mustSkill(t, store, "user-1", "go", "Go")

	got, err := store.GetSkill(ctx, "user-1", "go")
	require.NoError(t, err)
	assert.Equal(t, "Go", got.Name)

	_, err = store.GetSkill(ctx, "user-1", "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestActivityStore_DuplicateActiveNameRejected(t *testing.T) {
	store := NewActivityStore()
	ctx := context.Background()

	mustSkill(t, store, "user-1", "go", "Go")

	dup, err := skill.NewSkill("go-2", "user-1", "go", "Programming", "", storeNow)
	require.NoError(t, err)
	assert.ErrorIs(t, store.CreateSkill(ctx, dup), shared.ErrAlreadyExists)

	// Archiving frees the name.
	require.NoError(t, store.ArchiveSkill(ctx, "user-1", "go", storeNow))
	assert.NoError(t, store.CreateSkill(ctx, dup))
}

func TestActivityStore_SkillsAreScopedPerUser(t *testing.T) {
	store := NewActivityStore()
	ctx := context.Background()

	mustSkill(t, store, "user-1", "go", "Go")

	_, err := store.GetSkill(ctx, "user-2", "go")
	assert.ErrorIs(t, err, shared.ErrNotFound, "another user's skill is invisible")
}

func TestActivityStore_RecordSessionValidation(t *testing.T) {
	store := NewActivityStore()
	ctx := context.Background()

	mustSkill(t, store, "user-1", "go", "Go")

	t.Run("unknown skill", func(t *testing.T) {
		sess := &skill.StudySession{ID: "s1", UserID: "user-1", SkillID: "missing", StartedAt: storeNow, DurationMinutes: 30}
		assert.ErrorIs(t, store.RecordSession(ctx, sess), shared.ErrNotFound)
	})

	t.Run("negative duration rejected whole", func(t *testing.T) {
		sess := &skill.StudySession{ID: "s2", UserID: "user-1", SkillID: "go", StartedAt: storeNow, DurationMinutes: -5}
		assert.ErrorIs(t, store.RecordSession(ctx, sess), skill.ErrNegativeDuration)

		sessions, err := store.ListSessions(ctx, "user-1", skill.ListFilters{})
		require.NoError(t, err)
		assert.Empty(t, sessions, "rejected write leaves no partial state")
	})

	t.Run("archived skill rejected", func(t *testing.T) {
		mustSkill(t, store, "user-1", "old", "Old")
		require.NoError(t, store.ArchiveSkill(ctx, "user-1", "old", storeNow))

		sess := &skill.StudySession{ID: "s3", UserID: "user-1", SkillID: "old", StartedAt: storeNow, DurationMinutes: 30}
		assert.ErrorIs(t, store.RecordSession(ctx, sess), shared.ErrArchived)
	})
}

func TestActivityStore_ListSessionsFilters(t *testing.T) {
	store := NewActivityStore()
	ctx := context.Background()

	mustSkill(t, store, "user-1", "go", "Go")
	mustSkill(t, store, "user-1", "piano", "Piano")

	for i, id := range []shared.SkillID{"go", "piano", "go"} {
		sess := &skill.StudySession{
			ID: string(rune('a' + i)), UserID: "user-1", SkillID: id,
			StartedAt:       storeNow.AddDate(0, 0, i),
			DurationMinutes: 30,
		}
		require.NoError(t, store.RecordSession(ctx, sess))
	}

	bySkill, err := store.ListSessions(ctx, "user-1", skill.ListFilters{SkillID: "go"})
	require.NoError(t, err)
	assert.Len(t, bySkill, 2)

	byRange, err := store.ListSessions(ctx, "user-1", skill.ListFilters{From: storeNow.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Len(t, byRange, 2)

	limited, err := store.ListSessions(ctx, "user-1", skill.ListFilters{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestActivityStore_ListSessionsOrdersBackdatedEntries(t *testing.T) {
	store := NewActivityStore()
	ctx := context.Background()

	mustSkill(t, store, "user-1", "go", "Go")

	// Insert today's session first, then a backdated one.
	today := &skill.StudySession{ID: "s-today", UserID: "user-1", SkillID: "go", StartedAt: storeNow, DurationMinutes: 30}
	require.NoError(t, store.RecordSession(ctx, today))
	earlier := &skill.StudySession{ID: "s-earlier", UserID: "user-1", SkillID: "go", StartedAt: storeNow.AddDate(0, 0, -2), DurationMinutes: 45}
	require.NoError(t, store.RecordSession(ctx, earlier))

	sessions, err := store.ListSessions(ctx, "user-1", skill.ListFilters{})
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s-earlier", sessions[0].ID, "StartedAt ascending, not insertion order")
	assert.Equal(t, "s-today", sessions[1].ID)

	// The limit keeps the earliest session, not the first inserted.
	limited, err := store.ListSessions(ctx, "user-1", skill.ListFilters{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "s-earlier", limited[0].ID)
}

func TestActivityStore_GoalLifecycle(t *testing.T) {
	store := NewActivityStore()
	ctx := context.Background()

	goal, err := skill.NewGoalEntry("g1", "user-1", nil, "practice scales", nil, storeNow)
	require.NoError(t, err)
	require.NoError(t, store.RecordGoal(ctx, goal))

	done, err := store.SetGoalCompletion(ctx, "user-1", "g1", true, storeNow)
	require.NoError(t, err)
	assert.True(t, done.Completed)

	// Completing twice fails; reopening works.
	_, err = store.SetGoalCompletion(ctx, "user-1", "g1", true, storeNow)
	assert.ErrorIs(t, err, skill.ErrGoalCompleted)

	reopened, err := store.SetGoalCompletion(ctx, "user-1", "g1", false, storeNow)
	require.NoError(t, err)
	assert.False(t, reopened.Completed)

	_, err = store.SetGoalCompletion(ctx, "user-1", "missing", true, storeNow)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestActivityStore_SnapshotIsImmutable(t *testing.T) {
	store := NewActivityStore()
	ctx := context.Background()

	mustSkill(t, store, "user-1", "go", "Go")
	sess := &skill.StudySession{ID: "s1", UserID: "user-1", SkillID: "go", StartedAt: storeNow, DurationMinutes: 60}
	require.NoError(t, store.RecordSession(ctx, sess))

	snap, err := store.Snapshot(ctx, "user-1", storeNow)
	require.NoError(t, err)
	require.Len(t, snap.Sessions, 1)

	// A write after the snapshot must not leak into it.
	later := &skill.StudySession{ID: "s2", UserID: "user-1", SkillID: "go", StartedAt: storeNow.Add(time.Hour), DurationMinutes: 30}
	require.NoError(t, store.RecordSession(ctx, later))
	assert.Len(t, snap.Sessions, 1)
}

func TestActivityStore_BadgesAreOneWay(t *testing.T) {
	store := NewActivityStore()
	ctx := context.Background()

	first := storeNow
	require.NoError(t, store.MarkEarned(ctx, "user-1", "entry", first))
	require.NoError(t, store.MarkEarned(ctx, "user-1", "entry", first.Add(time.Hour)))

	earned, err := store.EarnedBadgeIDs(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, first, earned["entry"], "re-marking keeps the original timestamp")
}

func TestActivityStore_ConcurrentUsersDoNotInterfere(t *testing.T) {
	store := NewActivityStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	users := []shared.UserID{"u1", "u2", "u3", "u4"}
	for _, userID := range users {
		wg.Add(1)
		go func(userID shared.UserID) {
			defer wg.Done()
			sk, err := skill.NewSkill("go", userID, "Go", "Programming", "", storeNow)
			require.NoError(t, err)
			require.NoError(t, store.CreateSkill(ctx, sk))
			for i := 0; i < 20; i++ {
				sess := &skill.StudySession{
					ID: string(rune('a' + i)), UserID: userID, SkillID: "go",
					StartedAt: storeNow.Add(time.Duration(i) * time.Minute), DurationMinutes: 10,
				}
				require.NoError(t, store.RecordSession(ctx, sess))
			}
		}(userID)
	}
	wg.Wait()

	for _, userID := range users {
		sessions, err := store.ListSessions(ctx, userID, skill.ListFilters{})
		require.NoError(t, err)
		assert.Len(t, sessions, 20)
	}
}
