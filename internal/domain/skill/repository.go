// Package skill contains domain entities and business logic for a user's
// tracked skills, study sessions, journal entries, and daily goals.
package skill

import (
	"context"
	"time"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
)

// ListFilters narrows a listByUser read. Zero values mean "no filter".
type ListFilters struct {
	// SkillID restricts results to one skill.
	SkillID shared.SkillID

	// From/To bound the time range (inclusive from, exclusive to).
	From time.Time
	To   time.Time

	// Limit caps the number of returned records (0 = unlimited).
	Limit int
}

// ActivityStore is the durable, append-only record of a user's skills,
// study sessions, journal entries, and goals. It is a pure log: no
// aggregation or recomputation happens here.
//
// Concurrency contract: writes for a single user are serialized
// (single-writer-per-user); reads operate on a snapshot and may proceed
// concurrently with writes. Different users never contend.
//
// Implemented by the infrastructure layer (postgres for durability,
// memory for tests and development).
type ActivityStore interface {
	// Skill operations

	// CreateSkill persists a new skill. Fails with shared.ErrAlreadyExists
	// if the user already has an active skill with the same name.
	CreateSkill(ctx context.Context, sk *Skill) error

	// GetSkill returns a skill by ID. Fails with shared.ErrNotFound if the
	// skill does not exist or belongs to a different user.
	GetSkill(ctx context.Context, userID shared.UserID, skillID shared.SkillID) (*Skill, error)

	// ListSkills returns all skills for a user, including archived ones,
	// ordered by creation time ascending.
	ListSkills(ctx context.Context, userID shared.UserID) ([]Skill, error)

	// ArchiveSkill soft-deletes a skill: it is marked inactive but its
	// history is never physically removed. Fails with shared.ErrNotFound
	// for an unknown skill.
	ArchiveSkill(ctx context.Context, userID shared.UserID, skillID shared.SkillID, at time.Time) error

	// Append operations

	// RecordSession appends a study session. Fails with a validation error
	// on negative duration and shared.ErrNotFound on an unknown skill;
	// a rejected write is never partially applied.
	RecordSession(ctx context.Context, session *StudySession) error

	// RecordJournalEntry appends a journal entry.
	RecordJournalEntry(ctx context.Context, entry *JournalEntry) error

	// RecordGoal appends a goal entry.
	RecordGoal(ctx context.Context, goal *GoalEntry) error

	// SetGoalCompletion flips a goal's completion state. This is the only
	// mutation allowed on recorded entries.
	SetGoalCompletion(ctx context.Context, userID shared.UserID, goalID string, completed bool, at time.Time) (*GoalEntry, error)

	// Read operations

	// ListSessions returns sessions ordered by StartedAt ascending,
	// insertion order as tie-break for identical timestamps.
	ListSessions(ctx context.Context, userID shared.UserID, filters ListFilters) ([]StudySession, error)

	// ListJournalEntries returns journal entries ordered by CreatedAt ascending.
	ListJournalEntries(ctx context.Context, userID shared.UserID, filters ListFilters) ([]JournalEntry, error)

	// ListGoals returns goal entries ordered by CreatedAt ascending.
	ListGoals(ctx context.Context, userID shared.UserID) ([]GoalEntry, error)

	// Snapshot returns an immutable read-view of everything the store
	// holds for one user, fixed at the moment of the call.
	Snapshot(ctx context.Context, userID shared.UserID, at time.Time) (*Snapshot, error)
}

// BadgeStore persists earned badges. Earning is one-way: the store only
// ever inserts, it never deletes or downgrades an earned badge.
type BadgeStore interface {
	// EarnedBadgeIDs returns the set of badge IDs the user has earned.
	EarnedBadgeIDs(ctx context.Context, userID shared.UserID) (map[string]time.Time, error)

	// MarkEarned records that a badge was earned at the given time.
	// Marking an already-earned badge is a no-op.
	MarkEarned(ctx context.Context, userID shared.UserID, badgeID string, at time.Time) error
}
