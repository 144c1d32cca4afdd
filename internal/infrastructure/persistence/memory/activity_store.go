// Package memory implements the activity and badge stores in process
// memory. Used by the test suite and by development mode (STORE_DRIVER=
// memory), mirroring the concurrency contract of the durable store:
// writes for one user are serialized behind a per-user lock, reads copy
// the records into an immutable snapshot, and different users never
// contend on anything.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/skill"
)

// userLog holds one user's records behind a single-writer lock.
type userLog struct {
	mu       sync.RWMutex
	skills   []skill.Skill
	sessions []skill.StudySession
	journal  []skill.JournalEntry
	goals    []skill.GoalEntry
	badges   map[string]time.Time
}

// ActivityStore is an in-memory skill.ActivityStore and skill.BadgeStore.
type ActivityStore struct {
	mu    sync.RWMutex
	users map[shared.UserID]*userLog
}

// NewActivityStore creates an empty in-memory store.
func NewActivityStore() *ActivityStore {
	return &ActivityStore{users: make(map[shared.UserID]*userLog)}
}

// logFor returns the per-user log, creating it on first touch.
func (s *ActivityStore) logFor(userID shared.UserID) *userLog {
	s.mu.RLock()
	log, ok := s.users[userID]
	s.mu.RUnlock()
	if ok {
		return log
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if log, ok = s.users[userID]; ok {
		return log
	}
	log = &userLog{badges: make(map[string]time.Time)}
	s.users[userID] = log
	return log
}

// CreateSkill implements skill.ActivityStore.
func (s *ActivityStore) CreateSkill(ctx context.Context, sk *skill.Skill) error {
	if sk == nil || !sk.UserID.IsValid() {
		return skill.ErrInvalidUserID
	}

	log := s.logFor(sk.UserID)
	log.mu.Lock()
	defer log.mu.Unlock()

	for _, existing := range log.skills {
		if !existing.IsArchived() && strings.EqualFold(existing.Name, sk.Name) {
			return shared.ErrSkillAlreadyExists
		}
	}
	log.skills = append(log.skills, *sk)
	return nil
}

// GetSkill implements skill.ActivityStore.
func (s *ActivityStore) GetSkill(ctx context.Context, userID shared.UserID, skillID shared.SkillID) (*skill.Skill, error) {
	log := s.logFor(userID)
	log.mu.RLock()
	defer log.mu.RUnlock()

	for i := range log.skills {
		if log.skills[i].ID == skillID {
			sk := log.skills[i]
			return &sk, nil
		}
	}
	return nil, shared.ErrSkillNotFound
}

// ListSkills implements skill.ActivityStore.
func (s *ActivityStore) ListSkills(ctx context.Context, userID shared.UserID) ([]skill.Skill, error) {
	log := s.logFor(userID)
	log.mu.RLock()
	defer log.mu.RUnlock()
	return append([]skill.Skill(nil), log.skills...), nil
}

// ArchiveSkill implements skill.ActivityStore.
func (s *ActivityStore) ArchiveSkill(ctx context.Context, userID shared.UserID, skillID shared.SkillID, at time.Time) error {
	log := s.logFor(userID)
	log.mu.Lock()
	defer log.mu.Unlock()

	for i := range log.skills {
		if log.skills[i].ID == skillID {
			return log.skills[i].Archive(at)
		}
	}
	return shared.ErrSkillNotFound
}

// RecordSession implements skill.ActivityStore. The write is rejected
// whole on validation failure, never partially applied.
func (s *ActivityStore) RecordSession(ctx context.Context, session *skill.StudySession) error {
	if session == nil || !session.UserID.IsValid() {
		return skill.ErrInvalidUserID
	}
	if !session.DurationMinutes.IsValid() {
		return skill.ErrNegativeDuration
	}

	log := s.logFor(session.UserID)
	log.mu.Lock()
	defer log.mu.Unlock()

	target := s.findSkillLocked(log, session.SkillID)
	if target == nil {
		return shared.ErrSkillNotFound
	}
	if target.IsArchived() {
		return shared.ErrSkillArchived
	}

	log.sessions = append(log.sessions, *session)
	return nil
}

// RecordJournalEntry implements skill.ActivityStore.
func (s *ActivityStore) RecordJournalEntry(ctx context.Context, entry *skill.JournalEntry) error {
	if entry == nil || !entry.UserID.IsValid() {
		return skill.ErrInvalidUserID
	}

	log := s.logFor(entry.UserID)
	log.mu.Lock()
	defer log.mu.Unlock()

	if entry.SkillID != nil && s.findSkillLocked(log, *entry.SkillID) == nil {
		return shared.ErrSkillNotFound
	}
	log.journal = append(log.journal, *entry)
	return nil
}

// RecordGoal implements skill.ActivityStore.
func (s *ActivityStore) RecordGoal(ctx context.Context, goal *skill.GoalEntry) error {
	if goal == nil || !goal.UserID.IsValid() {
		return skill.ErrInvalidUserID
	}

	log := s.logFor(goal.UserID)
	log.mu.Lock()
	defer log.mu.Unlock()

	if goal.SkillID != nil && s.findSkillLocked(log, *goal.SkillID) == nil {
		return shared.ErrSkillNotFound
	}
	log.goals = append(log.goals, *goal)
	return nil
}

// SetGoalCompletion implements skill.ActivityStore.
func (s *ActivityStore) SetGoalCompletion(ctx context.Context, userID shared.UserID, goalID string, completed bool, at time.Time) (*skill.GoalEntry, error) {
	log := s.logFor(userID)
	log.mu.Lock()
	defer log.mu.Unlock()

	for i := range log.goals {
		if log.goals[i].ID != goalID {
			continue
		}
		var err error
		if completed {
			err = log.goals[i].Complete(at)
		} else {
			err = log.goals[i].Reopen()
		}
		if err != nil {
			return nil, err
		}
		goal := log.goals[i]
		return &goal, nil
	}
	return nil, shared.ErrGoalNotFound
}

// ListSessions implements skill.ActivityStore. Sessions come back ordered
// by StartedAt ascending with insertion order breaking ties, matching the
// durable store; the limit keeps the earliest sessions, not the first
// inserted, so backdated entries land where they belong.
func (s *ActivityStore) ListSessions(ctx context.Context, userID shared.UserID, filters skill.ListFilters) ([]skill.StudySession, error) {
	log := s.logFor(userID)
	log.mu.RLock()
	defer log.mu.RUnlock()

	out := make([]skill.StudySession, 0, len(log.sessions))
	for _, sess := range log.sessions {
		if matchesSession(sess, filters) {
			out = append(out, sess)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

// ListJournalEntries implements skill.ActivityStore.
func (s *ActivityStore) ListJournalEntries(ctx context.Context, userID shared.UserID, filters skill.ListFilters) ([]skill.JournalEntry, error) {
	log := s.logFor(userID)
	log.mu.RLock()
	defer log.mu.RUnlock()

	out := make([]skill.JournalEntry, 0, len(log.journal))
	for _, entry := range log.journal {
		if filters.SkillID.IsValid() && (entry.SkillID == nil || *entry.SkillID != filters.SkillID) {
			continue
		}
		if !filters.From.IsZero() && entry.CreatedAt.Before(filters.From) {
			continue
		}
		if !filters.To.IsZero() && !entry.CreatedAt.Before(filters.To) {
			continue
		}
		out = append(out, entry)
		if filters.Limit > 0 && len(out) == filters.Limit {
			break
		}
	}
	return out, nil
}

// ListGoals implements skill.ActivityStore.
func (s *ActivityStore) ListGoals(ctx context.Context, userID shared.UserID) ([]skill.GoalEntry, error) {
	log := s.logFor(userID)
	log.mu.RLock()
	defer log.mu.RUnlock()
	return append([]skill.GoalEntry(nil), log.goals...), nil
}

// Snapshot implements skill.ActivityStore. The returned snapshot owns
// copies of every record: writes after this call are invisible to it.
func (s *ActivityStore) Snapshot(ctx context.Context, userID shared.UserID, at time.Time) (*skill.Snapshot, error) {
	log := s.logFor(userID)
	log.mu.RLock()
	defer log.mu.RUnlock()

	return skill.NewSnapshot(userID, at, log.skills, log.sessions, log.journal, log.goals), nil
}

// EarnedBadgeIDs implements skill.BadgeStore.
func (s *ActivityStore) EarnedBadgeIDs(ctx context.Context, userID shared.UserID) (map[string]time.Time, error) {
	log := s.logFor(userID)
	log.mu.RLock()
	defer log.mu.RUnlock()

	out := make(map[string]time.Time, len(log.badges))
	for id, at := range log.badges {
		out[id] = at
	}
	return out, nil
}

// MarkEarned implements skill.BadgeStore. Earning is one-way; marking an
// already-earned badge keeps the original timestamp.
func (s *ActivityStore) MarkEarned(ctx context.Context, userID shared.UserID, badgeID string, at time.Time) error {
	log := s.logFor(userID)
	log.mu.Lock()
	defer log.mu.Unlock()

	if _, ok := log.badges[badgeID]; !ok {
		log.badges[badgeID] = at
	}
	return nil
}

// findSkillLocked looks a skill up under the caller's lock.
func (s *ActivityStore) findSkillLocked(log *userLog, skillID shared.SkillID) *skill.Skill {
	for i := range log.skills {
		if log.skills[i].ID == skillID {
			return &log.skills[i]
		}
	}
	return nil
}

// matchesSession applies list filters to one session.
func matchesSession(sess skill.StudySession, filters skill.ListFilters) bool {
	if filters.SkillID.IsValid() && sess.SkillID != filters.SkillID {
		return false
	}
	if !filters.From.IsZero() && sess.StartedAt.Before(filters.From) {
		return false
	}
	if !filters.To.IsZero() && !sess.StartedAt.Before(filters.To) {
		return false
	}
	return true
}
