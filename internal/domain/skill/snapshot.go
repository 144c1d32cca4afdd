package skill

import (
	"sort"
	"time"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
)

// Snapshot is an immutable read-view of one user's activity data, fixed at
// the start of a request. All aggregation, badge evaluation, and
// recommendation scoring for a request runs against one snapshot, so a
// response is always internally consistent: writes landing mid-request are
// only visible to the next snapshot.
type Snapshot struct {
	UserID   shared.UserID
	TakenAt  time.Time
	Skills   []Skill
	Sessions []StudySession // ordered by StartedAt ascending, insertion order as tie-break
	Journal  []JournalEntry // ordered by CreatedAt ascending
	Goals    []GoalEntry    // ordered by CreatedAt ascending
}

// NewSnapshot builds a snapshot from copies of the given records, sorting
// them into the canonical order the aggregator depends on. The caller keeps
// ownership of the input slices; the snapshot never aliases them.
func NewSnapshot(userID shared.UserID, takenAt time.Time, skills []Skill, sessions []StudySession, journal []JournalEntry, goals []GoalEntry) *Snapshot {
	snap := &Snapshot{
		UserID:   userID,
		TakenAt:  takenAt,
		Skills:   append([]Skill(nil), skills...),
		Sessions: append([]StudySession(nil), sessions...),
		Journal:  append([]JournalEntry(nil), journal...),
		Goals:    append([]GoalEntry(nil), goals...),
	}

	// Stable sort keeps insertion order for identical timestamps.
	sort.SliceStable(snap.Sessions, func(i, j int) bool {
		return snap.Sessions[i].StartedAt.Before(snap.Sessions[j].StartedAt)
	})
	sort.SliceStable(snap.Journal, func(i, j int) bool {
		return snap.Journal[i].CreatedAt.Before(snap.Journal[j].CreatedAt)
	})
	sort.SliceStable(snap.Goals, func(i, j int) bool {
		return snap.Goals[i].CreatedAt.Before(snap.Goals[j].CreatedAt)
	})

	return snap
}

// SkillByID finds a skill in the snapshot.
func (s *Snapshot) SkillByID(id shared.SkillID) (*Skill, bool) {
	for i := range s.Skills {
		if s.Skills[i].ID == id {
			return &s.Skills[i], true
		}
	}
	return nil, false
}

// ActiveSkills returns the skills that have not been archived.
func (s *Snapshot) ActiveSkills() []Skill {
	active := make([]Skill, 0, len(s.Skills))
	for _, sk := range s.Skills {
		if !sk.IsArchived() {
			active = append(active, sk)
		}
	}
	return active
}

// SessionsBySkill groups sessions by skill, preserving chronological order.
func (s *Snapshot) SessionsBySkill() map[shared.SkillID][]StudySession {
	grouped := make(map[shared.SkillID][]StudySession)
	for _, sess := range s.Sessions {
		grouped[sess.SkillID] = append(grouped[sess.SkillID], sess)
	}
	return grouped
}

// DistinctSkillsPracticed counts skills with at least one session.
func (s *Snapshot) DistinctSkillsPracticed() int {
	seen := make(map[shared.SkillID]struct{})
	for _, sess := range s.Sessions {
		seen[sess.SkillID] = struct{}{}
	}
	return len(seen)
}

// ConsumedResourceRefs returns the set of external resource references the
// user has journaled about. Used for the recommendation freshness penalty.
func (s *Snapshot) ConsumedResourceRefs() map[string]struct{} {
	refs := make(map[string]struct{})
	for _, entry := range s.Journal {
		if entry.ResourceRef != "" {
			refs[entry.ResourceRef] = struct{}{}
		}
	}
	return refs
}
