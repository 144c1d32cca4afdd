// Package skill contains domain entities and business logic for a user's
// tracked skills, study sessions, journal entries, and daily goals.
// This is a pure domain layer with zero external dependencies.
package skill

import (
	"errors"
	"strings"
	"time"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
)

// Domain errors for the skill package.
var (
	ErrInvalidUserID    = errors.New("skill: invalid user ID")
	ErrInvalidSkillID   = errors.New("skill: invalid skill ID")
	ErrEmptyName        = errors.New("skill: name cannot be empty")
	ErrEmptyCategory    = errors.New("skill: category cannot be empty")
	ErrNegativeDuration = errors.New("skill: duration cannot be negative")
	ErrEmptyText        = errors.New("skill: entry text cannot be empty")
	ErrFutureTimestamp  = errors.New("skill: timestamp cannot be in the future")
)

// Conflict errors carry a shared taxonomy kind so transports can map a
// repeated transition to 409 instead of treating it as a server failure.
var (
	ErrAlreadyArchived  = shared.NewDomainError("skill", "Archive", shared.ErrArchived, "skill already archived")
	ErrGoalCompleted    = shared.NewDomainError("skill", "CompleteGoal", shared.ErrStateTransition, "goal already completed")
	ErrGoalNotCompleted = shared.NewDomainError("skill", "ReopenGoal", shared.ErrStateTransition, "goal is not completed")
)

// Default categories offered when a user has none yet.
// Mirrors the catalog the original tracker shipped with.
var DefaultCategories = []shared.Category{
	"Programming",
	"Design",
	"Data Science",
	"Language",
	"Soft Skills",
	"Music",
	"Cooking",
	"Sports",
	"Business",
	"Academic",
}

// SessionSource indicates how a study session was recorded.
type SessionSource string

const (
	// SourceManual - the user entered the duration by hand.
	SourceManual SessionSource = "manual"

	// SourceTimer - the duration was measured by the study timer.
	SourceTimer SessionSource = "timer"
)

// IsValid checks the source value.
func (s SessionSource) IsValid() bool {
	return s == SourceManual || s == SourceTimer
}

// Skill represents a single skill a user is developing.
// A skill is unique per (user, name), immutable after creation except for
// archiving: archiving marks it inactive but never erases it while study
// history still references it.
type Skill struct {
	ID          shared.SkillID
	UserID      shared.UserID
	Name        string
	Category    shared.Category
	Description string
	CreatedAt   time.Time
	ArchivedAt  *time.Time // nil while the skill is active
}

// NewSkill creates a new skill with validation.
func NewSkill(id shared.SkillID, userID shared.UserID, name string, category shared.Category, description string, createdAt time.Time) (*Skill, error) {
	if !id.IsValid() {
		return nil, ErrInvalidSkillID
	}
	if !userID.IsValid() {
		return nil, ErrInvalidUserID
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !category.IsValid() {
		return nil, ErrEmptyCategory
	}

	return &Skill{
		ID:          id,
		UserID:      userID,
		Name:        name,
		Category:    category,
		Description: strings.TrimSpace(description),
		CreatedAt:   createdAt,
	}, nil
}

// IsArchived reports whether the skill has been soft-deleted.
func (s *Skill) IsArchived() bool {
	return s.ArchivedAt != nil
}

// Archive marks the skill inactive. History referencing it stays intact.
func (s *Skill) Archive(at time.Time) error {
	if s.IsArchived() {
		return ErrAlreadyArchived
	}
	s.ArchivedAt = &at
	return nil
}

// StudySession is an append-only record of time spent on a skill.
// Once recorded it is immutable.
type StudySession struct {
	ID              string
	UserID          shared.UserID
	SkillID         shared.SkillID
	StartedAt       time.Time
	DurationMinutes shared.Minutes
	Source          SessionSource
}

// NewStudySession creates a study session record with validation.
// Zero-duration sessions are allowed (a timer stopped immediately);
// negative durations are rejected, never partially applied.
func NewStudySession(id string, userID shared.UserID, skillID shared.SkillID, startedAt time.Time, duration shared.Minutes, source SessionSource) (*StudySession, error) {
	if id == "" {
		return nil, errors.New("skill: invalid session ID")
	}
	if !userID.IsValid() {
		return nil, ErrInvalidUserID
	}
	if !skillID.IsValid() {
		return nil, ErrInvalidSkillID
	}
	if !duration.IsValid() {
		return nil, ErrNegativeDuration
	}
	if !source.IsValid() {
		source = SourceManual
	}

	return &StudySession{
		ID:              id,
		UserID:          userID,
		SkillID:         skillID,
		StartedAt:       startedAt,
		DurationMinutes: duration,
		Source:          source,
	}, nil
}

// Hours returns the session duration in fractional hours.
func (s *StudySession) Hours() float64 {
	return s.DurationMinutes.Hours()
}

// Day returns the calendar day the session started on.
func (s *StudySession) Day() shared.Day {
	return shared.DayOf(s.StartedAt)
}

// JournalEntry is a progress note, optionally tied to a skill and
// optionally referencing an external resource the user consumed.
// Entries are append-only.
type JournalEntry struct {
	ID          string
	UserID      shared.UserID
	SkillID     *shared.SkillID // nil for general entries
	Text        string
	Mood        string // optional, free-form ("motivated", "tired", ...)
	ResourceRef string // optional link to a consumed catalog resource
	CreatedAt   time.Time
}

// NewJournalEntry creates a journal entry with validation.
func NewJournalEntry(id string, userID shared.UserID, skillID *shared.SkillID, text, mood, resourceRef string, createdAt time.Time) (*JournalEntry, error) {
	if id == "" {
		return nil, errors.New("skill: invalid entry ID")
	}
	if !userID.IsValid() {
		return nil, ErrInvalidUserID
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if skillID != nil && !skillID.IsValid() {
		return nil, ErrInvalidSkillID
	}

	return &JournalEntry{
		ID:          id,
		UserID:      userID,
		SkillID:     skillID,
		Text:        strings.TrimSpace(text),
		Mood:        strings.TrimSpace(mood),
		ResourceRef: strings.TrimSpace(resourceRef),
		CreatedAt:   createdAt,
	}, nil
}

// GoalEntry is a goal the user set, optionally tied to a skill and
// optionally carrying a target date. Goals are mutable only through
// explicit completion transitions.
type GoalEntry struct {
	ID          string
	UserID      shared.UserID
	SkillID     *shared.SkillID
	Text        string
	TargetDate  *time.Time
	Completed   bool
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// NewGoalEntry creates a goal with validation.
func NewGoalEntry(id string, userID shared.UserID, skillID *shared.SkillID, text string, targetDate *time.Time, createdAt time.Time) (*GoalEntry, error) {
	if id == "" {
		return nil, errors.New("skill: invalid goal ID")
	}
	if !userID.IsValid() {
		return nil, ErrInvalidUserID
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if skillID != nil && !skillID.IsValid() {
		return nil, ErrInvalidSkillID
	}

	return &GoalEntry{
		ID:         id,
		UserID:     userID,
		SkillID:    skillID,
		Text:       strings.TrimSpace(text),
		TargetDate: targetDate,
		CreatedAt:  createdAt,
	}, nil
}

// Complete marks the goal as done.
func (g *GoalEntry) Complete(at time.Time) error {
	if g.Completed {
		return ErrGoalCompleted
	}
	g.Completed = true
	g.CompletedAt = &at
	return nil
}

// Reopen reverts a completed goal back to open.
func (g *GoalEntry) Reopen() error {
	if !g.Completed {
		return ErrGoalNotCompleted
	}
	g.Completed = false
	g.CompletedAt = nil
	return nil
}

// IsOverdue reports whether an open goal has passed its target date.
func (g *GoalEntry) IsOverdue(now time.Time) bool {
	return !g.Completed && g.TargetDate != nil && now.After(*g.TargetDate)
}
