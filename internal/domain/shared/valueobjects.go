// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents an opaque, authenticated user identifier.
// It is supplied by the auth collaborator; the core never authenticates.
type UserID string

// IsValid checks if the user ID is non-empty.
func (u UserID) IsValid() bool {
	return strings.TrimSpace(string(u)) != ""
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// SkillID represents a unique skill identifier.
type SkillID string

// IsValid checks if the skill ID is non-empty.
func (s SkillID) IsValid() bool {
	return s != ""
}

// String returns the string representation.
func (s SkillID) String() string {
	return string(s)
}

// Category represents a skill/resource category (e.g., "Programming").
type Category string

// IsValid checks if the category is non-empty after trimming.
func (c Category) IsValid() bool {
	return strings.TrimSpace(string(c)) != ""
}

// Normalize returns a canonical form used for affinity matching.
func (c Category) Normalize() Category {
	return Category(strings.ToLower(strings.TrimSpace(string(c))))
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// ═══════════════════════════════════════════════════════════════════════════
// Time Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// Minutes represents a study duration in whole minutes.
type Minutes int

// IsValid checks that the duration is non-negative.
func (m Minutes) IsValid() bool {
	return m >= 0
}

// Hours converts the duration to fractional hours.
func (m Minutes) Hours() float64 {
	return float64(m) / 60.0
}

// Duration converts to a time.Duration.
func (m Minutes) Duration() time.Duration {
	return time.Duration(m) * time.Minute
}

// Day represents a calendar day (midnight-truncated time).
type Day time.Time

// DayOf truncates a timestamp to its calendar day in its location.
func DayOf(t time.Time) Day {
	return Day(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()))
}

// Time returns the underlying midnight timestamp.
func (d Day) Time() time.Time {
	return time.Time(d)
}

// DaysUntil returns the number of calendar days from d to other.
func (d Day) DaysUntil(other Day) int {
	return int(time.Time(other).Sub(time.Time(d)).Hours() / 24)
}

// Equal reports whether two days are the same calendar day.
func (d Day) Equal(other Day) bool {
	return time.Time(d).Equal(time.Time(other))
}
