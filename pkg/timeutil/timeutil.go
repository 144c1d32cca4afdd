// Package timeutil provides calendar-day helpers for streak and recency
// computations. Streaks are counted in the user's configured timezone, so
// a session at 23:50 and one at 00:10 land on different days.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// StartOfDay returns the start of the day (00:00:00) in the time's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the end of the day (23:59:59.999999999) in the time's location.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DaysBetween returns the number of whole calendar days from a to b.
// Negative if b is before a. Both are truncated to their own days first.
func DaysBetween(a, b time.Time) int {
	start := StartOfDay(a)
	end := StartOfDay(b)
	return int(end.Sub(start).Hours() / 24)
}

// DaysSince returns the number of calendar days from t until now.
func DaysSince(t, now time.Time) int {
	return DaysBetween(t, now)
}

// IsToday checks if the given time is on the same day as now.
func IsToday(t, now time.Time) bool {
	return SameDay(t, now)
}

// IsYesterday checks if the given time is on the day before now.
func IsYesterday(t, now time.Time) bool {
	return SameDay(t, now.AddDate(0, 0, -1))
}

// HoursSince returns the fractional hours elapsed from t to now.
// Returns 0 for times in the future of now.
func HoursSince(t, now time.Time) float64 {
	h := now.Sub(t).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// FormatHours renders fractional hours as "12h 30m".
func FormatHours(hours float64) string {
	if hours < 0 {
		hours = 0
	}
	whole := int(hours)
	minutes := int((hours - float64(whole)) * 60)
	if whole == 0 && minutes == 0 {
		return "0m"
	}
	if whole == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	if minutes == 0 {
		return fmt.Sprintf("%dh", whole)
	}
	return fmt.Sprintf("%dh %dm", whole, minutes)
}

// FormatMinutes renders whole minutes as "hh:mm".
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
