// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - each event represents something significant
// that happened in the domain.
const (
	// Skill events
	EventSkillCreated  EventType = "skill.created"
	EventSkillArchived EventType = "skill.archived"

	// Activity events
	EventSessionLogged EventType = "activity.session_logged"
	EventJournalAdded  EventType = "activity.journal_added"
	EventGoalAdded     EventType = "activity.goal_added"
	EventGoalCompleted EventType = "activity.goal_completed"

	// Badge events
	EventBadgeEarned EventType = "badge.earned"

	// System events
	EventCatalogRefreshed EventType = "system.catalog_refreshed"
	EventCatalogDegraded  EventType = "system.catalog_degraded"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes domain events.
type EventHandler interface {
	// Handle processes the event. Returning an error does not stop
	// delivery to other handlers.
	Handle(event Event) error

	// EventTypes returns the event types this handler is interested in.
	EventTypes() []EventType
}

// EventPublisher publishes domain events. Satisfied by the messaging
// event bus; commands depend on this interface, never on the bus itself.
type EventPublisher interface {
	Publish(event Event) error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// Payload implements Event interface with an empty payload.
func (e BaseEvent) Payload() map[string]interface{} {
	return map[string]interface{}{}
}

// NewBaseEvent creates a base event with the current timestamp.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
	}
}

// SessionLoggedEvent fires when a study session is appended to the store.
type SessionLoggedEvent struct {
	BaseEvent
	UserID          UserID  `json:"user_id"`
	SkillID         SkillID `json:"skill_id"`
	DurationMinutes Minutes `json:"duration_minutes"`
}

// Payload implements Event interface.
func (e SessionLoggedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":          e.UserID.String(),
		"skill_id":         e.SkillID.String(),
		"duration_minutes": int(e.DurationMinutes),
	}
}

// BadgeEarnedEvent fires when a badge transitions unearned -> earned.
// The transition is one-way: no event ever reverts it.
type BadgeEarnedEvent struct {
	BaseEvent
	UserID    UserID `json:"user_id"`
	BadgeID   string `json:"badge_id"`
	BadgeName string `json:"badge_name"`
}

// Payload implements Event interface.
func (e BadgeEarnedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID.String(),
		"badge_id":   e.BadgeID,
		"badge_name": e.BadgeName,
	}
}
