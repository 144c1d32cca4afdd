// Package eventhandler contains subscribers wired onto the event bus.
// Handlers are side channels: they observe recorded facts and must never
// influence whether a command succeeds.
package eventhandler

import (
	"log/slog"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE NOTIFIER
// ══════════════════════════════════════════════════════════════════════════════

// BadgeNotifier reacts to badge transitions. Today it logs the award;
// it is the seam where a push/email channel would attach.
type BadgeNotifier struct {
	logger *slog.Logger
}

// NewBadgeNotifier creates a new BadgeNotifier.
func NewBadgeNotifier(logger *slog.Logger) *BadgeNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgeNotifier{
		logger: logger.With(slog.String("component", "badge_notifier")),
	}
}

// EventTypes implements shared.EventHandler.
func (n *BadgeNotifier) EventTypes() []shared.EventType {
	return []shared.EventType{shared.EventBadgeEarned}
}

// Handle implements shared.EventHandler.
func (n *BadgeNotifier) Handle(event shared.Event) error {
	earned, ok := event.(shared.BadgeEarnedEvent)
	if !ok {
		n.logger.Warn("unexpected event payload",
			slog.String("type", string(event.EventType())))
		return nil
	}

	n.logger.Info("badge earned",
		slog.String("user_id", earned.UserID.String()),
		slog.String("badge_id", earned.BadgeID),
		slog.String("badge_name", earned.BadgeName),
		slog.Time("earned_at", earned.OccurredAt()),
	)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY AUDITOR
// ══════════════════════════════════════════════════════════════════════════════

// ActivityAuditor logs every domain event for operational tracing. It
// registers for all types by returning an empty slice.
type ActivityAuditor struct {
	logger *slog.Logger
}

// NewActivityAuditor creates a new ActivityAuditor.
func NewActivityAuditor(logger *slog.Logger) *ActivityAuditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityAuditor{
		logger: logger.With(slog.String("component", "audit")),
	}
}

// EventTypes implements shared.EventHandler. Empty means all events.
func (a *ActivityAuditor) EventTypes() []shared.EventType {
	return nil
}

// Handle implements shared.EventHandler.
func (a *ActivityAuditor) Handle(event shared.Event) error {
	a.logger.Debug("domain event",
		slog.String("type", string(event.EventType())),
		slog.String("aggregate_id", event.AggregateID()),
		slog.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}
