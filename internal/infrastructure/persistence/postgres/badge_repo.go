package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/skill"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// BadgeRepository implements skill.BadgeStore on PostgreSQL. The
// earned_badges primary key plus ON CONFLICT DO NOTHING makes earning
// one-way and idempotent at the storage level.
type BadgeRepository struct {
	conn *Connection
}

// NewBadgeRepository creates a new badge repository.
func NewBadgeRepository(conn *Connection) *BadgeRepository {
	return &BadgeRepository{conn: conn}
}

var _ skill.BadgeStore = (*BadgeRepository)(nil)

// EarnedBadgeIDs implements skill.BadgeStore.
func (r *BadgeRepository) EarnedBadgeIDs(ctx context.Context, userID shared.UserID) (map[string]time.Time, error) {
	const query = `SELECT badge_id, earned_at FROM earned_badges WHERE user_id = $1`

	rows, err := r.conn.Query(ctx, query, string(userID))
	if err != nil {
		return nil, fmt.Errorf("postgres: earned badges: %w", err)
	}
	defer rows.Close()

	earned := make(map[string]time.Time)
	for rows.Next() {
		var badgeID string
		var earnedAt time.Time
		if err := rows.Scan(&badgeID, &earnedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan badge: %w", err)
		}
		earned[badgeID] = earnedAt
	}
	return earned, rows.Err()
}

// MarkEarned implements skill.BadgeStore.
func (r *BadgeRepository) MarkEarned(ctx context.Context, userID shared.UserID, badgeID string, at time.Time) error {
	const query = `
		INSERT INTO earned_badges (user_id, badge_id, earned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, badge_id) DO NOTHING
	`

	if _, err := r.conn.Exec(ctx, query, string(userID), badgeID, at); err != nil {
		return fmt.Errorf("postgres: mark badge earned: %w", err)
	}
	return nil
}
