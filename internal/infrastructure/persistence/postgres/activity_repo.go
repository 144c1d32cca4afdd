package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/skill"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ActivityRepository implements skill.ActivityStore on PostgreSQL.
//
// The single-writer-per-user contract is carried by the schema: the
// partial unique index on active skill names serializes conflicting
// creates, and appends never touch existing rows. Snapshot reads run in
// a repeatable-read transaction so every table is seen at one instant.
type ActivityRepository struct {
	conn *Connection
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(conn *Connection) *ActivityRepository {
	return &ActivityRepository{conn: conn}
}

var _ skill.ActivityStore = (*ActivityRepository)(nil)

// ──────────────────────────────────────────────────────────────────────────────
// Skills
// ──────────────────────────────────────────────────────────────────────────────

// CreateSkill implements skill.ActivityStore.
func (r *ActivityRepository) CreateSkill(ctx context.Context, sk *skill.Skill) error {
	const query = `
		INSERT INTO skills (id, user_id, name, category, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query,
		string(sk.ID), string(sk.UserID), sk.Name, string(sk.Category), sk.Description, sk.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrSkillAlreadyExists
		}
		return fmt.Errorf("postgres: create skill: %w", err)
	}
	return nil
}

// GetSkill implements skill.ActivityStore.
func (r *ActivityRepository) GetSkill(ctx context.Context, userID shared.UserID, skillID shared.SkillID) (*skill.Skill, error) {
	const query = `
		SELECT id, user_id, name, category, description, created_at, archived_at
		FROM skills
		WHERE user_id = $1 AND id = $2
	`

	sk, err := scanSkill(r.conn.QueryRow(ctx, query, string(userID), string(skillID)))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSkillNotFound
		}
		return nil, fmt.Errorf("postgres: get skill: %w", err)
	}
	return sk, nil
}

// ListSkills implements skill.ActivityStore.
func (r *ActivityRepository) ListSkills(ctx context.Context, userID shared.UserID) ([]skill.Skill, error) {
	return listSkills(ctx, r.conn, userID)
}

// ArchiveSkill implements skill.ActivityStore.
func (r *ActivityRepository) ArchiveSkill(ctx context.Context, userID shared.UserID, skillID shared.SkillID, at time.Time) error {
	const query = `
		UPDATE skills SET archived_at = $3
		WHERE user_id = $1 AND id = $2 AND archived_at IS NULL
	`

	tag, err := r.conn.Exec(ctx, query, string(userID), string(skillID), at)
	if err != nil {
		return fmt.Errorf("postgres: archive skill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish missing from already archived.
		if _, getErr := r.GetSkill(ctx, userID, skillID); getErr != nil {
			return getErr
		}
		return skill.ErrAlreadyArchived
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Appends
// ──────────────────────────────────────────────────────────────────────────────

// RecordSession implements skill.ActivityStore. Skill existence, the
// archived check, and the insert run in one transaction so a rejected
// write leaves no partial state.
func (r *ActivityRepository) RecordSession(ctx context.Context, session *skill.StudySession) error {
	if !session.DurationMinutes.IsValid() {
		return skill.ErrNegativeDuration
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var archivedAt *time.Time
		err := tx.QueryRow(ctx,
			`SELECT archived_at FROM skills WHERE user_id = $1 AND id = $2`,
			string(session.UserID), string(session.SkillID),
		).Scan(&archivedAt)
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrSkillNotFound
			}
			return fmt.Errorf("postgres: record session: %w", err)
		}
		if archivedAt != nil {
			return shared.ErrSkillArchived
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO study_sessions (id, user_id, skill_id, started_at, duration_minutes, source)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, session.ID, string(session.UserID), string(session.SkillID),
			session.StartedAt, int(session.DurationMinutes), string(session.Source))
		if err != nil {
			return fmt.Errorf("postgres: record session: %w", err)
		}
		return nil
	})
}

// RecordJournalEntry implements skill.ActivityStore.
func (r *ActivityRepository) RecordJournalEntry(ctx context.Context, entry *skill.JournalEntry) error {
	const query = `
		INSERT INTO journal_entries (id, user_id, skill_id, text, mood, resource_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		entry.ID, string(entry.UserID), skillIDOrNil(entry.SkillID),
		entry.Text, entry.Mood, entry.ResourceRef, entry.CreatedAt)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrSkillNotFound
		}
		return fmt.Errorf("postgres: record journal entry: %w", err)
	}
	return nil
}

// RecordGoal implements skill.ActivityStore.
func (r *ActivityRepository) RecordGoal(ctx context.Context, goal *skill.GoalEntry) error {
	const query = `
		INSERT INTO goals (id, user_id, skill_id, text, target_date, completed, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		goal.ID, string(goal.UserID), skillIDOrNil(goal.SkillID),
		goal.Text, goal.TargetDate, goal.Completed, goal.CompletedAt, goal.CreatedAt)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrSkillNotFound
		}
		return fmt.Errorf("postgres: record goal: %w", err)
	}
	return nil
}

// SetGoalCompletion implements skill.ActivityStore. The transition goes
// through the domain entity so the completed/open state machine is
// enforced in one place.
func (r *ActivityRepository) SetGoalCompletion(ctx context.Context, userID shared.UserID, goalID string, completed bool, at time.Time) (*skill.GoalEntry, error) {
	var updated *skill.GoalEntry

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		goal, err := scanGoal(tx.QueryRow(ctx, `
			SELECT id, user_id, skill_id, text, target_date, completed, completed_at, created_at
			FROM goals
			WHERE user_id = $1 AND id = $2
			FOR UPDATE
		`, string(userID), goalID))
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrGoalNotFound
			}
			return fmt.Errorf("postgres: set goal completion: %w", err)
		}

		if completed {
			err = goal.Complete(at)
		} else {
			err = goal.Reopen()
		}
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE goals SET completed = $3, completed_at = $4
			WHERE user_id = $1 AND id = $2
		`, string(userID), goalID, goal.Completed, goal.CompletedAt)
		if err != nil {
			return fmt.Errorf("postgres: set goal completion: %w", err)
		}

		updated = goal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Reads
// ──────────────────────────────────────────────────────────────────────────────

// ListSessions implements skill.ActivityStore.
func (r *ActivityRepository) ListSessions(ctx context.Context, userID shared.UserID, filters skill.ListFilters) ([]skill.StudySession, error) {
	query, args := buildSessionQuery(userID, filters)

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sessions: %w", err)
	}
	defer rows.Close()

	return collectSessions(rows)
}

// ListJournalEntries implements skill.ActivityStore.
func (r *ActivityRepository) ListJournalEntries(ctx context.Context, userID shared.UserID, filters skill.ListFilters) ([]skill.JournalEntry, error) {
	query := `
		SELECT id, user_id, skill_id, text, mood, resource_ref, created_at
		FROM journal_entries
		WHERE user_id = $1
	`
	args := []interface{}{string(userID)}

	if filters.SkillID.IsValid() {
		args = append(args, string(filters.SkillID))
		query += fmt.Sprintf(" AND skill_id = $%d", len(args))
	}
	if !filters.From.IsZero() {
		args = append(args, filters.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !filters.To.IsZero() {
		args = append(args, filters.To)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	query += " ORDER BY created_at, id"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list journal entries: %w", err)
	}
	defer rows.Close()

	return collectJournalEntries(rows)
}

// ListGoals implements skill.ActivityStore.
func (r *ActivityRepository) ListGoals(ctx context.Context, userID shared.UserID) ([]skill.GoalEntry, error) {
	return listGoals(ctx, r.conn, userID)
}

// Snapshot implements skill.ActivityStore. All four tables are read in
// one repeatable-read transaction, giving the caller a view of the
// user's log fixed at a single instant.
func (r *ActivityRepository) Snapshot(ctx context.Context, userID shared.UserID, at time.Time) (*skill.Snapshot, error) {
	var snap *skill.Snapshot

	err := r.conn.WithTx(ctx, SnapshotTxOptions(), func(tx pgx.Tx) error {
		skills, err := listSkills(ctx, tx, userID)
		if err != nil {
			return err
		}

		query, args := buildSessionQuery(userID, skill.ListFilters{})
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("postgres: snapshot sessions: %w", err)
		}
		sessions, err := collectSessions(rows)
		rows.Close()
		if err != nil {
			return err
		}

		rows, err = tx.Query(ctx, `
			SELECT id, user_id, skill_id, text, mood, resource_ref, created_at
			FROM journal_entries WHERE user_id = $1 ORDER BY created_at, id
		`, string(userID))
		if err != nil {
			return fmt.Errorf("postgres: snapshot journal: %w", err)
		}
		journal, err := collectJournalEntries(rows)
		rows.Close()
		if err != nil {
			return err
		}

		goals, err := listGoals(ctx, tx, userID)
		if err != nil {
			return err
		}

		snap = skill.NewSnapshot(userID, at, skills, sessions, journal, goals)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ──────────────────────────────────────────────────────────────────────────────

func buildSessionQuery(userID shared.UserID, filters skill.ListFilters) (string, []interface{}) {
	query := `
		SELECT id, user_id, skill_id, started_at, duration_minutes, source
		FROM study_sessions
		WHERE user_id = $1
	`
	args := []interface{}{string(userID)}

	if filters.SkillID.IsValid() {
		args = append(args, string(filters.SkillID))
		query += fmt.Sprintf(" AND skill_id = $%d", len(args))
	}
	if !filters.From.IsZero() {
		args = append(args, filters.From)
		query += fmt.Sprintf(" AND started_at >= $%d", len(args))
	}
	if !filters.To.IsZero() {
		args = append(args, filters.To)
		query += fmt.Sprintf(" AND started_at < $%d", len(args))
	}
	// recorded_at breaks ties between identical timestamps by insertion order.
	query += " ORDER BY started_at, recorded_at"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}

func listSkills(ctx context.Context, q Querier, userID shared.UserID) ([]skill.Skill, error) {
	rows, err := q.Query(ctx, `
		SELECT id, user_id, name, category, description, created_at, archived_at
		FROM skills WHERE user_id = $1 ORDER BY created_at, id
	`, string(userID))
	if err != nil {
		return nil, fmt.Errorf("postgres: list skills: %w", err)
	}
	defer rows.Close()

	var skills []skill.Skill
	for rows.Next() {
		sk, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan skill: %w", err)
		}
		skills = append(skills, *sk)
	}
	return skills, rows.Err()
}

func listGoals(ctx context.Context, q Querier, userID shared.UserID) ([]skill.GoalEntry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, user_id, skill_id, text, target_date, completed, completed_at, created_at
		FROM goals WHERE user_id = $1 ORDER BY created_at, id
	`, string(userID))
	if err != nil {
		return nil, fmt.Errorf("postgres: list goals: %w", err)
	}
	defer rows.Close()

	var goals []skill.GoalEntry
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan goal: %w", err)
		}
		goals = append(goals, *goal)
	}
	return goals, rows.Err()
}

func collectSessions(rows pgx.Rows) ([]skill.StudySession, error) {
	var sessions []skill.StudySession
	for rows.Next() {
		var (
			sess    skill.StudySession
			userID  string
			skillID string
			minutes int
			source  string
		)
		if err := rows.Scan(&sess.ID, &userID, &skillID, &sess.StartedAt, &minutes, &source); err != nil {
			return nil, fmt.Errorf("postgres: scan session: %w", err)
		}
		sess.UserID = shared.UserID(userID)
		sess.SkillID = shared.SkillID(skillID)
		sess.DurationMinutes = shared.Minutes(minutes)
		sess.Source = skill.SessionSource(source)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func collectJournalEntries(rows pgx.Rows) ([]skill.JournalEntry, error) {
	var entries []skill.JournalEntry
	for rows.Next() {
		var (
			entry   skill.JournalEntry
			userID  string
			skillID *string
		)
		if err := rows.Scan(&entry.ID, &userID, &skillID, &entry.Text, &entry.Mood, &entry.ResourceRef, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan journal entry: %w", err)
		}
		entry.UserID = shared.UserID(userID)
		if skillID != nil {
			id := shared.SkillID(*skillID)
			entry.SkillID = &id
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanSkill(row pgx.Row) (*skill.Skill, error) {
	var (
		sk       skill.Skill
		id       string
		userID   string
		category string
	)
	if err := row.Scan(&id, &userID, &sk.Name, &category, &sk.Description, &sk.CreatedAt, &sk.ArchivedAt); err != nil {
		return nil, err
	}
	sk.ID = shared.SkillID(id)
	sk.UserID = shared.UserID(userID)
	sk.Category = shared.Category(category)
	return &sk, nil
}

func scanGoal(row pgx.Row) (*skill.GoalEntry, error) {
	var (
		goal    skill.GoalEntry
		userID  string
		skillID *string
	)
	if err := row.Scan(&goal.ID, &userID, &skillID, &goal.Text, &goal.TargetDate, &goal.Completed, &goal.CompletedAt, &goal.CreatedAt); err != nil {
		return nil, err
	}
	goal.UserID = shared.UserID(userID)
	if skillID != nil {
		id := shared.SkillID(*skillID)
		goal.SkillID = &id
	}
	return &goal, nil
}

func skillIDOrNil(id *shared.SkillID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}
