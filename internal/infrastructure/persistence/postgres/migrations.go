// Package postgres implements the PostgreSQL persistence layer for the
// skill progress hub.
package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_activity_log",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_badges",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_api_keys",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE ACTIVITY LOG
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create the per-user activity log
-- Version: 001
-- The log is append-only: sessions, journal entries, and goals are only
-- inserted. Goal completion is the single permitted update; skills are
-- soft-deleted via archived_at and never removed while history exists.

CREATE TABLE IF NOT EXISTS skills (
    id UUID PRIMARY KEY,
    user_id VARCHAR(100) NOT NULL,
    name VARCHAR(100) NOT NULL,
    category VARCHAR(50) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    archived_at TIMESTAMP WITH TIME ZONE,

    CONSTRAINT non_empty_name CHECK (length(trim(name)) > 0),
    CONSTRAINT non_empty_category CHECK (length(trim(category)) > 0)
);

-- One active skill per (user, name); archived skills free the name.
CREATE UNIQUE INDEX IF NOT EXISTS idx_skills_user_name_active
    ON skills(user_id, lower(name)) WHERE archived_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_skills_user ON skills(user_id, created_at);

CREATE TABLE IF NOT EXISTS study_sessions (
    id UUID PRIMARY KEY,
    user_id VARCHAR(100) NOT NULL,
    skill_id UUID NOT NULL REFERENCES skills(id),
    started_at TIMESTAMP WITH TIME ZONE NOT NULL,
    duration_minutes INTEGER NOT NULL,
    source VARCHAR(20) NOT NULL DEFAULT 'manual',
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT non_negative_duration CHECK (duration_minutes >= 0),
    CONSTRAINT valid_source CHECK (source IN ('manual', 'timer'))
);

CREATE INDEX IF NOT EXISTS idx_sessions_user_started
    ON study_sessions(user_id, started_at, recorded_at);
CREATE INDEX IF NOT EXISTS idx_sessions_user_skill
    ON study_sessions(user_id, skill_id, started_at);

CREATE TABLE IF NOT EXISTS journal_entries (
    id UUID PRIMARY KEY,
    user_id VARCHAR(100) NOT NULL,
    skill_id UUID REFERENCES skills(id),
    text TEXT NOT NULL,
    mood VARCHAR(30) NOT NULL DEFAULT '',
    resource_ref VARCHAR(255) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT non_empty_text CHECK (length(trim(text)) > 0)
);

CREATE INDEX IF NOT EXISTS idx_journal_user_created
    ON journal_entries(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_journal_resource_ref
    ON journal_entries(user_id, resource_ref) WHERE resource_ref != '';

CREATE TABLE IF NOT EXISTS goals (
    id UUID PRIMARY KEY,
    user_id VARCHAR(100) NOT NULL,
    skill_id UUID REFERENCES skills(id),
    text TEXT NOT NULL,
    target_date DATE,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    completed_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT non_empty_goal_text CHECK (length(trim(text)) > 0)
);

CREATE INDEX IF NOT EXISTS idx_goals_user_created ON goals(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_goals_user_open
    ON goals(user_id, created_at) WHERE completed = FALSE;
`

const migration001Down = `
DROP TABLE IF EXISTS goals;
DROP TABLE IF EXISTS journal_entries;
DROP TABLE IF EXISTS study_sessions;
DROP TABLE IF EXISTS skills;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE BADGES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create earned badges
-- Version: 002
-- Earning is one-way: rows are inserted once and never deleted.
-- ON CONFLICT DO NOTHING makes re-evaluation idempotent.

CREATE TABLE IF NOT EXISTS earned_badges (
    user_id VARCHAR(100) NOT NULL,
    badge_id VARCHAR(50) NOT NULL,
    earned_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, badge_id)
);

CREATE INDEX IF NOT EXISTS idx_earned_badges_user ON earned_badges(user_id, earned_at);
`

const migration002Down = `
DROP TABLE IF EXISTS earned_badges;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE API KEYS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create API keys
-- Version: 003
-- Keys are presented as "<key_id>.<secret>"; only the bcrypt hash of the
-- secret is stored.

CREATE TABLE IF NOT EXISTS api_keys (
    key_id VARCHAR(50) PRIMARY KEY,
    user_id VARCHAR(100) NOT NULL,
    secret_hash VARCHAR(100) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    revoked_at TIMESTAMP WITH TIME ZONE
);

CREATE INDEX IF NOT EXISTS idx_api_keys_user ON api_keys(user_id);
`

const migration003Down = `
DROP TABLE IF EXISTS api_keys;
`
