package archive

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "chats: saved conversation tracking",
		SQL: `
CREATE TABLE chats (
    id          INTEGER PRIMARY KEY,
    chat_id     TEXT NOT NULL UNIQUE,
    title       TEXT,
    started_at  INTEGER NOT NULL,
    ended_at    INTEGER,
    status      TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'archived')),
    turn_count  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX idx_chats_status     ON chats(status);
CREATE INDEX idx_chats_started_at ON chats(started_at DESC);
`,
	},
	{
		Version:     2,
		Description: "turns: conversation turns per chat",
		SQL: `
CREATE TABLE turns (
    id          INTEGER PRIMARY KEY,
    chat_id     TEXT NOT NULL,
    role        TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
    content     TEXT NOT NULL,
    created_at  INTEGER NOT NULL
);

CREATE INDEX idx_turns_chat    ON turns(chat_id);
CREATE INDEX idx_turns_created ON turns(created_at DESC);
`,
	},
	{
		Version:     3,
		Description: "summaries: LLM-produced conversation summaries",
		SQL: `
CREATE TABLE summaries (
    id          INTEGER PRIMARY KEY,
    chat_id     TEXT,
    kind        TEXT NOT NULL CHECK (kind IN ('conversation', 'longterm')),
    content     TEXT NOT NULL,
    created_at  INTEGER NOT NULL
);

CREATE INDEX idx_summaries_chat    ON summaries(chat_id);
CREATE INDEX idx_summaries_created ON summaries(created_at DESC);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
