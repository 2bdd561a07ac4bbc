package archive

import (
	"fmt"
	"time"
)

// maxTurnSize caps stored turn content. Summaries carry the long-term
// signal anyway; the raw archive just needs to stay browsable.
const maxTurnSize = 64 * 1024 // 64KB

// Turn is a single archived conversation turn.
type Turn struct {
	ID        int64
	ChatID    string
	Role      string
	Content   string
	CreatedAt int64
}

// AppendTurn stores one turn and bumps the chat's turn count.
func (db *DB) AppendTurn(chatID, role, content string) error {
	if len(content) > maxTurnSize {
		content = content[:maxTurnSize]
	}

	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO turns (chat_id, role, content, created_at)
		VALUES (?, ?, ?, ?)
	`, chatID, role, content, now)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}

	_, err = db.Exec(`
		UPDATE chats SET turn_count = turn_count + 1 WHERE chat_id = ?
	`, chatID)
	if err != nil {
		return fmt.Errorf("bump turn count: %w", err)
	}
	return nil
}

// AppendTurns stores a batch of rotated turns in one transaction.
func (db *DB) AppendTurns(chatID string, turns []Turn) error {
	if len(turns) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin append turns: %w", err)
	}

	now := time.Now().UnixMilli()
	for _, t := range turns {
		content := t.Content
		if len(content) > maxTurnSize {
			content = content[:maxTurnSize]
		}
		if _, err := tx.Exec(`
			INSERT INTO turns (chat_id, role, content, created_at)
			VALUES (?, ?, ?, ?)
		`, chatID, t.Role, content, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("append turn batch: %w", err)
		}
	}

	if _, err := tx.Exec(`
		UPDATE chats SET turn_count = turn_count + ? WHERE chat_id = ?
	`, len(turns), chatID); err != nil {
		tx.Rollback()
		return fmt.Errorf("bump turn count: %w", err)
	}

	return tx.Commit()
}

// GetTurns returns all turns for a chat, oldest first.
func (db *DB) GetTurns(chatID string) ([]Turn, error) {
	rows, err := db.Query(`
		SELECT id, chat_id, role, content, created_at
		FROM turns WHERE chat_id = ? ORDER BY id
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("get turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.ChatID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// CountTurns returns the number of archived turns for a chat.
func (db *DB) CountTurns(chatID string) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM turns WHERE chat_id = ?`, chatID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count turns: %w", err)
	}
	return count, nil
}

// Summary is an LLM-produced digest of archived conversation content.
type Summary struct {
	ID        int64
	ChatID    string
	Kind      string // "conversation" or "longterm"
	Content   string
	CreatedAt int64
}

// AddSummary stores a summary for a chat. ChatID may be empty for
// long-term summaries spanning multiple chats.
func (db *DB) AddSummary(chatID, kind, content string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO summaries (chat_id, kind, content, created_at)
		VALUES (NULLIF(?, ''), ?, ?, ?)
	`, chatID, kind, content, now)
	if err != nil {
		return fmt.Errorf("add summary: %w", err)
	}
	return nil
}

// GetRecentSummaries returns the most recent summaries of a given kind.
func (db *DB) GetRecentSummaries(kind string, limit int) ([]Summary, error) {
	rows, err := db.Query(`
		SELECT id, COALESCE(chat_id, ''), kind, content, created_at
		FROM summaries WHERE kind = ? ORDER BY created_at DESC LIMIT ?
	`, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent summaries: %w", err)
	}
	defer rows.Close()

	var sums []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.ChatID, &s.Kind, &s.Content, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sums = append(sums, s)
	}
	return sums, rows.Err()
}
