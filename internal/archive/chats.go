package archive

import (
	"database/sql"
	"fmt"
	"time"
)

// Chat is a saved conversation.
type Chat struct {
	ID        int64
	ChatID    string
	Title     string
	StartedAt int64
	EndedAt   *int64
	Status    string
	TurnCount int
}

// InitChat creates or resumes a chat. If the chat_id already exists and is
// active, the existing row is returned.
func (db *DB) InitChat(chatID, title string) (*Chat, error) {
	now := time.Now().UnixMilli()

	var c Chat
	var title0 sql.NullString
	err := db.QueryRow(`
		SELECT id, chat_id, title, started_at, ended_at, status, turn_count
		FROM chats WHERE chat_id = ? AND status = 'active'
	`, chatID).Scan(&c.ID, &c.ChatID, &title0, &c.StartedAt, &c.EndedAt, &c.Status, &c.TurnCount)
	if err == nil {
		c.Title = title0.String
		return &c, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("check existing chat: %w", err)
	}

	result, err := db.Exec(`
		INSERT INTO chats (chat_id, title, started_at, status)
		VALUES (?, ?, ?, 'active')
	`, chatID, title, now)
	if err != nil {
		return nil, fmt.Errorf("insert chat: %w", err)
	}

	id, _ := result.LastInsertId()
	return &Chat{
		ID:        id,
		ChatID:    chatID,
		Title:     title,
		StartedAt: now,
		Status:    "active",
	}, nil
}

// GetChat returns a chat by its chat_id, or nil if not found.
func (db *DB) GetChat(chatID string) (*Chat, error) {
	var c Chat
	var title sql.NullString
	err := db.QueryRow(`
		SELECT id, chat_id, title, started_at, ended_at, status, turn_count
		FROM chats WHERE chat_id = ?
	`, chatID).Scan(&c.ID, &c.ChatID, &title, &c.StartedAt, &c.EndedAt, &c.Status, &c.TurnCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	c.Title = title.String
	return &c, nil
}

// ArchiveChat marks an active chat as archived.
func (db *DB) ArchiveChat(chatID string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		UPDATE chats SET status = 'archived', ended_at = COALESCE(ended_at, ?)
		WHERE chat_id = ? AND status = 'active'
	`, now, chatID)
	if err != nil {
		return fmt.Errorf("archive chat: %w", err)
	}
	return nil
}

// RenameChat sets a chat's title.
func (db *DB) RenameChat(chatID, title string) error {
	_, err := db.Exec(`UPDATE chats SET title = ? WHERE chat_id = ?`, title, chatID)
	if err != nil {
		return fmt.Errorf("rename chat: %w", err)
	}
	return nil
}

// ListRecentChats returns the most recent chats, ordered by started_at DESC.
func (db *DB) ListRecentChats(limit int) ([]Chat, error) {
	rows, err := db.Query(`
		SELECT id, chat_id, title, started_at, ended_at, status, turn_count
		FROM chats ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent chats: %w", err)
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		var c Chat
		var title sql.NullString
		if err := rows.Scan(&c.ID, &c.ChatID, &title, &c.StartedAt, &c.EndedAt, &c.Status, &c.TurnCount); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		c.Title = title.String
		chats = append(chats, c)
	}
	return chats, rows.Err()
}
