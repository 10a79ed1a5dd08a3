package archive

import (
	"database/sql"
	"time"
)

// Chat is one archived overview row.
type Chat struct {
	Session            string
	ChatID             string
	Name               *string
	Picture            *string
	UnreadCount        int
	LastMessageAt      int64
	LastMessagePreview string
}

// UpsertChat inserts or updates one chat. Name and picture keep their
// previous value when the incoming row carries none, matching the
// stickiness rule of the in-memory overview.
func (db *DB) UpsertChat(c *Chat) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO chats (session, chat_id, name, picture, unread_count, last_message_at, last_message_preview, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session, chat_id) DO UPDATE SET
			name = COALESCE(excluded.name, name),
			picture = COALESCE(excluded.picture, picture),
			unread_count = excluded.unread_count,
			last_message_at = excluded.last_message_at,
			last_message_preview = excluded.last_message_preview,
			updated_at = excluded.updated_at`,
		c.Session, c.ChatID, c.Name, c.Picture, c.UnreadCount, c.LastMessageAt, c.LastMessagePreview, now)
	return err
}

// ListChats returns a session's chats, most recent activity first.
func (db *DB) ListChats(session string, limit, offset int) ([]Chat, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT session, chat_id, name, picture, unread_count, last_message_at, last_message_preview
		FROM chats
		WHERE session = ?
		ORDER BY last_message_at DESC
		LIMIT ? OFFSET ?`, session, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		var c Chat
		var name, picture sql.NullString
		if err := rows.Scan(&c.Session, &c.ChatID, &name, &picture, &c.UnreadCount, &c.LastMessageAt, &c.LastMessagePreview); err != nil {
			return nil, err
		}
		if name.Valid {
			c.Name = &name.String
		}
		if picture.Valid {
			c.Picture = &picture.String
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}
