package archive

import "time"

// Message is one archived message row. Timestamp is unix seconds.
type Message struct {
	ChatID    string
	MsgID     string
	Timestamp int64
	FromMe    bool
	Author    string
	Body      string
	HasMedia  bool
	Ack       int
}

// UpsertMessage inserts or updates one message by (chat, id).
func (db *DB) UpsertMessage(m *Message) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO messages (chat_id, msg_id, ts, from_me, author, body, has_media, ack, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_id, msg_id) DO UPDATE SET
			ts = excluded.ts,
			from_me = excluded.from_me,
			author = excluded.author,
			body = excluded.body,
			has_media = excluded.has_media,
			ack = excluded.ack,
			updated_at = excluded.updated_at`,
		m.ChatID, m.MsgID, m.Timestamp, m.FromMe, m.Author, m.Body, m.HasMedia, m.Ack, now)
	return err
}

// UpdateMessageAck advances the ack of one message. Unknown ids are a
// no-op, same as the in-memory log.
func (db *DB) UpdateMessageAck(chatID, msgID string, ack int) error {
	_, err := db.Exec(`
		UPDATE messages SET ack = ?, updated_at = ?
		WHERE chat_id = ? AND msg_id = ?`,
		ack, time.Now().UnixMilli(), chatID, msgID)
	return err
}

// ListMessages returns a chat's messages in ascending timestamp order.
func (db *DB) ListMessages(chatID string, limit, offset int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT chat_id, msg_id, ts, from_me, author, body, has_media, ack
		FROM messages
		WHERE chat_id = ?
		ORDER BY ts ASC
		LIMIT ? OFFSET ?`, chatID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ChatID, &m.MsgID, &m.Timestamp, &m.FromMe, &m.Author, &m.Body, &m.HasMedia, &m.Ack); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
