package realtime

import (
	"encoding/json"

	"github.com/Welt-Agency/waha-frontend/internal/waha"
)

// The backend speaks several historical frame layouts for the same
// logical events. Inbound frames decode into a permissive envelope
// first, then into one of the typed frames below; anything that fits no
// shape is dropped without error, so a single malformed frame can never
// kill a channel.

// envelope is the union of all wire layouts. Session is raw because it
// is a string on the chat-overview socket and an object in legacy
// session frames.
type envelope struct {
	Event    string          `json:"event"`
	Type     string          `json:"type"`
	Session  json.RawMessage `json:"session"`
	Payload  json.RawMessage `json:"payload"`
	Me       *waha.Me        `json:"me"`
	Metadata json.RawMessage `json:"metadata"`

	// message.status layout carries its fields at the top level.
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	Ack       *int   `json:"ack"`
}

// sessionStatusFrame is a session.status push. The payload is known to
// be incomplete for the transition into WORKING.
type sessionStatusFrame struct {
	Session waha.Session
}

// legacySessionFrame is the old {type, session} layout.
type legacySessionFrame struct {
	Op      string // added, removed, updated
	Session waha.Session
}

// overviewFrame is a chat_overview_update push.
type overviewFrame struct {
	Session  string
	Overview waha.ChatOverview
}

// messageFrame is a message push, optionally carrying an overview
// fragment alongside the message itself.
type messageFrame struct {
	Session     string
	Message     waha.Message
	Overview    *waha.ChatOverview
	UnreadCount *int
}

// ackFrame is a message.status push.
type ackFrame struct {
	ChatID    string
	MessageID string
	Ack       int
}

type messagePayload struct {
	waha.Message
	ChatOverview *waha.ChatOverview `json:"chat_overview"`
	UnreadCount  *int               `json:"unreadCount"`
}

// decodeFrame classifies one inbound frame. It returns nil for
// malformed or unrecognized frames (dropped silently, per policy).
func decodeFrame(data []byte) any {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil
	}

	switch env.Event {
	case "session.status":
		if len(env.Metadata) == 0 {
			return nil
		}
		var sess waha.Session
		if err := json.Unmarshal(env.Payload, &sess); err != nil || sess.Name == "" {
			return nil
		}
		if env.Me != nil {
			sess.Me = env.Me
		}
		return &sessionStatusFrame{Session: sess}

	case "chat_overview_update":
		var session string
		if err := json.Unmarshal(env.Session, &session); err != nil {
			return nil
		}
		var payload struct {
			ChatOverview waha.ChatOverview `json:"chat_overview"`
		}
		if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.ChatOverview.ID == "" {
			return nil
		}
		return &overviewFrame{Session: session, Overview: payload.ChatOverview}

	case "message":
		var session string
		if err := json.Unmarshal(env.Session, &session); err != nil {
			return nil
		}
		var payload messagePayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.ID == "" {
			return nil
		}
		return &messageFrame{
			Session:     session,
			Message:     payload.Message,
			Overview:    payload.ChatOverview,
			UnreadCount: payload.UnreadCount,
		}

	case "message.status":
		if env.ChatID == "" || env.MessageID == "" || env.Ack == nil {
			return nil
		}
		return &ackFrame{ChatID: env.ChatID, MessageID: env.MessageID, Ack: *env.Ack}
	}

	// Legacy {type, session} layout on the session-status socket.
	if env.Type != "" && len(env.Session) > 0 {
		switch env.Type {
		case "added", "removed", "updated":
			var sess waha.Session
			if err := json.Unmarshal(env.Session, &sess); err != nil || sess.Name == "" {
				return nil
			}
			return &legacySessionFrame{Op: env.Type, Session: sess}
		}
	}

	return nil
}

// chatIDOf returns the chat a message belongs to: the counterparty, so
// the destination for outgoing messages and the origin for incoming.
func chatIDOf(m *waha.Message) string {
	if m.FromMe && m.To != nil && *m.To != "" {
		return *m.To
	}
	return m.From
}
