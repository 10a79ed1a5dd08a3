package waha

import "encoding/json"

// Session statuses reported by the backend.
const (
	StatusStarting = "STARTING"
	StatusScanQR   = "SCAN_QR_CODE"
	StatusWorking  = "WORKING"
	StatusFailed   = "FAILED"
	StatusStopped  = "STOPPED"
)

// Ack codes carried on messages (delivery acknowledgment ladder).
const (
	AckPending   = 0
	AckSent      = 1
	AckDelivered = 2
	AckRead      = 3
)

// Me identifies the account behind a connected session.
type Me struct {
	ID       string `json:"id"`
	PushName string `json:"pushName"`
	JID      string `json:"jid"`
}

// SessionConfig is the backend-side session configuration; opaque to us.
type SessionConfig struct {
	Metadata json.RawMessage   `json:"metadata,omitempty"`
	Webhooks []json.RawMessage `json:"webhooks,omitempty"`
}

// Session is one managed messaging-account connection.
type Session struct {
	Name           string        `json:"name"`
	Status         string        `json:"status"`
	Config         SessionConfig `json:"config"`
	Me             *Me           `json:"me,omitempty"`
	AssignedWorker string        `json:"assignedWorker"`
}

// SessionCounts mirrors /company/session-counts.
type SessionCounts struct {
	SessionLimit int `json:"session_limit"`
	Count        int `json:"count"`
}

// Message is a single chat message. Timestamp is unix seconds.
// Data carries the raw vendor payload untouched.
type Message struct {
	ID          string          `json:"id"`
	Timestamp   int64           `json:"timestamp"`
	From        string          `json:"from"`
	FromMe      bool            `json:"fromMe"`
	Source      string          `json:"source,omitempty"`
	Body        string          `json:"body"`
	To          *string         `json:"to,omitempty"`
	Participant *string         `json:"participant,omitempty"`
	HasMedia    bool            `json:"hasMedia"`
	Media       json.RawMessage `json:"media,omitempty"`
	Ack         int             `json:"ack"`
	AckName     string          `json:"ackName,omitempty"`
	ReplyTo     json.RawMessage `json:"replyTo,omitempty"`
	Data        json.RawMessage `json:"_data,omitempty"`
}

// ChatOverview is the summarized most-recent-message view of one chat.
// Name and Picture are pointers: the backend omits them when unchanged,
// and the store must distinguish "absent" from "empty".
type ChatOverview struct {
	ID          string          `json:"id"`
	Name        *string         `json:"name"`
	Picture     *string         `json:"picture"`
	LastMessage *Message        `json:"lastMessage"`
	UnreadCount int             `json:"unreadCount"`
	SessionName string          `json:"session_name,omitempty"`
	Chat        json.RawMessage `json:"_chat,omitempty"`
}

// OrderingTimestamp returns the timestamp used for most-recent-first
// ordering of overview lists.
func (o *ChatOverview) OrderingTimestamp() int64 {
	if o.LastMessage == nil {
		return 0
	}
	return o.LastMessage.Timestamp
}

// BulkJob statuses.
const (
	JobPending   = "pending"
	JobCompleted = "completed"
	JobFailed    = "failed"
	JobCancelled = "cancelled"
)

// BulkJob is one asynchronous bulk-send operation. The store never
// fabricates progress locally; a BulkJob is a mirror of backend state.
type BulkJob struct {
	JobID        string            `json:"job_id"`
	Status       string            `json:"status"`
	CurrentCount int               `json:"current_count"`
	TotalCount   int               `json:"total_count"`
	Cancelled    bool              `json:"cancelled"`
	Finished     bool              `json:"finished"`
	Results      []json.RawMessage `json:"result,omitempty"`
}

// SendTextRequest is the body for POST /send-text/.
type SendTextRequest struct {
	ChatID                 string  `json:"chatId"`
	ReplyTo                *string `json:"reply_to"`
	Text                   string  `json:"text"`
	LinkPreview            bool    `json:"linkPreview"`
	LinkPreviewHighQuality bool    `json:"linkPreviewHighQuality"`
	Session                string  `json:"session"`
}

// SendTextResult is the backend's acknowledgment of a single send.
type SendTextResult struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"_data,omitempty"`
}

// BulkSendRequest is the body for POST /send-text-multiple.
type BulkSendRequest struct {
	PhoneListText       string   `json:"phone_list_text"`
	ReplyTo             *string  `json:"reply_to"`
	Text                string   `json:"text"`
	LinkPreview         bool     `json:"linkPreview"`
	Sessions            []string `json:"sessions"`
	RotationEnabled     string   `json:"is_rotation_enabled"`
	AIEnabled           string   `json:"is_ai_enabled"`
	MessageDelaySeconds int      `json:"message_delay_seconds"`
	Background          bool     `json:"background"`
}

// BulkSendResult carries the job handle for a started bulk send.
type BulkSendResult struct {
	JobID   string `json:"job_id"`
	Message string `json:"message,omitempty"`
}

// PresenceRequest is shared by /send-seen, /start-typing and /stop-typing.
type PresenceRequest struct {
	ChatID      string   `json:"chatId"`
	MessageIDs  []string `json:"messageIds"`
	Participant *string  `json:"participant"`
	Session     string   `json:"session"`
}
