package bus

import "time"

// Kind names an event category. Kinds are dotted paths and subscribers
// filter by prefix, so "session." matches every session event.
type Kind string

// Event is one domain change, stamped by the bus at publish time.
type Event struct {
	Kind    Kind
	At      time.Time
	Payload any
}

const (
	KindSessionUpdated Kind = "session.updated"
	KindSessionRemoved Kind = "session.removed"

	KindOverviewUpdated Kind = "overview.updated"

	KindMessageUpserted Kind = "message.upserted"
	KindMessageAck      Kind = "message.ack"

	KindJobUpdated Kind = "job.updated"

	KindOutboxSent   Kind = "outbox.sent"
	KindOutboxFailed Kind = "outbox.failed"

	KindRealtimeConnected    Kind = "realtime.connected"
	KindRealtimeDisconnected Kind = "realtime.disconnected"
)
