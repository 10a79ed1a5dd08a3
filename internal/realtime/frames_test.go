package realtime

import (
	"testing"

	"github.com/Welt-Agency/waha-frontend/internal/waha"
)

func TestDecodeFrameSessionStatus(t *testing.T) {
	raw := []byte(`{
		"event": "session.status",
		"session": "main",
		"metadata": {"company": "acme"},
		"me": {"id": "905@c.us", "pushName": "Ops"},
		"payload": {"name": "main", "status": "WORKING"}
	}`)

	f, ok := decodeFrame(raw).(*sessionStatusFrame)
	if !ok {
		t.Fatalf("decoded %T, want *sessionStatusFrame", decodeFrame(raw))
	}
	if f.Session.Name != "main" || f.Session.Status != waha.StatusWorking {
		t.Errorf("session = %+v", f.Session)
	}
	if f.Session.Me == nil || f.Session.Me.ID != "905@c.us" {
		t.Error("envelope me not merged into session")
	}
}

func TestDecodeFrameSessionStatusWithoutMetadataDropped(t *testing.T) {
	raw := []byte(`{"event":"session.status","payload":{"name":"main","status":"WORKING"}}`)
	if got := decodeFrame(raw); got != nil {
		t.Errorf("frame without metadata decoded to %T, want drop", got)
	}
}

func TestDecodeFrameLegacySession(t *testing.T) {
	for _, op := range []string{"added", "removed", "updated"} {
		raw := []byte(`{"type":"` + op + `","session":{"name":"old","status":"STOPPED"}}`)
		f, ok := decodeFrame(raw).(*legacySessionFrame)
		if !ok {
			t.Fatalf("op %s: decoded %T, want *legacySessionFrame", op, decodeFrame(raw))
		}
		if f.Op != op || f.Session.Name != "old" {
			t.Errorf("op %s: frame = %+v", op, f)
		}
	}
}

func TestDecodeFrameOverviewUpdate(t *testing.T) {
	raw := []byte(`{
		"event": "chat_overview_update",
		"session": "main",
		"payload": {"chat_overview": {"id": "905_c.us", "unreadCount": 2}}
	}`)

	f, ok := decodeFrame(raw).(*overviewFrame)
	if !ok {
		t.Fatalf("decoded %T, want *overviewFrame", decodeFrame(raw))
	}
	if f.Session != "main" || f.Overview.ID != "905_c.us" || f.Overview.UnreadCount != 2 {
		t.Errorf("frame = %+v", f)
	}
}

func TestDecodeFrameMessage(t *testing.T) {
	raw := []byte(`{
		"event": "message",
		"session": "main",
		"payload": {
			"id": "msg-1",
			"timestamp": 1700000000,
			"from": "905_c.us",
			"fromMe": false,
			"body": "hi",
			"ack": 1,
			"unreadCount": 4
		}
	}`)

	f, ok := decodeFrame(raw).(*messageFrame)
	if !ok {
		t.Fatalf("decoded %T, want *messageFrame", decodeFrame(raw))
	}
	if f.Message.ID != "msg-1" || f.Message.Body != "hi" {
		t.Errorf("message = %+v", f.Message)
	}
	if f.Overview != nil {
		t.Error("expected no overview fragment")
	}
	if f.UnreadCount == nil || *f.UnreadCount != 4 {
		t.Errorf("unreadCount = %v", f.UnreadCount)
	}
}

func TestDecodeFrameMessageStatus(t *testing.T) {
	raw := []byte(`{"event":"message.status","chatId":"905_c.us","messageId":"msg-1","ack":3}`)

	f, ok := decodeFrame(raw).(*ackFrame)
	if !ok {
		t.Fatalf("decoded %T, want *ackFrame", decodeFrame(raw))
	}
	if f.ChatID != "905_c.us" || f.MessageID != "msg-1" || f.Ack != waha.AckRead {
		t.Errorf("frame = %+v", f)
	}
}

func TestDecodeFrameDropsJunk(t *testing.T) {
	cases := map[string]string{
		"not json":            `{"event": "message", `,
		"unknown event":       `{"event":"presence.update","payload":{}}`,
		"message without id":  `{"event":"message","session":"main","payload":{"body":"hi"}}`,
		"overview without id": `{"event":"chat_overview_update","session":"main","payload":{"chat_overview":{}}}`,
		"ack without fields":  `{"event":"message.status","chatId":"905_c.us"}`,
		"legacy unknown type": `{"type":"renamed","session":{"name":"x"}}`,
	}
	for name, raw := range cases {
		if got := decodeFrame([]byte(raw)); got != nil {
			t.Errorf("%s: decoded to %T, want drop", name, got)
		}
	}
}

func TestChatIDOf(t *testing.T) {
	to := "905_c.us"
	out := waha.Message{FromMe: true, To: &to, From: "me@c.us"}
	if got := chatIDOf(&out); got != "905_c.us" {
		t.Errorf("outgoing chat id = %q", got)
	}

	in := waha.Message{FromMe: false, From: "905_c.us"}
	if got := chatIDOf(&in); got != "905_c.us" {
		t.Errorf("incoming chat id = %q", got)
	}
}
