package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Welt-Agency/waha-frontend/internal/bus"
	"github.com/Welt-Agency/waha-frontend/internal/store"
	"github.com/Welt-Agency/waha-frontend/internal/waha"
	"go.uber.org/zap"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	session waha.Session
}

func (f *fakeFetcher) GetSession(ctx context.Context, name string) (*waha.Session, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	sess := f.session
	sess.Name = name
	return &sess, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testManager(t *testing.T, fetcher SessionFetcher) (*Manager, *store.Store, *bus.Bus) {
	t.Helper()
	b := bus.New()
	st := store.New(b, time.Hour)
	m := NewManager("ws://unused/session", "ws://unused/overview", st, fetcher, b, zap.NewNop())
	return m, st, b
}

func waitForSessionEvent(t *testing.T, events *bus.Subscription) {
	t.Helper()
	select {
	case <-events.C:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session event")
	}
}

func TestSessionStatusPartialMerge(t *testing.T) {
	fetcher := &fakeFetcher{}
	m, st, _ := testManager(t, fetcher)
	st.SetSessions([]waha.Session{{
		Name:   "main",
		Status: waha.StatusWorking,
		Me:     &waha.Me{ID: "905@c.us"},
	}})

	// WORKING -> FAILED is an ordinary push: merged locally, no refetch.
	m.handleSessionFrame(context.Background(), []byte(`{
		"event": "session.status",
		"metadata": {},
		"payload": {"name": "main", "status": "FAILED"}
	}`))

	if got := st.SessionStatus("main"); got != waha.StatusFailed {
		t.Errorf("status = %q, want FAILED", got)
	}
	if fetcher.callCount() != 0 {
		t.Errorf("refetch triggered on non-WORKING transition")
	}
	if st.Sessions()[0].Me == nil {
		t.Error("partial push wiped identity")
	}
}

func TestWorkingTransitionTriggersAuthoritativeRefetch(t *testing.T) {
	fetcher := &fakeFetcher{session: waha.Session{
		Status:         waha.StatusWorking,
		Me:             &waha.Me{ID: "905@c.us", PushName: "Ops"},
		AssignedWorker: "w7",
	}}
	m, st, b := testManager(t, fetcher)
	st.SetSessions([]waha.Session{{Name: "main", Status: waha.StatusScanQR}})

	events := b.Subscribe("session", 4)
	defer events.Cancel()

	m.handleSessionFrame(context.Background(), []byte(`{
		"event": "session.status",
		"metadata": {},
		"payload": {"name": "main", "status": "WORKING"}
	}`))

	waitForSessionEvent(t, events)

	if fetcher.callCount() != 1 {
		t.Fatalf("refetch calls = %d, want 1", fetcher.callCount())
	}
	sess := st.Sessions()[0]
	if sess.Status != waha.StatusWorking || sess.AssignedWorker != "w7" {
		t.Errorf("refetched session not applied: %+v", sess)
	}
	if sess.Me == nil || sess.Me.PushName != "Ops" {
		t.Error("refetched identity missing")
	}
}

func TestWorkingRefetchIsCoalesced(t *testing.T) {
	fetcher := &fakeFetcher{
		release: make(chan struct{}),
		session: waha.Session{Status: waha.StatusWorking},
	}
	m, st, b := testManager(t, fetcher)
	st.SetSessions([]waha.Session{{Name: "main", Status: waha.StatusScanQR}})

	events := b.Subscribe("session", 4)
	defer events.Cancel()

	frame := []byte(`{
		"event": "session.status",
		"metadata": {},
		"payload": {"name": "main", "status": "WORKING"}
	}`)
	m.handleSessionFrame(context.Background(), frame)
	m.handleSessionFrame(context.Background(), frame)
	m.handleSessionFrame(context.Background(), frame)

	close(fetcher.release)
	waitForSessionEvent(t, events)

	if got := fetcher.callCount(); got != 1 {
		t.Errorf("refetch calls = %d, want 1 (coalesced)", got)
	}
}

func TestLegacySessionFrames(t *testing.T) {
	m, st, _ := testManager(t, &fakeFetcher{})
	ctx := context.Background()

	m.handleSessionFrame(ctx, []byte(`{"type":"added","session":{"name":"a","status":"STARTING"}}`))
	if len(st.Sessions()) != 1 {
		t.Fatalf("sessions = %d after added", len(st.Sessions()))
	}

	m.handleSessionFrame(ctx, []byte(`{"type":"updated","session":{"name":"a","status":"WORKING"}}`))
	if got := st.SessionStatus("a"); got != waha.StatusWorking {
		t.Errorf("status after updated = %q", got)
	}

	m.handleSessionFrame(ctx, []byte(`{"type":"removed","session":{"name":"a"}}`))
	if len(st.Sessions()) != 0 {
		t.Error("session not removed")
	}
}

func TestMessagePushOntoEmptyOverview(t *testing.T) {
	m, st, _ := testManager(t, &fakeFetcher{})

	m.handleOverviewFrame(context.Background(), []byte(`{
		"event": "message",
		"session": "main",
		"payload": {
			"id": "msg-1",
			"timestamp": 1700000000,
			"from": "905_c.us",
			"fromMe": false,
			"body": "hi",
			"ack": 1
		}
	}`))

	overview := st.Overview("main")
	if len(overview) != 1 {
		t.Fatalf("overview entries = %d, want 1", len(overview))
	}
	entry := overview[0]
	if entry.ID != "905_c.us" {
		t.Errorf("chat id = %q", entry.ID)
	}
	if entry.UnreadCount != 1 {
		t.Errorf("unread = %d, want 1 for incoming unread message", entry.UnreadCount)
	}
	if entry.LastMessage == nil || entry.LastMessage.Body != "hi" {
		t.Error("last message not synthesized from push")
	}
	if entry.OrderingTimestamp() != 1700000000 {
		t.Errorf("ordering timestamp = %d", entry.OrderingTimestamp())
	}

	msgs := st.Messages("905_c.us")
	if len(msgs) != 1 || msgs[0].ID != "msg-1" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestMessagePushPrefersPushedFragment(t *testing.T) {
	m, st, _ := testManager(t, &fakeFetcher{})

	m.handleOverviewFrame(context.Background(), []byte(`{
		"event": "message",
		"session": "main",
		"payload": {
			"id": "msg-2",
			"timestamp": 1700000100,
			"from": "905_c.us",
			"fromMe": false,
			"body": "again",
			"ack": 1,
			"unreadCount": 7,
			"chat_overview": {
				"id": "905_c.us",
				"name": "Support",
				"unreadCount": 7,
				"lastMessage": {"id": "msg-2", "timestamp": 1700000100, "body": "again"}
			}
		}
	}`))

	overview := st.Overview("main")
	if len(overview) != 1 {
		t.Fatalf("overview entries = %d, want 1", len(overview))
	}
	entry := overview[0]
	if entry.Name == nil || *entry.Name != "Support" {
		t.Error("pushed fragment name not applied")
	}
	if entry.UnreadCount != 7 {
		t.Errorf("unread = %d, want 7 from fragment", entry.UnreadCount)
	}
}

func TestOutgoingMessagePushSynthesizesZeroUnread(t *testing.T) {
	m, st, _ := testManager(t, &fakeFetcher{})

	m.handleOverviewFrame(context.Background(), []byte(`{
		"event": "message",
		"session": "main",
		"payload": {
			"id": "msg-3",
			"timestamp": 1700000200,
			"from": "me@c.us",
			"to": "905_c.us",
			"fromMe": true,
			"body": "reply",
			"ack": 1
		}
	}`))

	overview := st.Overview("main")
	if len(overview) != 1 {
		t.Fatalf("overview entries = %d, want 1", len(overview))
	}
	if overview[0].ID != "905_c.us" {
		t.Errorf("outgoing message filed under %q, want counterparty", overview[0].ID)
	}
	if overview[0].UnreadCount != 0 {
		t.Errorf("unread = %d, want 0 for own message", overview[0].UnreadCount)
	}
}

func TestAckFrameUpdatesMessage(t *testing.T) {
	m, st, _ := testManager(t, &fakeFetcher{})
	st.AddMessage("905_c.us", waha.Message{ID: "msg-1", Timestamp: 1700000000, Ack: waha.AckSent})

	m.handleOverviewFrame(context.Background(), []byte(
		`{"event":"message.status","chatId":"905_c.us","messageId":"msg-1","ack":3}`))

	msgs := st.Messages("905_c.us")
	if msgs[0].Ack != waha.AckRead {
		t.Errorf("ack = %d, want %d", msgs[0].Ack, waha.AckRead)
	}
}

func TestMalformedFramesAreDropped(t *testing.T) {
	m, st, _ := testManager(t, &fakeFetcher{})
	ctx := context.Background()

	for _, raw := range []string{
		`{"event": "message", `,
		`{"event":"unknown.event","payload":{}}`,
		`{"event":"message","session":"main","payload":{"body":"no id"}}`,
	} {
		m.handleSessionFrame(ctx, []byte(raw))
		m.handleOverviewFrame(ctx, []byte(raw))
	}

	if len(st.Sessions()) != 0 || len(st.Overview("main")) != 0 {
		t.Error("junk frame mutated the store")
	}
}
