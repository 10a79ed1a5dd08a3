package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Welt-Agency/waha-frontend/internal/bus"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// wsServer is an in-process push endpoint. It records subscribe
// directives and lets tests inject frames or kill the connection.
type wsServer struct {
	t *testing.T

	mu         sync.Mutex
	directives []subscribeDirective
	conn       *websocket.Conn

	srv *httptest.Server
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	s := &wsServer{t: t}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()

		// Drain client directives.
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}
			var d subscribeDirective
			if json.Unmarshal(data, &d) == nil {
				s.mu.Lock()
				s.directives = append(s.directives, d)
				s.mu.Unlock()
			}
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *wsServer) push(frame string) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		s.t.Fatal("no client connected")
	}
	if err := conn.Write(context.Background(), websocket.MessageText, []byte(frame)); err != nil {
		s.t.Fatalf("push: %v", err)
	}
}

func (s *wsServer) kill() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusGoingAway, "server shutdown")
	}
}

func (s *wsServer) directiveSessions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, d := range s.directives {
		names = append(names, d.Session)
	}
	return names
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestChannelSubscribeSendsDirectives(t *testing.T) {
	srv := newWSServer(t)
	b := bus.New()

	var mu sync.Mutex
	var received [][]byte
	ch := newChannel("test", srv.url(), b, zap.NewNop(), func(_ context.Context, data []byte) {
		mu.Lock()
		received = append(received, data)
		mu.Unlock()
	})

	events := b.Subscribe("realtime", 4)
	defer events.Cancel()

	if err := ch.Subscribe(context.Background(), []string{"main", "backup"}); err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	if ch.State() != Open {
		t.Fatalf("state = %s, want OPEN", ch.State())
	}
	select {
	case ev := <-events.C:
		if ev.Kind != bus.KindRealtimeConnected {
			t.Errorf("event = %s", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("no connected event")
	}

	waitFor(t, func() bool { return len(srv.directiveSessions()) == 2 }, "directives not received")
	got := srv.directiveSessions()
	if got[0] != "main" || got[1] != "backup" {
		t.Errorf("directives = %v", got)
	}

	// Frames flow to the handler untouched.
	srv.push(`{"event":"ping"}`)
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, "frame never reached the handler")
}

func TestChannelSubscribeIsIdempotentWhileOpen(t *testing.T) {
	srv := newWSServer(t)
	ch := newChannel("test", srv.url(), bus.New(), zap.NewNop(), func(context.Context, []byte) {})

	if err := ch.Subscribe(context.Background(), []string{"main"}); err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	// Second subscribe on an open channel changes nothing.
	if err := ch.Subscribe(context.Background(), []string{"main"}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(srv.directiveSessions()) >= 1 }, "no directive")
	time.Sleep(50 * time.Millisecond)
	if got := len(srv.directiveSessions()); got != 1 {
		t.Errorf("directives = %d, want 1", got)
	}
}

func TestChannelServerDropSurfacesFailure(t *testing.T) {
	srv := newWSServer(t)
	b := bus.New()
	ch := newChannel("test", srv.url(), b, zap.NewNop(), func(context.Context, []byte) {})

	events := b.Subscribe("realtime", 4)
	defer events.Cancel()

	if err := ch.Subscribe(context.Background(), []string{"main"}); err != nil {
		t.Fatal(err)
	}
	<-events.C // connected

	srv.kill()

	select {
	case ev := <-events.C:
		if ev.Kind != bus.KindRealtimeDisconnected {
			t.Errorf("event = %s", ev.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no disconnected event")
	}
	waitFor(t, func() bool { return ch.State() == Failed }, "state never reached FAILED")

	// An explicit resubscribe recovers; there is no automatic retry.
	if err := ch.Subscribe(context.Background(), []string{"main"}); err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	ch.Close()
}

func TestChannelCloseIsIntentional(t *testing.T) {
	srv := newWSServer(t)
	b := bus.New()
	ch := newChannel("test", srv.url(), b, zap.NewNop(), func(context.Context, []byte) {})

	events := b.Subscribe("realtime", 4)
	defer events.Cancel()

	if err := ch.Subscribe(context.Background(), []string{"main"}); err != nil {
		t.Fatal(err)
	}
	<-events.C // connected

	ch.Close()
	ch.Close()

	if ch.State() != Closed {
		t.Errorf("state = %s, want CLOSED", ch.State())
	}
	// Intentional teardown publishes no disconnect event.
	select {
	case ev := <-events.C:
		t.Errorf("unexpected event %s after Close", ev.Kind)
	case <-time.After(100 * time.Millisecond):
	}
}
