package waha

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token")
}

func TestListSessionsSendsBearerToken(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/" {
			t.Errorf("path = %q, want /sessions/", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode([]Session{{Name: "main", Status: StatusWorking}})
	})

	sessions, err := c.ListSessions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].Name != "main" {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestChatOverviewPagination(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chats/main/overview" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("limit") != "25" || q.Get("offset") != "50" {
			t.Errorf("query = %v, want limit=25 offset=50", q)
		}
		_, _ = w.Write([]byte(`[{"id":"905@c.us","name":"Ays","picture":null,"lastMessage":{"id":"m1","timestamp":1700000000,"fromMe":false,"body":"hi","ack":1},"unreadCount":2}]`))
	})

	page, err := c.ChatOverview(context.Background(), "main", 25, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 {
		t.Fatalf("got %d entries, want 1", len(page))
	}
	o := page[0]
	if o.Name == nil || *o.Name != "Ays" {
		t.Errorf("name = %v, want Ays", o.Name)
	}
	if o.Picture != nil {
		t.Errorf("picture = %v, want nil (absent)", o.Picture)
	}
	if o.LastMessage == nil || o.LastMessage.Body != "hi" || o.LastMessage.Ack != AckSent {
		t.Errorf("lastMessage = %+v", o.LastMessage)
	}
	if o.UnreadCount != 2 {
		t.Errorf("unreadCount = %d, want 2", o.UnreadCount)
	}
}

func TestSendTextPostsBody(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/send-text/" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var req SendTextRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.ChatID != "905@c.us" || req.Session != "main" || req.Text != "hello" {
			t.Errorf("req = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(SendTextResult{ID: "srv-1"})
	})

	res, err := c.SendText(context.Background(), &SendTextRequest{
		ChatID: "905@c.us", Session: "main", Text: "hello", LinkPreview: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.ID != "srv-1" {
		t.Errorf("id = %q, want srv-1", res.ID)
	}
}

func TestNon2xxReturnsAPIError(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session not found", http.StatusNotFound)
	})

	_, err := c.GetSession(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", apiErr.Status)
	}
}

func TestGetJobAndCancel(t *testing.T) {
	cancelled := false
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/jobs/j1":
			_ = json.NewEncoder(w).Encode(BulkJob{
				JobID: "j1", Status: JobPending, CurrentCount: 3, TotalCount: 10,
			})
		case r.Method == http.MethodPost && r.URL.Path == "/job-cancel/j1":
			cancelled = true
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	job, err := c.GetJob(context.Background(), "j1")
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != JobPending || job.CurrentCount != 3 {
		t.Errorf("job = %+v", job)
	}

	if err := c.CancelJob(context.Background(), "j1"); err != nil {
		t.Fatal(err)
	}
	if !cancelled {
		t.Error("cancel endpoint not hit")
	}
}
