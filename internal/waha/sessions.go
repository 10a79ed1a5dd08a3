package waha

import "context"

// ListSessions returns all sessions visible to the caller.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	if err := c.getJSON(ctx, "/sessions/", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession returns one session by name. The realtime layer uses this as
// the authoritative refetch after a WORKING transition, because push
// payloads for that transition are known-incomplete.
func (c *Client) GetSession(ctx context.Context, name string) (*Session, error) {
	var s Session
	if err := c.getJSON(ctx, "/sessions/"+name, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SessionCounts returns the company session limit and current count.
func (c *Client) SessionCounts(ctx context.Context) (*SessionCounts, error) {
	var sc SessionCounts
	if err := c.getJSON(ctx, "/company/session-counts", nil, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
