package waha

import (
	"context"
	"strconv"
)

// ChatOverview returns one page of the per-session chat overview list,
// most recently active first.
func (c *Client) ChatOverview(ctx context.Context, session string, limit, offset int) ([]ChatOverview, error) {
	var page []ChatOverview
	query := map[string]string{
		"limit":  strconv.Itoa(limit),
		"offset": strconv.Itoa(offset),
	}
	if err := c.getJSON(ctx, "/chats/"+session+"/overview", query, &page); err != nil {
		return nil, err
	}
	return page, nil
}

// SendSeen marks the given messages of a chat as read. Fire-and-forget
// from the store's perspective; the resulting ack updates arrive by push.
func (c *Client) SendSeen(ctx context.Context, req *PresenceRequest) error {
	return c.postJSON(ctx, "/send-seen", req, nil)
}

// StartTyping signals the typing indicator for a chat.
func (c *Client) StartTyping(ctx context.Context, req *PresenceRequest) error {
	return c.postJSON(ctx, "/start-typing", req, nil)
}

// StopTyping clears the typing indicator for a chat.
func (c *Client) StopTyping(ctx context.Context, req *PresenceRequest) error {
	return c.postJSON(ctx, "/stop-typing", req, nil)
}
