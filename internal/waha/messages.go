package waha

import (
	"context"
	"strconv"
)

// ListMessages returns one page of a chat's message history, newest first.
// Callers merging into a timestamp-ascending log must reverse the page.
func (c *Client) ListMessages(ctx context.Context, session, chatID string, limit, offset int) ([]Message, error) {
	var page []Message
	query := map[string]string{
		"limit":  strconv.Itoa(limit),
		"offset": strconv.Itoa(offset),
	}
	if err := c.getJSON(ctx, "/chats/"+session+"/"+chatID+"/messages", query, &page); err != nil {
		return nil, err
	}
	return page, nil
}

// SendText sends a single text message through a session.
func (c *Client) SendText(ctx context.Context, req *SendTextRequest) (*SendTextResult, error) {
	var res SendTextResult
	if err := c.postJSON(ctx, "/send-text/", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
