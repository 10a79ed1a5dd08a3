package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Welt-Agency/waha-frontend/internal/bus"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// subscribeDirective is the client→server subscription message, sent
// once per known session after a channel opens.
type subscribeDirective struct {
	Action  string `json:"action"`
	Session string `json:"session"`
}

// Channel is one WebSocket connection to a push endpoint. It owns the
// dial, the per-session subscribe handshake and the read loop; inbound
// frames are handed to the manager untyped.
type Channel struct {
	name   string
	url    string
	bus    *bus.Bus
	logger *zap.Logger

	machine *stateMachine
	handle  func(ctx context.Context, data []byte)

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
}

func newChannel(name, url string, b *bus.Bus, logger *zap.Logger, handle func(ctx context.Context, data []byte)) *Channel {
	return &Channel{
		name:    name,
		url:     url,
		bus:     b,
		logger:  logger,
		machine: newStateMachine(),
		handle:  handle,
	}
}

// State returns the channel's connection state.
func (c *Channel) State() State {
	return c.machine.Current()
}

// Subscribe dials the endpoint and sends one subscribe directive per
// given session. It is idempotent: a channel that is already Open (or
// mid-dial) is left alone. Sessions learned after the dial are not
// auto-subscribed; callers re-invoke Subscribe with the current set.
func (c *Channel) Subscribe(ctx context.Context, sessions []string) error {
	switch c.machine.Current() {
	case Open, Connecting:
		return nil
	}
	if err := c.machine.Transition(Connecting); err != nil {
		return err
	}

	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	conn, _, err := websocket.Dial(dialCtx, c.url, nil)
	cancel()
	if err != nil {
		_ = c.machine.Transition(Failed)
		return fmt.Errorf("dial %s channel: %w", c.name, err)
	}

	for _, session := range sessions {
		data, err := json.Marshal(subscribeDirective{Action: "subscribe", Session: session})
		if err != nil {
			continue
		}
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
			_ = c.machine.Transition(Failed)
			return fmt.Errorf("subscribe %s on %s channel: %w", session, c.name, err)
		}
	}

	readCtx, cancelRead := context.WithCancel(ctx)
	c.mu.Lock()
	c.conn = conn
	c.cancel = cancelRead
	c.mu.Unlock()

	if err := c.machine.Transition(Open); err != nil {
		cancelRead()
		_ = conn.Close(websocket.StatusInternalError, "state error")
		return err
	}

	c.logger.Info("channel open",
		zap.String("channel", c.name),
		zap.Int("subscriptions", len(sessions)))
	c.bus.Publish(bus.KindRealtimeConnected, c.name)

	go c.readLoop(readCtx, conn)
	return nil
}

// Close tears the channel down. Safe to call in any state.
func (c *Channel) Close() {
	c.mu.Lock()
	conn := c.conn
	cancel := c.cancel
	c.conn = nil
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "client close")
	}
	if cur := c.machine.Current(); cur == Open || cur == Connecting {
		_ = c.machine.Transition(Closed)
	}
}

func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				// Intentional teardown via Close.
				return
			}
			// Failure is surfaced, not retried: reconnect policy is
			// left to the caller so retries stay bounded.
			_ = c.machine.Transition(Failed)
			c.mu.Lock()
			c.conn = nil
			c.mu.Unlock()
			c.logger.Warn("channel closed",
				zap.String("channel", c.name),
				zap.Error(err))
			c.bus.Publish(bus.KindRealtimeDisconnected, c.name)
			return
		}
		c.handle(ctx, data)
	}
}
