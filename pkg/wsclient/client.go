// Package wsclient is a self-healing client for the realtime endpoint.
// It keeps one websocket connection alive, rejoins the tracked session
// after every reconnect and hands inbound frames to a caller-supplied
// handler.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	defaultBackoffMin = 500 * time.Millisecond
	defaultBackoffMax = 30 * time.Second
)

// ErrClosed is returned by operations on a client after Close.
var ErrClosed = errors.New("wsclient: closed")

// EventHandler receives every non-control frame from the server.
type EventHandler func(payload []byte)

// Options tune the supervisor. The zero value uses sane defaults.
type Options struct {
	BackoffMin time.Duration
	BackoffMax time.Duration
	// OnReconnect fires after every successful redial, once the join
	// for the tracked session (if any) has been re-issued.
	OnReconnect func()
}

// Client maintains a websocket connection to the realtime endpoint.
// All methods are safe for concurrent use.
type Client struct {
	url     string
	token   string
	handler EventHandler
	opts    Options

	mu        sync.Mutex
	conn      *websocket.Conn
	clientID  string
	sessionID int // 0 means not joined anywhere
	closed    bool

	kick chan struct{} // wakes the supervisor for a forced redial
	done chan struct{}
}

type controlFrame struct {
	Action    string `json:"action"`
	SessionID int    `json:"sessionId,omitempty"`
}

type serverFrame struct {
	Type      string `json:"type"`
	ClientID  string `json:"clientId"`
	SessionID int    `json:"sessionId"`
	Message   string `json:"message"`
}

// Dial connects to url (ws:// or wss://) authenticating with token and
// starts the supervisor. The returned client redials automatically until
// Close is called; ctx bounds only the initial handshake.
func Dial(ctx context.Context, url, token string, handler EventHandler, opts Options) (*Client, error) {
	if opts.BackoffMin <= 0 {
		opts.BackoffMin = defaultBackoffMin
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = defaultBackoffMax
	}
	c := &Client{
		url:     url,
		token:   token,
		handler: handler,
		opts:    opts,
		kick:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	conn, err := c.dialOnce(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	go c.supervise(conn)
	return c, nil
}

// ClientID returns the identifier assigned by the server on the current
// connection. Mutating HTTP calls should send it as X-Client-ID so the
// caller does not receive echoes of its own changes.
func (c *Client) ClientID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientID
}

// Join subscribes to session updates. Joining a new session implicitly
// leaves the previous one; the subscription survives reconnects.
func (c *Client) Join(sessionID int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.sessionID = sessionID
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil // supervisor will join after redial
	}
	return writeControl(conn, controlFrame{Action: "join", SessionID: sessionID})
}

// Leave unsubscribes from the current session, if any.
func (c *Client) Leave() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	prev := c.sessionID
	c.sessionID = 0
	conn := c.conn
	c.mu.Unlock()
	if conn == nil || prev == 0 {
		return nil
	}
	return writeControl(conn, controlFrame{Action: "leave", SessionID: prev})
}

// Reconnect drops the current connection and forces an immediate redial
// instead of waiting for the backoff timer.
func (c *Client) Reconnect() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	select {
	case c.kick <- struct{}{}:
	default:
	}
	if conn != nil {
		conn.Close()
	}
}

// Close tears the connection down permanently.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	close(c.done)
	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		return conn.Close()
	}
	return nil
}

func (c *Client) dialOnce(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", c.url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", c.url, err)
	}

	// The server greets every connection with its assigned client id.
	conn.SetReadDeadline(time.Now().Add(pongWait))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read welcome frame: %w", err)
	}
	var welcome serverFrame
	if err := json.Unmarshal(raw, &welcome); err != nil || welcome.Type != "connected" {
		conn.Close()
		return nil, fmt.Errorf("unexpected welcome frame %q", raw)
	}

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.mu.Lock()
	c.clientID = welcome.ClientID
	sessionID := c.sessionID
	c.mu.Unlock()
	if sessionID != 0 {
		if err := writeControl(conn, controlFrame{Action: "join", SessionID: sessionID}); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

// supervise owns the connection lifecycle: it runs the read loop, and on
// failure redials with exponential backoff until Close.
func (c *Client) supervise(conn *websocket.Conn) {
	for {
		c.readLoop(conn)

		backoff := c.opts.BackoffMin
		for {
			select {
			case <-c.done:
				return
			default:
			}

			next, err := c.dialOnce(context.Background())
			if err == nil {
				c.mu.Lock()
				if c.closed {
					c.mu.Unlock()
					next.Close()
					return
				}
				c.conn = next
				c.mu.Unlock()
				if c.opts.OnReconnect != nil {
					c.opts.OnReconnect()
				}
				conn = next
				break
			}

			select {
			case <-c.done:
				return
			case <-c.kick:
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > c.opts.BackoffMax {
				backoff = c.opts.BackoffMax
			}
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	stopPing := make(chan struct{})
	go pingLoop(conn, stopPing)
	defer close(stopPing)
	defer conn.Close()

	for {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame serverFrame
		if json.Unmarshal(raw, &frame) == nil {
			switch frame.Type {
			case "joined", "left", "error":
				continue // control acks are not events
			}
		}
		if c.handler != nil {
			c.handler(raw)
		}
	}
}

func pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeControl(conn *websocket.Conn, f controlFrame) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}
