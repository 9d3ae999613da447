package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// Client represents a websocket connection bound to a user.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int
}

func (c *Client) ID() string  { return c.id }
func (c *Client) UserID() int { return c.userID }

// JoinAuthorizer decides whether a user may subscribe to a session.
// The hub stays decoupled from the persistence layer through this seam.
type JoinAuthorizer func(userID, sessionID int) bool

// Hub manages active clients, their session subscriptions, and fan-out.
type Hub struct {
	mu            sync.Mutex
	clientsByUser map[int]map[*Client]struct{}
	byID          map[string]*Client
	registry      *Registry
	authorize     JoinAuthorizer
}

func NewHub(authorize JoinAuthorizer) *Hub {
	return &Hub{
		clientsByUser: make(map[int]map[*Client]struct{}),
		byID:          make(map[string]*Client),
		registry:      NewRegistry(),
		authorize:     authorize,
	}
}

// Registry exposes the subscription registry, mainly for tests.
func (h *Hub) Registry() *Registry { return h.registry }

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clientsByUser[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clientsByUser[c.userID] = set
	}
	set[c] = struct{}{}
	h.byID[c.id] = c
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

// dropLocked removes the client from every map, unsubscribes it, and
// closes its send channel exactly once. Caller holds h.mu.
func (h *Hub) dropLocked(c *Client) {
	set, ok := h.clientsByUser[c.userID]
	if !ok {
		return
	}
	if _, in := set[c]; !in {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clientsByUser, c.userID)
	}
	delete(h.byID, c.id)
	h.registry.Drop(c)
	close(c.send)
}

// trySend queues payload for a registered client. Slow clients are
// dropped rather than allowed to block the hub. Caller holds h.mu.
func (h *Hub) trySendLocked(c *Client, payload []byte) {
	set, ok := h.clientsByUser[c.userID]
	if !ok {
		return
	}
	if _, in := set[c]; !in {
		return
	}
	select {
	case c.send <- payload:
	default:
		slog.Info("dropping slow websocket client", "clientId", c.id, "userId", c.userID)
		h.dropLocked(c)
	}
}

// Publish delivers payload to every client currently subscribed to
// sessionID, except the originating client when excludeClientID is set.
// Delivery is best-effort: clients not subscribed at this instant, or
// dropped for backpressure, simply miss the event and are expected to
// re-fetch authoritative state after reconnecting.
func (h *Hub) Publish(sessionID int, payload []byte, excludeClientID string) {
	if h == nil {
		return
	}
	members := h.registry.Members(sessionID)
	if len(members) == 0 {
		slog.Debug("publish with no subscribers", "sessionId", sessionID)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range members {
		if excludeClientID != "" && c.id == excludeClientID {
			continue
		}
		h.trySendLocked(c, payload)
	}
}

// NotifyUser sends a payload to all connected clients of a given user,
// regardless of session subscriptions.
func (h *Hub) NotifyUser(userID int, payload []byte) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clientsByUser[userID] {
		h.trySendLocked(c, payload)
	}
}

// controlMessage is the only inbound frame shape the hub understands.
type controlMessage struct {
	Action    string `json:"action"`
	SessionID int    `json:"sessionId"`
}

func (h *Hub) sendControl(c *Client, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal control frame", "err", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.trySendLocked(c, payload)
}

// handleControl processes a join/leave frame from the reader goroutine.
func (h *Hub) handleControl(c *Client, raw []byte) {
	var m controlMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		h.sendControl(c, gin.H{"type": "error", "message": "malformed control message"})
		return
	}
	switch m.Action {
	case "join":
		if h.authorize != nil && !h.authorize(c.userID, m.SessionID) {
			h.sendControl(c, gin.H{"type": "error", "message": "no access to session", "sessionId": m.SessionID})
			return
		}
		h.registry.Join(c, m.SessionID)
		h.sendControl(c, gin.H{"type": "joined", "sessionId": m.SessionID})
	case "leave":
		// Idempotent: leaving a session never joined is fine.
		h.registry.Leave(c, m.SessionID)
		h.sendControl(c, gin.H{"type": "left", "sessionId": m.SessionID})
	default:
		h.sendControl(c, gin.H{"type": "error", "message": "unknown action"})
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the HTTP connection to WebSocket and registers the
// client. The caller must authenticate and set userId in the context.
func ServeWS(h *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt("userId")
		if userID == 0 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", "err", err)
			return
		}
		client := &Client{
			id:     uuid.NewString(),
			hub:    h,
			conn:   conn,
			send:   make(chan []byte, sendBuffer),
			userID: userID,
		}
		h.register(client)
		h.sendControl(client, gin.H{"type": "connected", "clientId": client.id})

		// Reader goroutine: control frames only.
		go func() {
			defer func() {
				h.unregister(client)
				_ = conn.Close()
			}()
			conn.SetReadLimit(1024)
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(pongWait))
			})
			for {
				_, raw, err := conn.ReadMessage()
				if err != nil {
					break
				}
				_ = conn.SetReadDeadline(time.Now().Add(pongWait))
				h.handleControl(client, raw)
			}
		}()

		// Writer loop (same goroutine as the handler).
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case msg, ok := <-client.send:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if !ok {
					_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}
