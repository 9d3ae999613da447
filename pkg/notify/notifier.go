package notify

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tayylorngo/t-testing-sub000/pkg/events"
	"github.com/tayylorngo/t-testing-sub000/websocket"
)

// Notifier is the seam between mutation handlers and the realtime layer.
// Implementations must be safe for concurrent use and must never return
// errors to the caller: delivery is best-effort by design.
type Notifier interface {
	// NotifyUser delivers an event to every connection of a user.
	NotifyUser(userID int, event interface{})
	// PublishSession fans an update out to the session's subscribers,
	// excluding the originating websocket client when originClientID is set.
	PublishSession(sessionID int, eventType string, data interface{}, originClientID string)
}

// WSNotifier implements Notifier on top of the websocket Hub.
type WSNotifier struct {
	Hub *websocket.Hub
}

func (n *WSNotifier) NotifyUser(userID int, event interface{}) {
	if n == nil || n.Hub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal notification", "err", err)
		return
	}
	n.Hub.NotifyUser(userID, payload)
}

func (n *WSNotifier) PublishSession(sessionID int, eventType string, data interface{}, originClientID string) {
	if n == nil || n.Hub == nil {
		return
	}
	env := events.Update{
		SessionID: sessionID,
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		slog.Error("failed to marshal session update", "err", err, "type", eventType)
		return
	}
	n.Hub.Publish(sessionID, payload, originClientID)
}
