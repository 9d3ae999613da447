package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(h *Hub, id string, userID int) *Client {
	c := &Client{id: id, hub: h, send: make(chan []byte, 4), userID: userID}
	h.register(c)
	return c
}

func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func received(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	default:
		return nil
	}
}

func TestPublishScopedToSession(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient(h, "a", 1)
	b := newTestClient(h, "b", 2)
	h.registry.Join(a, 10)
	h.registry.Join(b, 20)

	h.Publish(10, []byte(`{"type":"room-added"}`), "")

	assert.NotNil(t, received(t, a))
	assert.Nil(t, received(t, b))
}

func TestPublishExcludesOriginator(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient(h, "a", 1)
	b := newTestClient(h, "b", 2)
	h.registry.Join(a, 10)
	h.registry.Join(b, 10)

	h.Publish(10, []byte(`{}`), "a")

	assert.Nil(t, received(t, a))
	assert.NotNil(t, received(t, b))
}

func TestPublishUnknownSessionIsNoop(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient(h, "a", 1)
	h.Publish(99, []byte(`{}`), "")
	assert.Nil(t, received(t, a))
}

func TestJoinSwitchesSession(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient(h, "a", 1)
	h.registry.Join(a, 10)
	h.registry.Join(a, 20)

	h.Publish(10, []byte(`{}`), "")
	assert.Nil(t, received(t, a), "implicitly left the first session")

	h.Publish(20, []byte(`{}`), "")
	assert.NotNil(t, received(t, a))

	assert.Empty(t, h.registry.Members(10))
	assert.Len(t, h.registry.Members(20), 1)
}

func TestLeaveIsIdempotent(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient(h, "a", 1)
	h.registry.Join(a, 10)

	h.registry.Leave(a, 10)
	h.registry.Leave(a, 10)
	h.registry.Leave(a, 55) // never joined

	assert.Empty(t, h.registry.Members(10))
	_, subscribed := h.registry.SessionOf(a)
	assert.False(t, subscribed)
}

func TestDisconnectStopsDelivery(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient(h, "a", 1)
	b := newTestClient(h, "b", 2)
	h.registry.Join(a, 10)
	h.registry.Join(b, 10)

	h.Publish(10, []byte(`{"type":"room-added"}`), "")
	require.NotNil(t, received(t, a))
	require.NotNil(t, received(t, b))

	h.unregister(a)

	h.Publish(10, []byte(`{"type":"room-removed"}`), "")
	assert.NotNil(t, received(t, b))
	assert.Empty(t, h.registry.Members(10), "only b remains after a second lookup excludes a")
	// a's send channel was closed by unregister; no event was queued.
	_, open := <-a.send
	assert.False(t, open)
}

func TestNotifyUserReachesAllConnectionsOfUser(t *testing.T) {
	h := NewHub(nil)
	a1 := newTestClient(h, "a1", 1)
	a2 := newTestClient(h, "a2", 1)
	b := newTestClient(h, "b", 2)

	h.NotifyUser(1, []byte(`{"type":"invitation-created"}`))

	assert.NotNil(t, received(t, a1))
	assert.NotNil(t, received(t, a2))
	assert.Nil(t, received(t, b))
}

func TestSlowClientIsDropped(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient(h, "a", 1)
	h.registry.Join(a, 10)

	for i := 0; i < cap(a.send)+1; i++ {
		h.Publish(10, []byte(`{}`), "")
	}

	assert.Empty(t, h.registry.Members(10), "backpressure drops the client")
}

func TestJoinDeniedByAuthorizer(t *testing.T) {
	h := NewHub(func(userID, sessionID int) bool { return sessionID == 10 })
	a := newTestClient(h, "a", 1)
	drain(a)

	h.handleControl(a, []byte(`{"action":"join","sessionId":20}`))
	var frame map[string]interface{}
	require.NoError(t, json.Unmarshal(received(t, a), &frame))
	assert.Equal(t, "error", frame["type"])
	assert.Empty(t, h.registry.Members(20))

	h.handleControl(a, []byte(`{"action":"join","sessionId":10}`))
	require.NoError(t, json.Unmarshal(received(t, a), &frame))
	assert.Equal(t, "joined", frame["type"])
	assert.Len(t, h.registry.Members(10), 1)
}

func TestMalformedControlFrame(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient(h, "a", 1)
	drain(a)

	h.handleControl(a, []byte(`not json`))
	var frame map[string]interface{}
	require.NoError(t, json.Unmarshal(received(t, a), &frame))
	assert.Equal(t, "error", frame["type"])
}
