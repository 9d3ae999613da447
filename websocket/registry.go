package websocket

import "sync"

// Registry tracks which client is subscribed to which session. A client
// holds at most one subscription at a time: joining a new session
// implicitly leaves the previous one. All methods are safe for
// concurrent use; Members returns a copy so callers never hold the lock
// while writing to connections.
type Registry struct {
	mu        sync.RWMutex
	bySession map[int]map[*Client]struct{}
	sessions  map[*Client]int
}

func NewRegistry() *Registry {
	return &Registry{
		bySession: make(map[int]map[*Client]struct{}),
		sessions:  make(map[*Client]int),
	}
}

// Join subscribes c to sessionID, leaving any prior session first.
// It returns the previous session id and whether there was one.
func (r *Registry) Join(c *Client, sessionID int) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, had := r.sessions[c]
	if had && prev == sessionID {
		return prev, true
	}
	if had {
		r.removeLocked(c, prev)
	}
	set, ok := r.bySession[sessionID]
	if !ok {
		set = make(map[*Client]struct{})
		r.bySession[sessionID] = set
	}
	set[c] = struct{}{}
	r.sessions[c] = sessionID
	return prev, had
}

// Leave unsubscribes c from sessionID. Leaving a session the client
// never joined is a no-op.
func (r *Registry) Leave(c *Client, sessionID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[c]; ok && cur == sessionID {
		r.removeLocked(c, sessionID)
	}
}

// Drop removes c from whatever session it is subscribed to. Called on
// disconnect so a half-closed connection never receives another event.
func (r *Registry) Drop(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[c]; ok {
		r.removeLocked(c, cur)
	}
}

// Members returns a snapshot of the clients subscribed to sessionID.
// An unknown session yields an empty slice.
func (r *Registry) Members(sessionID int) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.bySession[sessionID]
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// SessionOf returns the session c is subscribed to, if any.
func (r *Registry) SessionOf(c *Client) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sid, ok := r.sessions[c]
	return sid, ok
}

func (r *Registry) removeLocked(c *Client, sessionID int) {
	if set, ok := r.bySession[sessionID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(r.bySession, sessionID)
		}
	}
	delete(r.sessions, c)
}
