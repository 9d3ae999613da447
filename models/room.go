package models

import "time"

// Room is a physical testing room attached to a session.
type Room struct {
	ID         int       `json:"id"`
	SessionID  int       `json:"sessionId"`
	Name       string    `json:"name"`
	Capacity   int       `json:"capacity"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}
