package models

import "time"

// Section is a group of students taking the test within a session.
// RoomID is nil until the section has been assigned to a room.
type Section struct {
	ID         int       `json:"id"`
	SessionID  int       `json:"sessionId"`
	RoomID     *int      `json:"roomId,omitempty"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}
