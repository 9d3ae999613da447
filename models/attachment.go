package models

import "time"

// Attachment is a file (seating chart, roster export) stored in object
// storage and linked to a session. ID doubles as the object key.
type Attachment struct {
	ID        string    `json:"id"`
	SessionID int       `json:"sessionId"`
	UserID    int       `json:"userId"`
	FileName  string    `json:"fileName"`
	MimeType  string    `json:"mimeType"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}
