package models

import "time"

// Session statuses. A session moves freely between these; the status is
// descriptive, not a workflow gate.
const (
	SessionStatusPlanned   = "planned"
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
)

// ValidSessionStatus reports whether s is one of the known session statuses.
func ValidSessionStatus(s string) bool {
	switch s {
	case SessionStatusPlanned, SessionStatusActive, SessionStatusCompleted, SessionStatusCancelled:
		return true
	}
	return false
}

// Permissions describes what a collaborator may do within a session.
// View is implied for every collaborator record and cannot be revoked;
// it is kept in the struct so API payloads mirror the stored shape.
type Permissions struct {
	View   bool `json:"view"`
	Edit   bool `json:"edit"`
	Manage bool `json:"manage"`
}

// Collaborator is a non-owner user granted access to a session.
type Collaborator struct {
	UserID      int         `json:"userId"`
	Username    string      `json:"username,omitempty"`
	Permissions Permissions `json:"permissions"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Session is a scheduled testing event. The owner is never present in
// Collaborators; Version is the optimistic-concurrency token bumped on
// every conditional update.
type Session struct {
	ID            int            `json:"id"`
	Name          string         `json:"name"`
	OwnerID       int            `json:"ownerId"`
	Status        string         `json:"status"`
	Version       int            `json:"version"`
	Collaborators []Collaborator `json:"collaborators,omitempty"`
	Rooms         []Room         `json:"rooms,omitempty"`
	Sections      []Section      `json:"sections,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	ModifiedAt    time.Time      `json:"modifiedAt"`
}

// CollaboratorByUserID returns the collaborator record for userID, or nil.
func (s *Session) CollaboratorByUserID(userID int) *Collaborator {
	for i := range s.Collaborators {
		if s.Collaborators[i].UserID == userID {
			return &s.Collaborators[i]
		}
	}
	return nil
}
