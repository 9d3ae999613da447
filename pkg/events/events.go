// Package events defines the payloads carried over the realtime channel.
// The broadcast layer never interprets Type or Data; it routes by
// SessionID only, so new event types can be added without touching it.
package events

import "time"

// Update is the outbound envelope fanned out to session subscribers.
type Update struct {
	SessionID int         `json:"sessionId"`
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Session-scoped update types.
const (
	TypeSessionUpdated      = "session-updated"
	TypeSessionDeleted      = "session-deleted"
	TypeRoomAdded           = "room-added"
	TypeRoomUpdated         = "room-updated"
	TypeRoomRemoved         = "room-removed"
	TypeSectionAdded        = "section-added"
	TypeSectionUpdated      = "section-updated"
	TypeSectionRemoved      = "section-removed"
	TypeCollaboratorAdded   = "collaborator-added"
	TypeCollaboratorUpdated = "collaborator-updated"
	TypeCollaboratorRemoved = "collaborator-removed"
)

// User-scoped notification types delivered outside any session
// subscription (the invitee may not be able to view the session yet).
const (
	TypeInvitationCreated   = "invitation-created"
	TypeInvitationAccepted  = "invitation-accepted"
	TypeInvitationDeclined  = "invitation-declined"
	TypeInvitationCancelled = "invitation-cancelled"
)

// InvitationEvent is the payload for the invitation-* notification types.
type InvitationEvent struct {
	Type         string `json:"type"`
	InvitationID int    `json:"invitationId"`
	SessionID    int    `json:"sessionId"`
	SessionName  string `json:"sessionName,omitempty"`
	ActorID      int    `json:"actorId"`
}

// CollaboratorEvent is the payload for collaborator-* session updates.
type CollaboratorEvent struct {
	SessionID int  `json:"sessionId"`
	UserID    int  `json:"userId"`
	Edit      bool `json:"edit,omitempty"`
	Manage    bool `json:"manage,omitempty"`
}
