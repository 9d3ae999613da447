package models

import "time"

// Invitation statuses. Cancelled and cleared invitations are deleted
// rather than kept in a terminal state, so only these three are stored.
const (
	InvitationStatusPending  = "pending"
	InvitationStatusAccepted = "accepted"
	InvitationStatusDeclined = "declined"
)

// Invitation is a proposed collaborator relationship awaiting the
// invitee's response. Permissions are a snapshot taken at creation time
// and applied verbatim when the invitation is accepted.
type Invitation struct {
	ID            int         `json:"id"`
	SessionID     int         `json:"sessionId"`
	SessionName   string      `json:"sessionName,omitempty"`
	InvitedUserID int         `json:"invitedUserId"`
	InvitedByID   int         `json:"invitedById"`
	Permissions   Permissions `json:"permissions"`
	Status        string      `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Invitation actions requested against an existing invitation.
const (
	InvitationActionAccept  = "accept"
	InvitationActionDecline = "decline"
	InvitationActionCancel  = "cancel"
	InvitationActionClear   = "clear"
)

// CanTransition reports whether action is legal from the given status.
// Accept, decline and cancel are only legal while pending; clear is only
// legal once the invitee has responded.
func (inv *Invitation) CanTransition(action string) bool {
	switch action {
	case InvitationActionAccept, InvitationActionDecline, InvitationActionCancel:
		return inv.Status == InvitationStatusPending
	case InvitationActionClear:
		return inv.Status == InvitationStatusAccepted || inv.Status == InvitationStatusDeclined
	}
	return false
}

// Pending reports whether the invitation still awaits a response.
func (inv *Invitation) Pending() bool {
	return inv.Status == InvitationStatusPending
}
