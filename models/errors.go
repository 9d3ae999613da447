package models

import "errors"

// Domain errors shared between the repository and handler layers.
// Handlers translate these into API error codes; nothing in this package
// knows about HTTP.
var (
	// ErrPermissionDenied means the acting user lacks the capability
	// required for the requested mutation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidTransition means an invitation action was requested from
	// a status that does not allow it.
	ErrInvalidTransition = errors.New("invalid invitation transition")

	// ErrDuplicatePendingInvitation means a pending invitation already
	// exists for the (session, invited user) pair.
	ErrDuplicatePendingInvitation = errors.New("pending invitation already exists")

	// ErrAlreadyCollaborator means the invited user already holds a
	// collaborator record (or owns the session).
	ErrAlreadyCollaborator = errors.New("user is already a member of the session")

	// ErrVersionConflict means a conditional update lost the race against
	// a concurrent writer; the caller should re-read and retry.
	ErrVersionConflict = errors.New("session was modified concurrently")

	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
)
