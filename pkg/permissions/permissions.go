// Package permissions is the single place access rules for sessions are
// derived. Every mutation path calls these predicates instead of
// re-deriving capability checks inline.
package permissions

import "github.com/tayylorngo/t-testing-sub000/models"

// CanView reports whether userID may read the session. The owner and
// every collaborator can view; holding any collaborator record implies
// view regardless of the other flags.
func CanView(s *models.Session, userID int) bool {
	if s == nil {
		return false
	}
	if s.OwnerID == userID {
		return true
	}
	return s.CollaboratorByUserID(userID) != nil
}

// CanEdit reports whether userID may mutate the session's content
// (rooms, sections, name, status). Manage implies edit.
func CanEdit(s *models.Session, userID int) bool {
	if s == nil {
		return false
	}
	if s.OwnerID == userID {
		return true
	}
	if c := s.CollaboratorByUserID(userID); c != nil {
		return c.Permissions.Edit || c.Permissions.Manage
	}
	return false
}

// CanManage reports whether userID may manage membership (create and
// cancel invitations). Removing collaborators and changing their
// permissions remains owner-only and is checked separately.
func CanManage(s *models.Session, userID int) bool {
	if s == nil {
		return false
	}
	if s.OwnerID == userID {
		return true
	}
	if c := s.CollaboratorByUserID(userID); c != nil {
		return c.Permissions.Manage
	}
	return false
}

// Normalize returns the permission set as stored: view is always true,
// and for non-owner inviters the edit/manage grants are stripped. Only
// the session owner may grant edit or manage.
func Normalize(requested models.Permissions, inviterIsOwner bool) models.Permissions {
	p := models.Permissions{View: true}
	if inviterIsOwner {
		p.Edit = requested.Edit
		p.Manage = requested.Manage
	}
	return p
}
