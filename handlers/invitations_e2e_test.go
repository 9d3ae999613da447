package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type invitationPayload struct {
	ID            int    `json:"id"`
	SessionID     int    `json:"sessionId"`
	InvitedUserID int    `json:"invitedUserId"`
	InvitedByID   int    `json:"invitedById"`
	Status        string `json:"status"`
	Permissions   struct {
		View   bool `json:"view"`
		Edit   bool `json:"edit"`
		Manage bool `json:"manage"`
	} `json:"permissions"`
}

func (s *E2ETestSuite) invite(permissions map[string]bool) (*http.Response, invitationPayload) {
	resp, parsed := s.do("POST", fmt.Sprintf("/sessions/%d/invitations", s.sessionID), s.ownerToken, map[string]any{
		"username":    s.proctorName,
		"permissions": permissions,
	})
	var inv invitationPayload
	if resp.StatusCode == http.StatusCreated {
		s.Require().NoError(json.Unmarshal(parsed.Data, &inv))
	}
	return resp, inv
}

func (s *E2ETestSuite) Test20_CreateInvitation() {
	resp, inv := s.invite(map[string]bool{"edit": true})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	s.Equal("pending", inv.Status)
	s.Equal(s.proctorID, inv.InvitedUserID)
	s.Equal(s.ownerID, inv.InvitedByID)
	s.True(inv.Permissions.View)
	s.True(inv.Permissions.Edit)
	s.False(inv.Permissions.Manage)
	s.invitationID = inv.ID
}

func (s *E2ETestSuite) Test21_DuplicatePendingRejected() {
	resp, _ := s.invite(map[string]bool{})
	s.Equal(http.StatusConflict, resp.StatusCode)
}

func (s *E2ETestSuite) Test22_InviteeSeesInvitation() {
	resp, parsed := s.do("GET", "/invitations", s.proctorToken, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var invs []invitationPayload
	s.Require().NoError(json.Unmarshal(parsed.Data, &invs))
	found := false
	for _, inv := range invs {
		if inv.ID == s.invitationID {
			found = true
		}
	}
	s.True(found)
}

func (s *E2ETestSuite) Test23_OnlyInviteeMayAccept() {
	resp, _ := s.do("POST", fmt.Sprintf("/invitations/%d/accept", s.invitationID), s.ownerToken, nil)
	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *E2ETestSuite) Test24_AcceptGrantsCollaboration() {
	resp, parsed := s.do("POST", fmt.Sprintf("/invitations/%d/accept", s.invitationID), s.proctorToken, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var inv invitationPayload
	s.Require().NoError(json.Unmarshal(parsed.Data, &inv))
	s.Equal("accepted", inv.Status)

	// The invitee can now view the session.
	resp, _ = s.do("GET", fmt.Sprintf("/sessions/%d", s.sessionID), s.proctorToken, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *E2ETestSuite) Test25_AcceptTwiceIsInvalidTransition() {
	resp, parsed := s.do("POST", fmt.Sprintf("/invitations/%d/accept", s.invitationID), s.proctorToken, nil)
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Require().NotNil(parsed.Error)
	s.Equal("INVALID_TRANSITION", parsed.Error.Code)
}

func (s *E2ETestSuite) Test26_ClearAcceptedInvitation() {
	resp, _ := s.do("DELETE", fmt.Sprintf("/invitations/%d", s.invitationID), s.proctorToken, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	// Gone from the invitee's list afterwards.
	resp, parsed := s.do("GET", "/invitations", s.proctorToken, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var invs []invitationPayload
	s.Require().NoError(json.Unmarshal(parsed.Data, &invs))
	for _, inv := range invs {
		s.NotEqual(s.invitationID, inv.ID)
	}
}

func (s *E2ETestSuite) Test27_CollaboratorListAndPatch() {
	resp, parsed := s.do("GET", fmt.Sprintf("/sessions/%d/collaborators", s.sessionID), s.ownerToken, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var collabs []struct {
		UserID      int `json:"userId"`
		Permissions struct {
			View   bool `json:"view"`
			Edit   bool `json:"edit"`
			Manage bool `json:"manage"`
		} `json:"permissions"`
	}
	s.Require().NoError(json.Unmarshal(parsed.Data, &collabs))
	s.Require().Len(collabs, 1)
	s.Equal(s.proctorID, collabs[0].UserID)
	s.True(collabs[0].Permissions.Edit)

	// Revoking view is a no-op; the row keeps view access.
	resp, _ = s.do("PATCH", fmt.Sprintf("/sessions/%d/collaborators/%d", s.sessionID, s.proctorID),
		s.ownerToken, map[string]any{"view": false, "edit": false})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, _ = s.do("GET", fmt.Sprintf("/sessions/%d", s.sessionID), s.proctorToken, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *E2ETestSuite) Test28_NonOwnerCannotManageCollaborators() {
	resp, _ := s.do("DELETE", fmt.Sprintf("/sessions/%d/collaborators/%d", s.sessionID, s.proctorID),
		s.proctorToken, nil)
	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *E2ETestSuite) Test29_OwnerRemovesCollaborator() {
	resp, _ := s.do("DELETE", fmt.Sprintf("/sessions/%d/collaborators/%d", s.sessionID, s.proctorID),
		s.ownerToken, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, _ = s.do("GET", fmt.Sprintf("/sessions/%d", s.sessionID), s.proctorToken, nil)
	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *E2ETestSuite) Test30_DeclineFlow() {
	resp, inv := s.invite(map[string]bool{})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp, parsed := s.do("POST", fmt.Sprintf("/invitations/%d/decline", inv.ID), s.proctorToken, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var declined invitationPayload
	s.Require().NoError(json.Unmarshal(parsed.Data, &declined))
	s.Equal("declined", declined.Status)

	// Declined invitations cannot be cancelled, only cleared.
	resp, _ = s.do("POST", fmt.Sprintf("/invitations/%d/cancel", inv.ID), s.ownerToken, nil)
	s.Equal(http.StatusConflict, resp.StatusCode)

	resp, _ = s.do("DELETE", fmt.Sprintf("/invitations/%d", inv.ID), s.ownerToken, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *E2ETestSuite) Test31_CancelFlow() {
	resp, inv := s.invite(map[string]bool{})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp, _ = s.do("POST", fmt.Sprintf("/invitations/%d/cancel", inv.ID), s.ownerToken, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	// Cancelled invitations vanish entirely.
	resp, _ = s.do("POST", fmt.Sprintf("/invitations/%d/accept", inv.ID), s.proctorToken, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *E2ETestSuite) Test32_DeleteSessionOwnerOnly() {
	resp, _ := s.do("DELETE", fmt.Sprintf("/sessions/%d", s.sessionID), s.proctorToken, nil)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do("DELETE", fmt.Sprintf("/sessions/%d", s.sessionID), s.ownerToken, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, _ = s.do("GET", fmt.Sprintf("/sessions/%d", s.sessionID), s.ownerToken, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}
