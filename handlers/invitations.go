package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tayylorngo/t-testing-sub000/models"
	"github.com/tayylorngo/t-testing-sub000/pkg/events"
	"github.com/tayylorngo/t-testing-sub000/pkg/notify"
	"github.com/tayylorngo/t-testing-sub000/pkg/permissions"
	"github.com/tayylorngo/t-testing-sub000/repository"
	"github.com/tayylorngo/t-testing-sub000/types"
)

type InvitationsHandler struct {
	invitations   *repository.InvitationsRepository
	sessions      *repository.SessionsRepository
	users         *repository.UsersRepository
	notifier      notify.Notifier
	notifications *repository.NotificationsRepository
}

func NewInvitationsHandler(
	invitations *repository.InvitationsRepository,
	sessions *repository.SessionsRepository,
	users *repository.UsersRepository,
) *InvitationsHandler {
	return &InvitationsHandler{invitations: invitations, sessions: sessions, users: users}
}

func (h *InvitationsHandler) WithNotifier(n notify.Notifier) *InvitationsHandler {
	h.notifier = n
	return h
}

func (h *InvitationsHandler) WithNotificationsRepo(repo *repository.NotificationsRepository) *InvitationsHandler {
	h.notifications = repo
	return h
}

// notifyUser pushes an invitation event live and records it so the user
// sees it after login even if no connection was live at the time.
func (h *InvitationsHandler) notifyUser(userID int, eventType string, inv *models.Invitation, actorID int) {
	ev := events.InvitationEvent{
		Type:         eventType,
		InvitationID: inv.ID,
		SessionID:    inv.SessionID,
		SessionName:  inv.SessionName,
		ActorID:      actorID,
	}
	if h.notifier != nil {
		h.notifier.NotifyUser(userID, events.Update{
			SessionID: inv.SessionID,
			Type:      eventType,
			Data:      ev,
			Timestamp: time.Now().UTC(),
		})
	}
	if h.notifications != nil {
		payload, _ := json.Marshal(ev)
		_ = h.notifications.Create(userID, eventType, payload, false)
	}
}

// CreateInvitation invites a user to a session. Requires manage; only
// the owner's requested edit/manage grants survive, any other manager
// invites with view-only permissions.
func (h *InvitationsHandler) CreateInvitation(c *gin.Context) {
	sessionID, err := strconv.Atoi(c.Param("sessionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid session ID"))
		return
	}
	userID := c.GetInt("userId")

	session, err := h.sessions.GetSessionByID(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if session == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Session not found"))
		return
	}
	if !permissions.CanManage(session, userID) {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No permission to invite users"))
		return
	}

	var req struct {
		Username    string             `json:"username" binding:"required"`
		Permissions models.Permissions `json:"permissions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}

	invitee, err := h.users.GetUserByUsername(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if invitee == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "User not found"))
		return
	}
	if invitee.ID == session.OwnerID {
		c.JSON(http.StatusConflict, types.NewErrorResponse(types.ErrorCodeConflict, "User owns this session"))
		return
	}
	if session.CollaboratorByUserID(invitee.ID) != nil {
		c.JSON(http.StatusConflict, types.NewErrorResponse(types.ErrorCodeConflict, models.ErrAlreadyCollaborator.Error()))
		return
	}

	granted := permissions.Normalize(req.Permissions, userID == session.OwnerID)
	inv, err := h.invitations.Create(sessionID, invitee.ID, userID, granted)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	h.notifyUser(invitee.ID, events.TypeInvitationCreated, inv, userID)
	c.JSON(http.StatusCreated, types.NewSuccessResponse(inv))
}

// GetMyInvitations lists the caller's invitations as invitee.
func (h *InvitationsHandler) GetMyInvitations(c *gin.Context) {
	userID := c.GetInt("userId")
	invs, err := h.invitations.ListForInvitee(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(invs))
}

// GetSessionInvitations lists all invitations for a session (manage only).
func (h *InvitationsHandler) GetSessionInvitations(c *gin.Context) {
	sessionID, err := strconv.Atoi(c.Param("sessionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid session ID"))
		return
	}
	userID := c.GetInt("userId")

	session, err := h.sessions.GetSessionByID(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if session == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Session not found"))
		return
	}
	if !permissions.CanManage(session, userID) {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No permission to view invitations"))
		return
	}

	invs, err := h.invitations.ListForSession(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(invs))
}

// loadInvitation resolves the :id param. Writes the response and
// returns nil on any failure.
func (h *InvitationsHandler) loadInvitation(c *gin.Context) *models.Invitation {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid invitation ID"))
		return nil
	}
	inv, err := h.invitations.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return nil
	}
	if inv == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Invitation not found"))
		return nil
	}
	return inv
}

// AcceptInvitation is invitee-only. Acceptance appends a collaborator
// with the snapshot permissions; accepting twice is an invalid
// transition and never adds a second record.
func (h *InvitationsHandler) AcceptInvitation(c *gin.Context) {
	inv := h.loadInvitation(c)
	if inv == nil {
		return
	}
	userID := c.GetInt("userId")
	if inv.InvitedUserID != userID {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "Only the invitee may accept"))
		return
	}

	accepted, err := h.invitations.Accept(inv.ID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	h.notifyUser(accepted.InvitedByID, events.TypeInvitationAccepted, accepted, userID)
	if h.notifier != nil {
		h.notifier.PublishSession(accepted.SessionID, events.TypeCollaboratorAdded, events.CollaboratorEvent{
			SessionID: accepted.SessionID,
			UserID:    userID,
			Edit:      accepted.Permissions.Edit,
			Manage:    accepted.Permissions.Manage,
		}, originClientID(c))
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(accepted))
}

// DeclineInvitation is invitee-only and has no side effects on the
// session's collaborator list.
func (h *InvitationsHandler) DeclineInvitation(c *gin.Context) {
	inv := h.loadInvitation(c)
	if inv == nil {
		return
	}
	userID := c.GetInt("userId")
	if inv.InvitedUserID != userID {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "Only the invitee may decline"))
		return
	}

	declined, err := h.invitations.Decline(inv.ID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	h.notifyUser(declined.InvitedByID, events.TypeInvitationDeclined, declined, userID)
	c.JSON(http.StatusOK, types.NewSuccessResponse(declined))
}

// CancelInvitation withdraws a pending invitation. Allowed for the
// inviter or the session owner.
func (h *InvitationsHandler) CancelInvitation(c *gin.Context) {
	inv := h.loadInvitation(c)
	if inv == nil {
		return
	}
	userID := c.GetInt("userId")

	if inv.InvitedByID != userID {
		session, err := h.sessions.GetSessionByID(inv.SessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
			return
		}
		if session == nil || session.OwnerID != userID {
			c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "Only the inviter or owner may cancel"))
			return
		}
	}

	if err := h.invitations.Cancel(inv.ID); err != nil {
		respondDomainError(c, err)
		return
	}

	h.notifyUser(inv.InvitedUserID, events.TypeInvitationCancelled, inv, userID)
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{"message": "Invitation cancelled"}))
}

// ClearInvitation removes a resolved invitation from either party's
// list. Only accepted or declined invitations can be cleared.
func (h *InvitationsHandler) ClearInvitation(c *gin.Context) {
	inv := h.loadInvitation(c)
	if inv == nil {
		return
	}
	userID := c.GetInt("userId")
	if inv.InvitedUserID != userID && inv.InvitedByID != userID {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "Not a party to this invitation"))
		return
	}

	if err := h.invitations.Clear(inv.ID); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{"message": "Invitation cleared"}))
}
