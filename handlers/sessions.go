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

type SessionsHandler struct {
	sessions      *repository.SessionsRepository
	notifier      notify.Notifier
	notifications *repository.NotificationsRepository
}

func NewSessionsHandler(sessions *repository.SessionsRepository) *SessionsHandler {
	return &SessionsHandler{sessions: sessions}
}

func (h *SessionsHandler) WithNotifier(n notify.Notifier) *SessionsHandler {
	h.notifier = n
	return h
}

func (h *SessionsHandler) WithNotificationsRepo(repo *repository.NotificationsRepository) *SessionsHandler {
	h.notifications = repo
	return h
}

// loadSession resolves the :sessionId param. On any failure it writes
// the response and returns nil.
func (h *SessionsHandler) loadSession(c *gin.Context) *models.Session {
	sessionID, err := strconv.Atoi(c.Param("sessionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid session ID"))
		return nil
	}
	session, err := h.sessions.GetSessionByID(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return nil
	}
	if session == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Session not found"))
		return nil
	}
	return session
}

func (h *SessionsHandler) publish(sessionID int, eventType string, data interface{}, c *gin.Context) {
	if h.notifier != nil {
		h.notifier.PublishSession(sessionID, eventType, data, originClientID(c))
	}
}

func (h *SessionsHandler) CreateSession(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	userID := c.GetInt("userId")

	session, err := h.sessions.CreateSession(req.Name, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, types.NewSuccessResponse(session))
}

func (h *SessionsHandler) GetSessions(c *gin.Context) {
	userID := c.GetInt("userId")
	pagination := types.ParsePagination(c)

	sessions, total, err := h.sessions.GetSessionsForUserPaginated(userID, pagination.Offset, pagination.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(pagination.BuildResponse(sessions, total)))
}

func (h *SessionsHandler) GetSession(c *gin.Context) {
	session := h.loadSession(c)
	if session == nil {
		return
	}
	userID := c.GetInt("userId")
	if !permissions.CanView(session, userID) {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No access to the session"))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(session))
}

// UpdateSession renames the session or moves it to another status. The
// request carries the version the client last read; a stale version
// means another collaborator won the race and the client must re-fetch.
func (h *SessionsHandler) UpdateSession(c *gin.Context) {
	session := h.loadSession(c)
	if session == nil {
		return
	}
	userID := c.GetInt("userId")
	if !permissions.CanEdit(session, userID) {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No permission to edit session"))
		return
	}

	var req struct {
		Name    string `json:"name"`
		Status  string `json:"status"`
		Version int    `json:"version" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	if req.Name == "" {
		req.Name = session.Name
	}
	if req.Status == "" {
		req.Status = session.Status
	}
	if !models.ValidSessionStatus(req.Status) {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "invalid status"))
		return
	}

	updated, err := h.sessions.UpdateSession(session.ID, req.Version, req.Name, req.Status)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	h.publish(session.ID, events.TypeSessionUpdated, updated, c)
	c.JSON(http.StatusOK, types.NewSuccessResponse(updated))
}

func (h *SessionsHandler) DeleteSession(c *gin.Context) {
	session := h.loadSession(c)
	if session == nil {
		return
	}
	userID := c.GetInt("userId")
	if session.OwnerID != userID {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "Only the owner may delete a session"))
		return
	}

	if err := h.sessions.DeleteSession(session.ID); err != nil {
		respondDomainError(c, err)
		return
	}

	h.publish(session.ID, events.TypeSessionDeleted, gin.H{"sessionId": session.ID}, c)
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{"message": "Session deleted successfully"}))
}

func (h *SessionsHandler) GetCollaborators(c *gin.Context) {
	session := h.loadSession(c)
	if session == nil {
		return
	}
	userID := c.GetInt("userId")
	if !permissions.CanView(session, userID) {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No access to the session"))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(session.Collaborators))
}

// UpdateCollaborator changes a collaborator's edit/manage grants.
// Owner-only. A request carrying view:false is ignored rather than
// rejected; view cannot be revoked while the record exists.
func (h *SessionsHandler) UpdateCollaborator(c *gin.Context) {
	session := h.loadSession(c)
	if session == nil {
		return
	}
	userID := c.GetInt("userId")
	if session.OwnerID != userID {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "Only the owner may change permissions"))
		return
	}

	targetID, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid user ID"))
		return
	}
	if session.CollaboratorByUserID(targetID) == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "User is not a collaborator"))
		return
	}

	var req struct {
		View   *bool `json:"view"`
		Edit   bool  `json:"edit"`
		Manage bool  `json:"manage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}

	if err := h.sessions.UpdateCollaboratorPermissions(session.ID, targetID, req.Edit, req.Manage); err != nil {
		respondDomainError(c, err)
		return
	}

	h.publish(session.ID, events.TypeCollaboratorUpdated, events.CollaboratorEvent{
		SessionID: session.ID,
		UserID:    targetID,
		Edit:      req.Edit,
		Manage:    req.Manage,
	}, c)
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{"message": "Permissions updated successfully"}))
}

// RemoveCollaborator is owner-only regardless of manage; the owner row
// itself can never be removed because it does not exist.
func (h *SessionsHandler) RemoveCollaborator(c *gin.Context) {
	session := h.loadSession(c)
	if session == nil {
		return
	}
	userID := c.GetInt("userId")
	if session.OwnerID != userID {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "Only the owner may remove collaborators"))
		return
	}

	targetID, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid user ID"))
		return
	}
	if targetID == session.OwnerID {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "Cannot remove the session owner"))
		return
	}

	if err := h.sessions.RemoveCollaborator(session.ID, targetID); err != nil {
		respondDomainError(c, err)
		return
	}

	removed := events.CollaboratorEvent{SessionID: session.ID, UserID: targetID}
	h.publish(session.ID, events.TypeCollaboratorRemoved, removed, c)
	if h.notifier != nil {
		h.notifier.NotifyUser(targetID, events.Update{
			SessionID: session.ID,
			Type:      events.TypeCollaboratorRemoved,
			Data:      removed,
			Timestamp: time.Now().UTC(),
		})
	}
	if h.notifications != nil {
		payload, _ := json.Marshal(removed)
		_ = h.notifications.Create(targetID, events.TypeCollaboratorRemoved, payload, false)
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{"message": "Collaborator removed successfully"}))
}
