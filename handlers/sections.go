package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tayylorngo/t-testing-sub000/pkg/events"
	"github.com/tayylorngo/t-testing-sub000/pkg/notify"
	"github.com/tayylorngo/t-testing-sub000/pkg/permissions"
	"github.com/tayylorngo/t-testing-sub000/repository"
	"github.com/tayylorngo/t-testing-sub000/types"
)

type SectionsHandler struct {
	sections *repository.SectionsRepository
	rooms    *repository.RoomsRepository
	sessions *repository.SessionsRepository
	notifier notify.Notifier
}

func NewSectionsHandler(
	sections *repository.SectionsRepository,
	rooms *repository.RoomsRepository,
	sessions *repository.SessionsRepository,
) *SectionsHandler {
	return &SectionsHandler{sections: sections, rooms: rooms, sessions: sessions}
}

func (h *SectionsHandler) WithNotifier(n notify.Notifier) *SectionsHandler {
	h.notifier = n
	return h
}

func (h *SectionsHandler) publish(sessionID int, eventType string, data interface{}, c *gin.Context) {
	if h.notifier != nil {
		h.notifier.PublishSession(sessionID, eventType, data, originClientID(c))
	}
}

func (h *SectionsHandler) requireEdit(c *gin.Context, sessionID int) bool {
	session, err := h.sessions.GetSessionByID(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return false
	}
	if session == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Session not found"))
		return false
	}
	if !permissions.CanEdit(session, c.GetInt("userId")) {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No permission to edit session"))
		return false
	}
	return true
}

// validateRoom ensures a referenced room exists and belongs to the same
// session the section does.
func (h *SectionsHandler) validateRoom(c *gin.Context, roomID *int, sessionID int) bool {
	if roomID == nil {
		return true
	}
	room, err := h.rooms.GetByID(*roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return false
	}
	if room == nil || room.SessionID != sessionID {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Room does not belong to this session"))
		return false
	}
	return true
}

func (h *SectionsHandler) CreateSection(c *gin.Context) {
	sessionID, err := strconv.Atoi(c.Param("sessionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid session ID"))
		return
	}
	if !h.requireEdit(c, sessionID) {
		return
	}

	var req struct {
		Name   string `json:"name" binding:"required"`
		RoomID *int   `json:"roomId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	if !h.validateRoom(c, req.RoomID, sessionID) {
		return
	}

	section, err := h.sections.Create(sessionID, req.Name, req.RoomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}

	h.publish(sessionID, events.TypeSectionAdded, section, c)
	c.JSON(http.StatusCreated, types.NewSuccessResponse(section))
}

func (h *SectionsHandler) loadSectionForEdit(c *gin.Context) (sectionID, sessionID int) {
	id, err := strconv.Atoi(c.Param("sectionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid section ID"))
		return -1, -1
	}
	section, err := h.sections.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return -1, -1
	}
	if section == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Section not found"))
		return -1, -1
	}
	if !h.requireEdit(c, section.SessionID) {
		return -1, -1
	}
	return section.ID, section.SessionID
}

func (h *SectionsHandler) UpdateSection(c *gin.Context) {
	sectionID, sessionID := h.loadSectionForEdit(c)
	if sectionID < 0 {
		return
	}

	var req struct {
		Name   string `json:"name" binding:"required"`
		RoomID *int   `json:"roomId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	if !h.validateRoom(c, req.RoomID, sessionID) {
		return
	}

	section, err := h.sections.Update(sectionID, req.Name, req.RoomID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	h.publish(sessionID, events.TypeSectionUpdated, section, c)
	c.JSON(http.StatusOK, types.NewSuccessResponse(section))
}

func (h *SectionsHandler) DeleteSection(c *gin.Context) {
	sectionID, sessionID := h.loadSectionForEdit(c)
	if sectionID < 0 {
		return
	}

	if err := h.sections.Delete(sectionID); err != nil {
		respondDomainError(c, err)
		return
	}

	h.publish(sessionID, events.TypeSectionRemoved, gin.H{"sectionId": sectionID, "sessionId": sessionID}, c)
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{"message": "Section removed successfully"}))
}
