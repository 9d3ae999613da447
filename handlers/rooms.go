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

type RoomsHandler struct {
	rooms    *repository.RoomsRepository
	sessions *repository.SessionsRepository
	notifier notify.Notifier
}

func NewRoomsHandler(rooms *repository.RoomsRepository, sessions *repository.SessionsRepository) *RoomsHandler {
	return &RoomsHandler{rooms: rooms, sessions: sessions}
}

func (h *RoomsHandler) WithNotifier(n notify.Notifier) *RoomsHandler {
	h.notifier = n
	return h
}

func (h *RoomsHandler) publish(sessionID int, eventType string, data interface{}, c *gin.Context) {
	if h.notifier != nil {
		h.notifier.PublishSession(sessionID, eventType, data, originClientID(c))
	}
}

// requireEdit loads the session and checks the edit capability. Writes
// the response and returns false on failure.
func (h *RoomsHandler) requireEdit(c *gin.Context, sessionID int) bool {
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

func (h *RoomsHandler) CreateRoom(c *gin.Context) {
	sessionID, err := strconv.Atoi(c.Param("sessionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid session ID"))
		return
	}
	if !h.requireEdit(c, sessionID) {
		return
	}

	var req struct {
		Name     string `json:"name" binding:"required"`
		Capacity int    `json:"capacity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}

	room, err := h.rooms.Create(sessionID, req.Name, req.Capacity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}

	h.publish(sessionID, events.TypeRoomAdded, room, c)
	c.JSON(http.StatusCreated, types.NewSuccessResponse(room))
}

// loadRoom resolves :roomId and checks edit permission on the owning
// session. Writes the response and returns -1 on failure.
func (h *RoomsHandler) loadRoomForEdit(c *gin.Context) (roomID, sessionID int) {
	id, err := strconv.Atoi(c.Param("roomId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid room ID"))
		return -1, -1
	}
	room, err := h.rooms.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return -1, -1
	}
	if room == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Room not found"))
		return -1, -1
	}
	if !h.requireEdit(c, room.SessionID) {
		return -1, -1
	}
	return room.ID, room.SessionID
}

func (h *RoomsHandler) UpdateRoom(c *gin.Context) {
	roomID, sessionID := h.loadRoomForEdit(c)
	if roomID < 0 {
		return
	}

	var req struct {
		Name     string `json:"name" binding:"required"`
		Capacity int    `json:"capacity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}

	room, err := h.rooms.Update(roomID, req.Name, req.Capacity)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	h.publish(sessionID, events.TypeRoomUpdated, room, c)
	c.JSON(http.StatusOK, types.NewSuccessResponse(room))
}

func (h *RoomsHandler) DeleteRoom(c *gin.Context) {
	roomID, sessionID := h.loadRoomForEdit(c)
	if roomID < 0 {
		return
	}

	if err := h.rooms.Delete(roomID); err != nil {
		respondDomainError(c, err)
		return
	}

	h.publish(sessionID, events.TypeRoomRemoved, gin.H{"roomId": roomID, "sessionId": sessionID}, c)
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{"message": "Room removed successfully"}))
}
