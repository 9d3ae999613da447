package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tayylorngo/t-testing-sub000/models"
	"github.com/tayylorngo/t-testing-sub000/types"
)

// originClientID returns the caller's websocket client id, if it sent
// one. Mutation handlers pass it to the notifier so the originator is
// excluded from its own fan-out.
func originClientID(c *gin.Context) string {
	return c.GetHeader("X-Client-ID")
}

// respondDomainError maps domain errors to API error responses. Errors
// that are not part of the taxonomy become 500s.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, err.Error()))
	case errors.Is(err, models.ErrInvalidTransition):
		c.JSON(http.StatusConflict, types.NewErrorResponse(types.ErrorCodeInvalidTransition, err.Error()))
	case errors.Is(err, models.ErrDuplicatePendingInvitation),
		errors.Is(err, models.ErrAlreadyCollaborator),
		errors.Is(err, models.ErrVersionConflict):
		c.JSON(http.StatusConflict, types.NewErrorResponse(types.ErrorCodeConflict, err.Error()))
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
	}
}
