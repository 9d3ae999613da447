package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/tayylorngo/t-testing-sub000/initializers"
	"github.com/tayylorngo/t-testing-sub000/models"
	"github.com/tayylorngo/t-testing-sub000/pkg/permissions"
	"github.com/tayylorngo/t-testing-sub000/repository"
	"github.com/tayylorngo/t-testing-sub000/types"
)

type AttachmentsHandler struct {
	attachments *repository.AttachmentsRepository
	sessions    *repository.SessionsRepository
}

func NewAttachmentsHandler(a *repository.AttachmentsRepository, s *repository.SessionsRepository) *AttachmentsHandler {
	return &AttachmentsHandler{attachments: a, sessions: s}
}

// UploadFile stores a session document (seating chart, roster) in
// object storage. The MIME type is sniffed from content, never trusted
// from the client.
func (h *AttachmentsHandler) UploadFile(c *gin.Context) {
	userID := c.GetInt("userId")

	sessionIDStr := c.PostForm("session_id")
	if sessionIDStr == "" {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "session_id is required"))
		return
	}
	sessionID, err := strconv.Atoi(sessionIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "invalid session_id"))
		return
	}

	session, err := h.sessions.GetSessionByID(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if session == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Session not found"))
		return
	}
	if !permissions.CanEdit(session, userID) {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No permission to edit session"))
		return
	}

	// Cap the request body before reading multipart data.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, initializers.Conf.MaxSize)

	file, err := c.FormFile("file")
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "request body too large") {
			c.JSON(http.StatusRequestEntityTooLarge, types.NewErrorResponse(types.ErrorCodeValidation, "file size exceeds the limit"))
			return
		}
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "file is required"))
		return
	}

	sniff, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "cannot open uploaded file"))
		return
	}
	mt, err := mimetype.DetectReader(sniff)
	_ = sniff.Close()
	if err != nil || mt == nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "failed to detect file type"))
		return
	}
	detected := strings.Split(mt.String(), ";")[0]

	if err := initializers.CheckFileAllowed(file.Size, detected); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "cannot open uploaded file"))
		return
	}
	defer src.Close()

	att := &models.Attachment{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		UserID:    userID,
		FileName:  file.Filename,
		MimeType:  detected,
		Size:      file.Size,
	}

	_, err = initializers.MinioClient.PutObject(
		c.Request.Context(),
		initializers.Conf.Bucket,
		att.ID,
		src,
		file.Size,
		minio.PutObjectOptions{ContentType: detected},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}

	if err := h.attachments.Create(att); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, types.NewSuccessResponse(att))
}

// GetFile returns a presigned URL for an attachment the caller may view.
func (h *AttachmentsHandler) GetFile(c *gin.Context) {
	userID := c.GetInt("userId")
	id := c.Param("id")

	att, err := h.attachments.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if att == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Attachment not found"))
		return
	}

	session, err := h.sessions.GetSessionByID(att.SessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if !permissions.CanView(session, userID) {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No access to the session"))
		return
	}

	url, err := initializers.GenerateAttachmentURL(att.ID, att.FileName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{"url": url, "fileName": att.FileName, "mimeType": att.MimeType}))
}
