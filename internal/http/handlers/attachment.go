package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Amsterdam/meldingen-sub000/internal/http/response"
	"github.com/Amsterdam/meldingen-sub000/internal/services"
)

type AttachmentHandler struct {
	attachmentService services.AttachmentService
}

func NewAttachmentHandler(attachmentService services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

// POST /api/meldingen/:id/attachments
// multipart form, field "file"
func (h *AttachmentHandler) Upload(c *gin.Context) {
	m, ok := contextMelding(c)
	if !ok {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	defer f.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	row, err := h.attachmentService.Upload(c.Request.Context(), m.ID, fileHeader.Filename, contentType, fileHeader.Size, f)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"attachment": row})
}

// GET /api/meldingen/:id/attachments
func (h *AttachmentHandler) List(c *gin.Context) {
	m, ok := contextMelding(c)
	if !ok {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	rows, err := h.attachmentService.List(c.Request.Context(), m.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"attachments": rows})
}

// GET /api/meldingen/:id/attachments/:attachmentId
func (h *AttachmentHandler) Download(c *gin.Context) {
	m, ok := contextMelding(c)
	if !ok {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	attachmentID, err := uuid.Parse(c.Param("attachmentId"))
	if err != nil {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	row, rc, err := h.attachmentService.Download(c.Request.Context(), m.ID, attachmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer rc.Close()
	c.Header("Content-Disposition", `attachment; filename="`+row.OriginalFilename+`"`)
	c.DataFromReader(http.StatusOK, -1, row.ContentType, rc, nil)
}
