package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Amsterdam/meldingen-sub000/internal/http/response"
	"github.com/Amsterdam/meldingen-sub000/internal/schema"
	"github.com/Amsterdam/meldingen-sub000/internal/services"
)

type FormHandler struct {
	formService services.FormService
}

func NewFormHandler(formService services.FormService) *FormHandler {
	return &FormHandler{formService: formService}
}

// GET /primary-form
func (h *FormHandler) PrimaryTree(c *gin.Context) {
	raw, err := h.formService.PrimaryTree(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// GET /api/meldingen/:id/form
func (h *FormHandler) MeldingTree(c *gin.Context) {
	m, ok := contextMelding(c)
	if !ok {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	if m.ClassificationID == nil {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	raw, err := h.formService.TreeForClassification(c.Request.Context(), *m.ClassificationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

type rebuildRequest struct {
	Title      string                  `json:"title" binding:"required"`
	Components []schema.ComponentInput `json:"components" binding:"required"`
}

// PUT /api/staff/forms/primary  (JWT)
// body: { "title": "...", "components": [...] }
func (h *FormHandler) RebuildPrimary(c *gin.Context) {
	var req rebuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	form, err := h.formService.RebuildPrimary(c.Request.Context(), req.Title, req.Components)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	raw, err := h.formService.Tree(c.Request.Context(), form.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// PUT /api/staff/classifications/:id/form  (JWT)
func (h *FormHandler) RebuildForClassification(c *gin.Context) {
	classificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	var req rebuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	form, err := h.formService.RebuildForClassification(c.Request.Context(), classificationID, req.Title, req.Components)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	raw, err := h.formService.Tree(c.Request.Context(), form.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}
