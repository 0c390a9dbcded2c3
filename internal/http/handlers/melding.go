package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/http/response"
	"github.com/Amsterdam/meldingen-sub000/internal/services"
)

type MeldingHandler struct {
	meldingService services.MeldingService
}

func NewMeldingHandler(meldingService services.MeldingService) *MeldingHandler {
	return &MeldingHandler{meldingService: meldingService}
}

// contextMelding returns the melding the token middleware verified.
func contextMelding(c *gin.Context) (*domain.Melding, bool) {
	v, ok := c.Get("melding")
	if !ok {
		return nil, false
	}
	m, ok := v.(*domain.Melding)
	return m, ok
}

// POST /api/meldingen
// body: { "text": "...", "email": "...", "phone": "..." }
func (h *MeldingHandler) Create(c *gin.Context) {
	var req struct {
		Text  string  `json:"text" binding:"required"`
		Email *string `json:"email"`
		Phone *string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	m, plainToken, err := h.meldingService.Create(c.Request.Context(), req.Text, req.Email, req.Phone)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"melding": m, "token": plainToken})
}

// GET /api/meldingen/:id?token=
func (h *MeldingHandler) Get(c *gin.Context) {
	m, ok := contextMelding(c)
	if !ok {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	response.RespondOK(c, gin.H{"melding": m})
}

// PATCH /api/meldingen/:id
// body: { "text": "..." }
func (h *MeldingHandler) UpdateText(c *gin.Context) {
	m, ok := contextMelding(c)
	if !ok {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	updated, err := h.meldingService.UpdateText(c.Request.Context(), m.ID, req.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"melding": updated})
}

// PUT /api/meldingen/:id/contact
// body: { "email": "...", "phone": "..." }
func (h *MeldingHandler) UpdateContact(c *gin.Context) {
	m, ok := contextMelding(c)
	if !ok {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	var req struct {
		Email *string `json:"email"`
		Phone *string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	updated, err := h.meldingService.UpdateContact(c.Request.Context(), m.ID, req.Email, req.Phone)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"melding": updated})
}

// POST /api/meldingen/:id/transition
// body: { "name": "answer_questions" }
func (h *MeldingHandler) Transition(c *gin.Context) {
	m, ok := contextMelding(c)
	if !ok {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	h.applyTransition(c, m.ID, false)
}

// POST /api/staff/meldingen/:id/transition  (JWT)
func (h *MeldingHandler) StaffTransition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	h.applyTransition(c, id, true)
}

func (h *MeldingHandler) applyTransition(c *gin.Context, id uuid.UUID, staff bool) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	m, err := h.meldingService.Transition(c.Request.Context(), id, req.Name, staff)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"melding": m})
}

// GET /api/staff/meldingen?state=&limit=&offset=  (JWT)
func (h *MeldingHandler) StaffList(c *gin.Context) {
	var states []domain.MeldingState
	for _, raw := range c.QueryArray("state") {
		s := domain.MeldingState(raw)
		if !s.Valid() {
			response.RespondError(c, http.StatusBadRequest, "invalid_request",
				errInvalidState(raw))
			return
		}
		states = append(states, s)
	}
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)
	list, err := h.meldingService.List(c.Request.Context(), states, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"meldingen": list})
}

// GET /api/staff/meldingen/:id  (JWT)
func (h *MeldingHandler) StaffGet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	m, err := h.meldingService.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"melding": m})
}

// PUT /api/staff/meldingen/:id/classification  (JWT)
// body: { "classification_id": "..." }
func (h *MeldingHandler) Reclassify(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	var req struct {
		ClassificationID uuid.UUID `json:"classification_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	m, err := h.meldingService.Reclassify(c.Request.Context(), id, req.ClassificationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"melding": m})
}

// DELETE /api/staff/meldingen/expired-drafts  (JWT)
func (h *MeldingHandler) CleanupExpiredDrafts(c *gin.Context) {
	deleted, err := h.meldingService.CleanupExpiredDrafts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": deleted})
}
