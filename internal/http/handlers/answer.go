package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Amsterdam/meldingen-sub000/internal/http/response"
	"github.com/Amsterdam/meldingen-sub000/internal/services"
)

type AnswerHandler struct {
	answerService services.AnswerService
}

func NewAnswerHandler(answerService services.AnswerService) *AnswerHandler {
	return &AnswerHandler{answerService: answerService}
}

// POST /api/meldingen/:id/answers
// body: { "question_id": "...", "payload": {...} }
func (h *AnswerHandler) Submit(c *gin.Context) {
	m, ok := contextMelding(c)
	if !ok {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	var req struct {
		QuestionID uuid.UUID       `json:"question_id" binding:"required"`
		Payload    json.RawMessage `json:"payload" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	answer, err := h.answerService.Submit(c.Request.Context(), m.ID, req.QuestionID, req.Payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"answer": answer})
}

// GET /api/meldingen/:id/answers
func (h *AnswerHandler) List(c *gin.Context) {
	m, ok := contextMelding(c)
	if !ok {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	answers, err := h.answerService.List(c.Request.Context(), m.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"answers": answers})
}
