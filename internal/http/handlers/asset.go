package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Amsterdam/meldingen-sub000/internal/http/response"
	"github.com/Amsterdam/meldingen-sub000/internal/services"
)

type AssetHandler struct {
	assetService services.AssetService
}

func NewAssetHandler(assetService services.AssetService) *AssetHandler {
	return &AssetHandler{assetService: assetService}
}

// POST /api/meldingen/:id/assets
// body: { "external_id": "...", "name": "...", "lat": ..., "lon": ... }
func (h *AssetHandler) Attach(c *gin.Context) {
	m, ok := contextMelding(c)
	if !ok {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	var req struct {
		ExternalID string  `json:"external_id" binding:"required"`
		Name       string  `json:"name"`
		Lat        float64 `json:"lat"`
		Lon        float64 `json:"lon"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	asset, err := h.assetService.Attach(c.Request.Context(), m.ID, services.AttachAssetInput{
		ExternalID: req.ExternalID,
		Name:       req.Name,
		Lat:        req.Lat,
		Lon:        req.Lon,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"asset": asset})
}

// GET /api/meldingen/:id/assets
func (h *AssetHandler) List(c *gin.Context) {
	m, ok := contextMelding(c)
	if !ok {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	assets, err := h.assetService.List(c.Request.Context(), m.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assets": assets})
}
