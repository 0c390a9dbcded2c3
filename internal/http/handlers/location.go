package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Amsterdam/meldingen-sub000/internal/http/response"
	"github.com/Amsterdam/meldingen-sub000/internal/services"
)

type LocationHandler struct {
	locationService services.LocationService
}

func NewLocationHandler(locationService services.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

// PUT /api/meldingen/:id/location
// body: { "lat": 52.37, "lon": 4.89 }
func (h *LocationHandler) Put(c *gin.Context) {
	m, ok := contextMelding(c)
	if !ok {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	var req struct {
		Lat *float64 `json:"lat" binding:"required"`
		Lon *float64 `json:"lon" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	loc, err := h.locationService.Put(c.Request.Context(), m.ID, *req.Lat, *req.Lon)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"location": loc})
}

// GET /api/meldingen/:id/location
func (h *LocationHandler) Get(c *gin.Context) {
	m, ok := contextMelding(c)
	if !ok {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	loc, err := h.locationService.Get(c.Request.Context(), m.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"location": loc})
}
