package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Amsterdam/meldingen-sub000/internal/http/response"
	"github.com/Amsterdam/meldingen-sub000/internal/services"
)

type StaffHandler struct {
	authService services.StaffAuthService
	clsService  services.ClassificationService
}

func NewStaffHandler(authService services.StaffAuthService, clsService services.ClassificationService) *StaffHandler {
	return &StaffHandler{authService: authService, clsService: clsService}
}

// POST /api/staff/login
// body: { "email": "...", "password": "..." }
func (h *StaffHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	tokenString, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"access_token": tokenString,
		"expires_in":   int(h.authService.AccessTTL() / time.Second),
	})
}

// POST /api/staff/classifications  (JWT)
// body: { "name": "...", "asset_type_id": "..." }
func (h *StaffHandler) CreateClassification(c *gin.Context) {
	var req struct {
		Name        string     `json:"name" binding:"required"`
		AssetTypeID *uuid.UUID `json:"asset_type_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	cls, err := h.clsService.Create(c.Request.Context(), req.Name, req.AssetTypeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"classification": cls})
}

// GET /api/staff/classifications  (JWT)
func (h *StaffHandler) ListClassifications(c *gin.Context) {
	list, err := h.clsService.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"classifications": list})
}

// POST /api/staff/asset-types  (JWT)
// body: { "name": "...", "max_assets": 3 }
func (h *StaffHandler) CreateAssetType(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		MaxAssets int    `json:"max_assets"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	at, err := h.clsService.CreateAssetType(c.Request.Context(), req.Name, req.MaxAssets)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"asset_type": at})
}

// GET /api/staff/asset-types  (JWT)
func (h *StaffHandler) ListAssetTypes(c *gin.Context) {
	list, err := h.clsService.ListAssetTypes(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"asset_types": list})
}
