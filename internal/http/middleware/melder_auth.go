package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Amsterdam/meldingen-sub000/internal/http/response"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
	"github.com/Amsterdam/meldingen-sub000/internal/services"
	"github.com/Amsterdam/meldingen-sub000/internal/token"
)

// meldingKey is the gin context key under which RequireMelderToken stores
// the verified melding for the handler.
const meldingKey = "melding"

// MelderAuthMiddleware guards the anonymous melder routes: the caller must
// present the melding's token, by query parameter or Bearer header.
type MelderAuthMiddleware struct {
	log            *logger.Logger
	meldingService services.MeldingService
}

func NewMelderAuthMiddleware(baseLog *logger.Logger, meldingService services.MeldingService) *MelderAuthMiddleware {
	return &MelderAuthMiddleware{
		log:            baseLog.With("middleware", "MelderAuthMiddleware"),
		meldingService: meldingService,
	}
}

func (mw *MelderAuthMiddleware) RequireMelderToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.RespondError(c, http.StatusNotFound, "not_found", services.ErrNotFound)
			c.Abort()
			return
		}
		presented := extractToken(c)
		if presented == "" {
			response.RespondError(c, http.StatusUnauthorized, "token_invalid", token.ErrTokenInvalid)
			c.Abort()
			return
		}
		m, err := mw.meldingService.VerifyMelderToken(c.Request.Context(), id, presented)
		if err != nil {
			status, code := http.StatusUnauthorized, "token_invalid"
			switch {
			case errors.Is(err, services.ErrNotFound):
				status, code = http.StatusNotFound, "not_found"
			case errors.Is(err, token.ErrTokenExpired):
				code = "token_expired"
			}
			response.RespondError(c, status, code, err)
			c.Abort()
			return
		}
		c.Set(meldingKey, m)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if q := c.Query("token"); q != "" {
		return q
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
