package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Amsterdam/meldingen-sub000/internal/http/response"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/ctxutil"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
	"github.com/Amsterdam/meldingen-sub000/internal/services"
)

// StaffAuthMiddleware guards the back-office routes with a staff JWT.
type StaffAuthMiddleware struct {
	log         *logger.Logger
	authService services.StaffAuthService
}

func NewStaffAuthMiddleware(baseLog *logger.Logger, authService services.StaffAuthService) *StaffAuthMiddleware {
	return &StaffAuthMiddleware{
		log:         baseLog.With("middleware", "StaffAuthMiddleware"),
		authService: authService,
	}
}

func (mw *StaffAuthMiddleware) RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) < 8 || !strings.EqualFold(authHeader[:7], "Bearer ") {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", services.ErrInvalidStaffToken)
			c.Abort()
			return
		}
		user, err := mw.authService.Verify(c.Request.Context(), authHeader[7:])
		if err != nil {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", services.ErrInvalidStaffToken)
			c.Abort()
			return
		}
		ctx := ctxutil.WithStaffData(c.Request.Context(), &ctxutil.StaffData{
			StaffID: user.ID,
			Email:   user.Email,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
