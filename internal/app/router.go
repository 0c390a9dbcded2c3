package app

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/Amsterdam/meldingen-sub000/internal/http"
	"github.com/Amsterdam/meldingen-sub000/internal/observability"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

func wireRouter(log *logger.Logger, h Handlers, mw Middleware) *gin.Engine {
	return apphttp.NewRouter(apphttp.RouterConfig{
		Log: log,

		MelderAuth: mw.MelderAuth,
		StaffAuth:  mw.StaffAuth,

		MeldingHandler:    h.Melding,
		AnswerHandler:     h.Answer,
		AttachmentHandler: h.Attachment,
		LocationHandler:   h.Location,
		AssetHandler:      h.Asset,
		FormHandler:       h.Form,
		StaffHandler:      h.Staff,
		HealthHandler:     h.Health,

		TracingEnabled: observability.Enabled(),
	})
}
