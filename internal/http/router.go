package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/Amsterdam/meldingen-sub000/internal/http/handlers"
	httpMW "github.com/Amsterdam/meldingen-sub000/internal/http/middleware"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	MelderAuth *httpMW.MelderAuthMiddleware
	StaffAuth  *httpMW.StaffAuthMiddleware

	MeldingHandler    *httpH.MeldingHandler
	AnswerHandler     *httpH.AnswerHandler
	AttachmentHandler *httpH.AttachmentHandler
	LocationHandler   *httpH.LocationHandler
	AssetHandler      *httpH.AssetHandler
	FormHandler       *httpH.FormHandler
	StaffHandler      *httpH.StaffHandler
	HealthHandler     *httpH.HealthHandler

	// TracingEnabled turns on the otelgin middleware.
	TracingEnabled bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware("meldingen-api"))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.FormHandler != nil {
		r.GET("/primary-form", cfg.FormHandler.PrimaryTree)
	}

	api := r.Group("/api")
	{
		if cfg.MeldingHandler != nil {
			api.POST("/meldingen", cfg.MeldingHandler.Create)
		}
		if cfg.StaffHandler != nil {
			api.POST("/staff/login", cfg.StaffHandler.Login)
		}
	}

	// Melder routes: the melding token is the whole identity.
	melder := api.Group("/meldingen/:id")
	{
		if cfg.MelderAuth != nil {
			melder.Use(cfg.MelderAuth.RequireMelderToken())
		}
		if cfg.MeldingHandler != nil {
			melder.GET("", cfg.MeldingHandler.Get)
			melder.PATCH("", cfg.MeldingHandler.UpdateText)
			melder.PUT("/contact", cfg.MeldingHandler.UpdateContact)
			melder.POST("/transition", cfg.MeldingHandler.Transition)
		}
		if cfg.FormHandler != nil {
			melder.GET("/form", cfg.FormHandler.MeldingTree)
		}
		if cfg.AnswerHandler != nil {
			melder.POST("/answers", cfg.AnswerHandler.Submit)
			melder.GET("/answers", cfg.AnswerHandler.List)
		}
		if cfg.AttachmentHandler != nil {
			melder.POST("/attachments", cfg.AttachmentHandler.Upload)
			melder.GET("/attachments", cfg.AttachmentHandler.List)
			melder.GET("/attachments/:attachmentId", cfg.AttachmentHandler.Download)
		}
		if cfg.LocationHandler != nil {
			melder.PUT("/location", cfg.LocationHandler.Put)
			melder.GET("/location", cfg.LocationHandler.Get)
		}
		if cfg.AssetHandler != nil {
			melder.POST("/assets", cfg.AssetHandler.Attach)
			melder.GET("/assets", cfg.AssetHandler.List)
		}
	}

	staff := api.Group("/staff")
	{
		if cfg.StaffAuth != nil {
			staff.Use(cfg.StaffAuth.RequireStaff())
		}
		if cfg.MeldingHandler != nil {
			staff.GET("/meldingen", cfg.MeldingHandler.StaffList)
			staff.DELETE("/meldingen/expired-drafts", cfg.MeldingHandler.CleanupExpiredDrafts)
			staff.GET("/meldingen/:id", cfg.MeldingHandler.StaffGet)
			staff.POST("/meldingen/:id/transition", cfg.MeldingHandler.StaffTransition)
			staff.PUT("/meldingen/:id/classification", cfg.MeldingHandler.Reclassify)
		}
		if cfg.StaffHandler != nil {
			staff.POST("/classifications", cfg.StaffHandler.CreateClassification)
			staff.GET("/classifications", cfg.StaffHandler.ListClassifications)
			staff.POST("/asset-types", cfg.StaffHandler.CreateAssetType)
			staff.GET("/asset-types", cfg.StaffHandler.ListAssetTypes)
		}
		if cfg.FormHandler != nil {
			staff.PUT("/forms/primary", cfg.FormHandler.RebuildPrimary)
			staff.PUT("/classifications/:id/form", cfg.FormHandler.RebuildForClassification)
		}
	}

	return r
}
