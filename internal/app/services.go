package app

import (
	"gorm.io/gorm"

	"github.com/Amsterdam/meldingen-sub000/internal/clients/geocode"
	redisclient "github.com/Amsterdam/meldingen-sub000/internal/clients/redis"
	"github.com/Amsterdam/meldingen-sub000/internal/clients/storage"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/envutil"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
	"github.com/Amsterdam/meldingen-sub000/internal/services"
	"github.com/Amsterdam/meldingen-sub000/internal/token"
)

type Services struct {
	Melding        services.MeldingService
	Form           services.FormService
	Answer         services.AnswerService
	Asset          services.AssetService
	Location       services.LocationService
	Attachment     services.AttachmentService
	Classification services.ClassificationService
	StaffAuth      services.StaffAuthService

	SchemaCache redisclient.SchemaCache
	Store       storage.Store
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) (Services, error) {
	log.Info("Wiring services...")

	cache := redisclient.NewNoopSchemaCache()
	if envutil.String("REDIS_ADDR", "") != "" {
		var err error
		cache, err = redisclient.NewSchemaCache(log)
		if err != nil {
			return Services{}, err
		}
	} else {
		log.Info("REDIS_ADDR not set, schema cache disabled")
	}
	store, err := storage.NewFromEnv(log)
	if err != nil {
		return Services{}, err
	}

	var resolver geocode.Resolver
	if envutil.Bool("GEOCODER_ENABLED", false) {
		resolver = geocode.NewPDOKResolver(log)
	}

	authority := token.NewAuthority(cfg.MeldingTokenTTL)
	classifier := services.NewKeywordClassifier(db, log, r.Classification)
	mailer := services.NewMailerFromEnv(log)
	optimizer := services.NewOptimizer(log, store, r.Attachment)

	formService := services.NewFormService(db, log, cache, r.Form, r.Component, r.Question, r.Answer, r.Classification)
	meldingService := services.NewMeldingService(services.MeldingServiceDeps{
		DB:         db,
		Log:        log,
		Authority:  authority,
		Classifier: classifier,
		Mailer:     mailer,

		MeldingRepo:    r.Melding,
		LocationRepo:   r.Location,
		AnswerRepo:     r.Answer,
		AssetRepo:      r.Asset,
		AttachmentRepo: r.Attachment,

		ClassificationRepo: r.Classification,
		FormRepo:           r.Form,
		ComponentRepo:      r.Component,
		QuestionRepo:       r.Question,
	})
	staffAuth, err := services.NewStaffAuthService(db, log, r.StaffUser)
	if err != nil {
		return Services{}, err
	}

	return Services{
		Melding:        meldingService,
		Form:           formService,
		Answer:         services.NewAnswerService(db, log, r.Melding, r.Answer, r.Form, r.Component, r.Question),
		Asset:          services.NewAssetService(db, log, r.Melding, r.Asset, r.Classification, r.AssetType),
		Location:       services.NewLocationService(db, log, resolver, r.Melding, r.Location, r.Classification),
		Attachment:     services.NewAttachmentService(db, log, store, optimizer, r.Melding, r.Attachment),
		Classification: services.NewClassificationService(db, log, r.Classification, r.AssetType),
		StaffAuth:      staffAuth,

		SchemaCache: cache,
		Store:       store,
	}, nil
}
