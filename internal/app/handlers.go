package app

import (
	httpH "github.com/Amsterdam/meldingen-sub000/internal/http/handlers"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

type Handlers struct {
	Melding    *httpH.MeldingHandler
	Answer     *httpH.AnswerHandler
	Attachment *httpH.AttachmentHandler
	Location   *httpH.LocationHandler
	Asset      *httpH.AssetHandler
	Form       *httpH.FormHandler
	Staff      *httpH.StaffHandler
	Health     *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Melding:    httpH.NewMeldingHandler(s.Melding),
		Answer:     httpH.NewAnswerHandler(s.Answer),
		Attachment: httpH.NewAttachmentHandler(s.Attachment),
		Location:   httpH.NewLocationHandler(s.Location),
		Asset:      httpH.NewAssetHandler(s.Asset),
		Form:       httpH.NewFormHandler(s.Form),
		Staff:      httpH.NewStaffHandler(s.StaffAuth, s.Classification),
		Health:     httpH.NewHealthHandler(),
	}
}
