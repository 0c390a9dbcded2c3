package app

import (
	"gorm.io/gorm"

	"github.com/Amsterdam/meldingen-sub000/internal/data/repos/formdef"
	meldingrepo "github.com/Amsterdam/meldingen-sub000/internal/data/repos/melding"
	staffrepo "github.com/Amsterdam/meldingen-sub000/internal/data/repos/staff"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

type Repos struct {
	Melding    meldingrepo.MeldingRepo
	Location   meldingrepo.LocationRepo
	Answer     meldingrepo.AnswerRepo
	Asset      meldingrepo.AssetRepo
	Attachment meldingrepo.AttachmentRepo

	Classification formdef.ClassificationRepo
	AssetType      formdef.AssetTypeRepo
	Form           formdef.FormRepo
	Component      formdef.ComponentRepo
	Question       formdef.QuestionRepo

	StaffUser staffrepo.StaffUserRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Melding:    meldingrepo.NewMeldingRepo(db, log),
		Location:   meldingrepo.NewLocationRepo(db, log),
		Answer:     meldingrepo.NewAnswerRepo(db, log),
		Asset:      meldingrepo.NewAssetRepo(db, log),
		Attachment: meldingrepo.NewAttachmentRepo(db, log),

		Classification: formdef.NewClassificationRepo(db, log),
		AssetType:      formdef.NewAssetTypeRepo(db, log),
		Form:           formdef.NewFormRepo(db, log),
		Component:      formdef.NewComponentRepo(db, log),
		Question:       formdef.NewQuestionRepo(db, log),

		StaffUser: staffrepo.NewStaffUserRepo(db, log),
	}
}
