package db

import (
	"gorm.io/gorm"

	types "github.com/Amsterdam/meldingen-sub000/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.AssetType{},
		&types.Classification{},

		&types.Form{},
		&types.FormComponent{},
		&types.Question{},

		&types.Melding{},
		&types.MeldingLocation{},
		&types.Answer{},
		&types.Asset{},
		&types.Attachment{},

		&types.StaffUser{},
	)
}
