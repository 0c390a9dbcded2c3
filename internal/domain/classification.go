package domain

import (
	"time"

	"github.com/google/uuid"
)

// Classification is a named melding category. It may bind one asset type
// (asset selection replaces the free-form location) and is bound inversely by
// at most one follow-up form (Form.ClassificationID).
type Classification struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"uniqueIndex;not null;column:name" json:"name"`
	AssetTypeID *uuid.UUID `gorm:"type:uuid;column:asset_type_id" json:"asset_type_id"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Classification) TableName() string { return "classification" }

type AssetType struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null;column:name" json:"name"`
	MaxAssets int       `gorm:"not null;column:max_assets" json:"max_assets"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AssetType) TableName() string { return "asset_type" }
