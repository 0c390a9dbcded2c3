package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Melding is a citizen-submitted issue report, the aggregate root of this
// backend. It exclusively owns its answers, assets, attachments and location;
// the classification is referenced, never owned.
type Melding struct {
	ID               uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	PublicCode       string       `gorm:"uniqueIndex;not null;column:public_code" json:"public_code"`
	Text             string       `gorm:"not null;column:text" json:"text"`
	State            MeldingState `gorm:"not null;column:state" json:"state"`
	ClassificationID *uuid.UUID   `gorm:"type:uuid;column:classification_id" json:"classification_id"`

	// Token is the only identity proof for anonymous melder operations.
	// A non-nil token always carries a non-nil expiry.
	Token        *string    `gorm:"index;column:token" json:"-"`
	TokenExpires *time.Time `gorm:"column:token_expires" json:"-"`

	Email *string `gorm:"column:email" json:"email,omitempty"`
	Phone *string `gorm:"column:phone" json:"phone,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Melding) TableName() string { return "melding" }

// MeldingLocation is the 1:1 free-form location of a melding. It is absent
// when the classification requires asset selection instead.
type MeldingLocation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MeldingID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;column:melding_id" json:"melding_id"`
	Lat       float64   `gorm:"not null;column:lat" json:"lat"`
	Lon       float64   `gorm:"not null;column:lon" json:"lon"`

	// Resolver-populated metadata; never gates a transition.
	Street      string `gorm:"column:street" json:"street,omitempty"`
	HouseNumber string `gorm:"column:house_number" json:"house_number,omitempty"`
	Postcode    string `gorm:"column:postcode" json:"postcode,omitempty"`
	City        string `gorm:"column:city" json:"city,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (MeldingLocation) TableName() string { return "melding_location" }

// Answer links a melding, a question and a submitted payload. Rows are
// append-only; the newest row per (melding, question) is authoritative.
type Answer struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	MeldingID  uuid.UUID      `gorm:"type:uuid;index;not null;column:melding_id" json:"melding_id"`
	QuestionID uuid.UUID      `gorm:"type:uuid;index;not null;column:question_id" json:"question_id"`
	Payload    datatypes.JSON `gorm:"not null;column:payload" json:"payload"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Answer) TableName() string { return "answer" }

// Asset is an external-registry object (a specific container, for example)
// attached to a melding in place of a free-form location.
type Asset struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MeldingID   uuid.UUID `gorm:"type:uuid;index;not null;column:melding_id" json:"melding_id"`
	AssetTypeID uuid.UUID `gorm:"type:uuid;not null;column:asset_type_id" json:"asset_type_id"`
	ExternalID  string    `gorm:"not null;column:external_id" json:"external_id"`
	Name        string    `gorm:"column:name" json:"name"`
	Lat         float64   `gorm:"column:lat" json:"lat"`
	Lon         float64   `gorm:"column:lon" json:"lon"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Asset) TableName() string { return "asset" }

// Attachment records an uploaded file; the bytes live in the storage client.
type Attachment struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MeldingID        uuid.UUID `gorm:"type:uuid;index;not null;column:melding_id" json:"melding_id"`
	OriginalFilename string    `gorm:"not null;column:original_filename" json:"original_filename"`
	StorageKey       string    `gorm:"not null;column:storage_key" json:"storage_key"`
	ContentType      string    `gorm:"column:content_type" json:"content_type"`
	SizeBytes        int64     `gorm:"column:size_bytes" json:"size_bytes"`
	Optimized        bool      `gorm:"not null;default:false;column:optimized" json:"optimized"`
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Attachment) TableName() string { return "attachment" }
