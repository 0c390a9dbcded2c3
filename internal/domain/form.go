package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Form owns an ordered tree of components. A nil ClassificationID marks the
// static primary form shown before classification; the service layer keeps
// that unique.
type Form struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string     `gorm:"not null;column:title" json:"title"`
	ClassificationID *uuid.UUID `gorm:"type:uuid;uniqueIndex;column:classification_id" json:"classification_id"`
	CreatedAt        time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Form) TableName() string { return "form" }

// FormComponent is one node of a form's schema tree. ParentID is set only for
// children of a panel; panels never nest. Position is a dense 1-based
// sequence per parent, rewritten on every rebuild.
type FormComponent struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FormID      uuid.UUID  `gorm:"type:uuid;index;not null;column:form_id" json:"form_id"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index;column:parent_id" json:"parent_id"`
	Key         string     `gorm:"not null;column:key" json:"key"`
	Type        string     `gorm:"not null;column:type" json:"type"`
	Label       string     `gorm:"column:label" json:"label"`
	Description string     `gorm:"column:description" json:"description"`
	Position    int        `gorm:"not null;column:position" json:"position"`
	Required    bool       `gorm:"not null;default:false;column:required" json:"required"`

	// Validate holds an optional rule expression for answerable leaves.
	Validate datatypes.JSON `gorm:"column:validate" json:"validate,omitempty"`
	// Options holds the ordered [{value,label}] list of radio/checkbox leaves.
	Options datatypes.JSON `gorm:"column:options" json:"options,omitempty"`
	// Data holds {"values":[{value,label}]} for select leaves.
	Data datatypes.JSON `gorm:"column:data" json:"data,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (FormComponent) TableName() string { return "form_component" }

// Question pairs 1:1 with an answerable leaf of a classification-bound form
// and carries the text shown to the melder. The primary form has none.
type Question struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ComponentID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;column:component_id" json:"component_id"`
	FormID      uuid.UUID `gorm:"type:uuid;index;not null;column:form_id" json:"form_id"`
	Text        string    `gorm:"not null;column:text" json:"text"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Question) TableName() string { return "question" }
