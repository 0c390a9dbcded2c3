package formdef

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

type ComponentRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, rows []*types.FormComponent) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FormComponent, error)
	// ListByFormID returns all components of a form ordered parent-first,
	// siblings by position.
	ListByFormID(ctx context.Context, tx *gorm.DB, formID uuid.UUID) ([]*types.FormComponent, error)
	DeleteByFormID(ctx context.Context, tx *gorm.DB, formID uuid.UUID) error
}

type componentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewComponentRepo(db *gorm.DB, baseLog *logger.Logger) ComponentRepo {
	return &componentRepo{db: db, log: baseLog.With("repo", "ComponentRepo")}
}

func (r *componentRepo) CreateBatch(ctx context.Context, tx *gorm.DB, rows []*types.FormComponent) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(ctx).Create(&rows).Error
}

func (r *componentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FormComponent, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.FormComponent
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *componentRepo) ListByFormID(ctx context.Context, tx *gorm.DB, formID uuid.UUID) ([]*types.FormComponent, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.FormComponent
	if err := t.WithContext(ctx).
		Where("form_id = ?", formID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *componentRepo) DeleteByFormID(ctx context.Context, tx *gorm.DB, formID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Where("form_id = ?", formID).Delete(&types.FormComponent{}).Error
}
