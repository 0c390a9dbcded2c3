package formdef

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

type FormRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Form) error
	Update(ctx context.Context, tx *gorm.DB, row *types.Form) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Form, error)
	// GetPrimary returns the static pre-classification form (nil
	// classification id), or nil when none is configured.
	GetPrimary(ctx context.Context, tx *gorm.DB) (*types.Form, error)
	GetByClassificationID(ctx context.Context, tx *gorm.DB, classificationID uuid.UUID) (*types.Form, error)
}

type formRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFormRepo(db *gorm.DB, baseLog *logger.Logger) FormRepo {
	return &formRepo{db: db, log: baseLog.With("repo", "FormRepo")}
}

func (r *formRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Form) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *formRepo) Update(ctx context.Context, tx *gorm.DB, row *types.Form) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Save(row).Error
}

func (r *formRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Form, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Form
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *formRepo) GetPrimary(ctx context.Context, tx *gorm.DB) (*types.Form, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Form
	if err := t.WithContext(ctx).Where("classification_id IS NULL").Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *formRepo) GetByClassificationID(ctx context.Context, tx *gorm.DB, classificationID uuid.UUID) (*types.Form, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if classificationID == uuid.Nil {
		return nil, nil
	}
	var out []*types.Form
	if err := t.WithContext(ctx).Where("classification_id = ?", classificationID).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}
