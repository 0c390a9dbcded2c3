package formdef

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

type ClassificationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Classification) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Classification, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Classification, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Classification, error)
	Update(ctx context.Context, tx *gorm.DB, row *types.Classification) error
}

type classificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClassificationRepo(db *gorm.DB, baseLog *logger.Logger) ClassificationRepo {
	return &classificationRepo{db: db, log: baseLog.With("repo", "ClassificationRepo")}
}

func (r *classificationRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Classification) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *classificationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Classification, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Classification
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *classificationRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Classification, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if name == "" {
		return nil, nil
	}
	var out []*types.Classification
	if err := t.WithContext(ctx).Where("name = ?", name).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *classificationRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Classification, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Classification
	if err := t.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *classificationRepo) Update(ctx context.Context, tx *gorm.DB, row *types.Classification) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Save(row).Error
}
