package formdef

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

type AssetTypeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.AssetType) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AssetType, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.AssetType, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.AssetType, error)
}

type assetTypeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetTypeRepo(db *gorm.DB, baseLog *logger.Logger) AssetTypeRepo {
	return &assetTypeRepo{db: db, log: baseLog.With("repo", "AssetTypeRepo")}
}

func (r *assetTypeRepo) Create(ctx context.Context, tx *gorm.DB, row *types.AssetType) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *assetTypeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AssetType, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.AssetType
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *assetTypeRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.AssetType, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if name == "" {
		return nil, nil
	}
	var out []*types.AssetType
	if err := t.WithContext(ctx).Where("name = ?", name).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *assetTypeRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.AssetType, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.AssetType
	if err := t.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
