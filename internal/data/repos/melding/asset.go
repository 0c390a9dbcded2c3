package melding

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

type AssetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Asset) error
	ListByMeldingID(ctx context.Context, tx *gorm.DB, meldingID uuid.UUID) ([]*types.Asset, error)
	CountByMeldingID(ctx context.Context, tx *gorm.DB, meldingID uuid.UUID) (int64, error)
	DeleteByMeldingIDs(ctx context.Context, tx *gorm.DB, meldingIDs []uuid.UUID) error
}

type assetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetRepo(db *gorm.DB, baseLog *logger.Logger) AssetRepo {
	return &assetRepo{db: db, log: baseLog.With("repo", "AssetRepo")}
}

func (r *assetRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Asset) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *assetRepo) ListByMeldingID(ctx context.Context, tx *gorm.DB, meldingID uuid.UUID) ([]*types.Asset, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Asset
	if err := t.WithContext(ctx).
		Where("melding_id = ?", meldingID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assetRepo) CountByMeldingID(ctx context.Context, tx *gorm.DB, meldingID uuid.UUID) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(ctx).
		Model(&types.Asset{}).
		Where("melding_id = ?", meldingID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *assetRepo) DeleteByMeldingIDs(ctx context.Context, tx *gorm.DB, meldingIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(meldingIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("melding_id IN ?", meldingIDs).Delete(&types.Asset{}).Error
}
