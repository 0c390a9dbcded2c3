package melding

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

type LocationRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *types.MeldingLocation) error
	GetByMeldingID(ctx context.Context, tx *gorm.DB, meldingID uuid.UUID) (*types.MeldingLocation, error)
	// UpdateAddress fills resolver metadata on an existing row.
	UpdateAddress(ctx context.Context, tx *gorm.DB, meldingID uuid.UUID, street, houseNumber, postcode, city string) error
	DeleteByMeldingIDs(ctx context.Context, tx *gorm.DB, meldingIDs []uuid.UUID) error
}

type locationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLocationRepo(db *gorm.DB, baseLog *logger.Logger) LocationRepo {
	return &locationRepo{db: db, log: baseLog.With("repo", "LocationRepo")}
}

func (r *locationRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.MeldingLocation) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "melding_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"lat", "lon", "street", "house_number", "postcode", "city", "updated_at",
			}),
		}).
		Create(row).Error
}

func (r *locationRepo) GetByMeldingID(ctx context.Context, tx *gorm.DB, meldingID uuid.UUID) (*types.MeldingLocation, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MeldingLocation
	if err := t.WithContext(ctx).Where("melding_id = ?", meldingID).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *locationRepo) UpdateAddress(ctx context.Context, tx *gorm.DB, meldingID uuid.UUID, street, houseNumber, postcode, city string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).
		Model(&types.MeldingLocation{}).
		Where("melding_id = ?", meldingID).
		Updates(map[string]interface{}{
			"street":       street,
			"house_number": houseNumber,
			"postcode":     postcode,
			"city":         city,
		}).Error
}

func (r *locationRepo) DeleteByMeldingIDs(ctx context.Context, tx *gorm.DB, meldingIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(meldingIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("melding_id IN ?", meldingIDs).Delete(&types.MeldingLocation{}).Error
}
