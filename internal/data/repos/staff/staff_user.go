package staff

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

type StaffUserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.StaffUser) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.StaffUser, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.StaffUser, error)
}

type staffUserRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStaffUserRepo(db *gorm.DB, baseLog *logger.Logger) StaffUserRepo {
	return &staffUserRepo{db: db, log: baseLog.With("repo", "StaffUserRepo")}
}

func (r *staffUserRepo) Create(ctx context.Context, tx *gorm.DB, row *types.StaffUser) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *staffUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.StaffUser, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.StaffUser
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *staffUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.StaffUser, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if email == "" {
		return nil, nil
	}
	var out []*types.StaffUser
	if err := t.WithContext(ctx).Where("email = ?", email).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}
