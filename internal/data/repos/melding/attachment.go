package melding

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

type AttachmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Attachment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Attachment, error)
	ListByMeldingID(ctx context.Context, tx *gorm.DB, meldingID uuid.UUID) ([]*types.Attachment, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	DeleteByMeldingIDs(ctx context.Context, tx *gorm.DB, meldingIDs []uuid.UUID) error
}

type attachmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttachmentRepo(db *gorm.DB, baseLog *logger.Logger) AttachmentRepo {
	return &attachmentRepo{db: db, log: baseLog.With("repo", "AttachmentRepo")}
}

func (r *attachmentRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Attachment) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *attachmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Attachment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Attachment
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *attachmentRepo) ListByMeldingID(ctx context.Context, tx *gorm.DB, meldingID uuid.UUID) ([]*types.Attachment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Attachment
	if err := t.WithContext(ctx).
		Where("melding_id = ?", meldingID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attachmentRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return t.WithContext(ctx).Model(&types.Attachment{}).Where("id = ?", id).Updates(updates).Error
}

func (r *attachmentRepo) DeleteByMeldingIDs(ctx context.Context, tx *gorm.DB, meldingIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(meldingIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("melding_id IN ?", meldingIDs).Delete(&types.Attachment{}).Error
}
