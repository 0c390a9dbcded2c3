package formdef

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

type QuestionRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, rows []*types.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Question, error)
	ListByFormID(ctx context.Context, tx *gorm.DB, formID uuid.UUID) ([]*types.Question, error)
	DeleteByFormID(ctx context.Context, tx *gorm.DB, formID uuid.UUID) error
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{db: db, log: baseLog.With("repo", "QuestionRepo")}
}

func (r *questionRepo) CreateBatch(ctx context.Context, tx *gorm.DB, rows []*types.Question) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(ctx).Create(&rows).Error
}

func (r *questionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Question, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Question
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *questionRepo) ListByFormID(ctx context.Context, tx *gorm.DB, formID uuid.UUID) ([]*types.Question, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Question
	if err := t.WithContext(ctx).
		Where("form_id = ?", formID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questionRepo) DeleteByFormID(ctx context.Context, tx *gorm.DB, formID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Where("form_id = ?", formID).Delete(&types.Question{}).Error
}
