package melding

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

type AnswerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Answer) error
	ListByMeldingID(ctx context.Context, tx *gorm.DB, meldingID uuid.UUID) ([]*types.Answer, error)

	// LatestPerQuestion returns the authoritative answer per question:
	// answers are append-only and only the newest row counts.
	LatestPerQuestion(ctx context.Context, tx *gorm.DB, meldingID uuid.UUID) (map[uuid.UUID]*types.Answer, error)

	DeleteByMeldingIDs(ctx context.Context, tx *gorm.DB, meldingIDs []uuid.UUID) error
	DeleteByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) error
}

type answerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnswerRepo(db *gorm.DB, baseLog *logger.Logger) AnswerRepo {
	return &answerRepo{db: db, log: baseLog.With("repo", "AnswerRepo")}
}

func (r *answerRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Answer) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *answerRepo) ListByMeldingID(ctx context.Context, tx *gorm.DB, meldingID uuid.UUID) ([]*types.Answer, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Answer
	if err := t.WithContext(ctx).
		Where("melding_id = ?", meldingID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *answerRepo) LatestPerQuestion(ctx context.Context, tx *gorm.DB, meldingID uuid.UUID) (map[uuid.UUID]*types.Answer, error) {
	rows, err := r.ListByMeldingID(ctx, tx, meldingID)
	if err != nil {
		return nil, err
	}
	// Rows come back oldest first; the fold leaves the newest per question.
	out := make(map[uuid.UUID]*types.Answer, len(rows))
	for _, row := range rows {
		out[row.QuestionID] = row
	}
	return out, nil
}

func (r *answerRepo) DeleteByMeldingIDs(ctx context.Context, tx *gorm.DB, meldingIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(meldingIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("melding_id IN ?", meldingIDs).Delete(&types.Answer{}).Error
}

func (r *answerRepo) DeleteByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(questionIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("question_id IN ?", questionIDs).Delete(&types.Answer{}).Error
}
