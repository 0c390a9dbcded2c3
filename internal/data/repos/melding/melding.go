package melding

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

type MeldingRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Melding) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Melding, error)
	GetByPublicCode(ctx context.Context, tx *gorm.DB, code string) (*types.Melding, error)
	List(ctx context.Context, tx *gorm.DB, states []types.MeldingState, limit, offset int) ([]*types.Melding, error)

	Update(ctx context.Context, tx *gorm.DB, row *types.Melding) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error

	// UpdateStateIf performs the optimistic state commit: the row moves to
	// the destination only when it still sits in the expected source state.
	// The second concurrent request of a double transition sees ok=false.
	UpdateStateIf(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to types.MeldingState) (bool, error)

	ClearToken(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ListExpiredDraftIDs(ctx context.Context, tx *gorm.DB, now time.Time) ([]uuid.UUID, error)
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type meldingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMeldingRepo(db *gorm.DB, baseLog *logger.Logger) MeldingRepo {
	return &meldingRepo{db: db, log: baseLog.With("repo", "MeldingRepo")}
}

func (r *meldingRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Melding) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *meldingRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Melding, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Melding
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *meldingRepo) GetByPublicCode(ctx context.Context, tx *gorm.DB, code string) (*types.Melding, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if code == "" {
		return nil, nil
	}
	var out []*types.Melding
	if err := t.WithContext(ctx).Where("public_code = ?", code).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *meldingRepo) List(ctx context.Context, tx *gorm.DB, states []types.MeldingState, limit, offset int) ([]*types.Melding, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(ctx).Order("created_at DESC")
	if len(states) > 0 {
		q = q.Where("state IN ?", states)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var out []*types.Melding
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *meldingRepo) Update(ctx context.Context, tx *gorm.DB, row *types.Melding) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Save(row).Error
}

func (r *meldingRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return t.WithContext(ctx).Model(&types.Melding{}).Where("id = ?", id).Updates(updates).Error
}

func (r *meldingRepo) UpdateStateIf(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to types.MeldingState) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).
		Model(&types.Melding{}).
		Where("id = ? AND state = ?", id, from).
		Updates(map[string]interface{}{"state": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *meldingRepo) ClearToken(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).
		Model(&types.Melding{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"token": nil, "token_expires": nil}).Error
}

func (r *meldingRepo) ListExpiredDraftIDs(ctx context.Context, tx *gorm.DB, now time.Time) ([]uuid.UUID, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var ids []uuid.UUID
	if err := t.WithContext(ctx).
		Model(&types.Melding{}).
		Where("token_expires IS NOT NULL AND token_expires < ?", now).
		Where("state NOT IN ?", []types.MeldingState{types.StateSubmitted, types.StateProcessing, types.StateCompleted}).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *meldingRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("id IN ?", ids).Delete(&types.Melding{}).Error
}
