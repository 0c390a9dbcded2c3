package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Amsterdam/meldingen-sub000/internal/data/repos/formdef"
	meldingrepo "github.com/Amsterdam/meldingen-sub000/internal/data/repos/melding"
	"github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/lifecycle"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
	"github.com/Amsterdam/meldingen-sub000/internal/rules"
	"github.com/Amsterdam/meldingen-sub000/internal/schema"
)

// AnswerService validates and records melder answers. Answers are
// append-only; resubmitting a question adds a newer row.
type AnswerService interface {
	Submit(ctx context.Context, meldingID, questionID uuid.UUID, rawPayload []byte) (*domain.Answer, error)
	List(ctx context.Context, meldingID uuid.UUID) ([]*domain.Answer, error)
}

type answerService struct {
	db  *gorm.DB
	log *logger.Logger

	meldingRepo   meldingrepo.MeldingRepo
	answerRepo    meldingrepo.AnswerRepo
	formRepo      formdef.FormRepo
	componentRepo formdef.ComponentRepo
	questionRepo  formdef.QuestionRepo
}

func NewAnswerService(
	db *gorm.DB,
	baseLog *logger.Logger,
	meldingRepo meldingrepo.MeldingRepo,
	answerRepo meldingrepo.AnswerRepo,
	formRepo formdef.FormRepo,
	componentRepo formdef.ComponentRepo,
	questionRepo formdef.QuestionRepo,
) AnswerService {
	return &answerService{
		db:            db,
		log:           baseLog.With("service", "AnswerService"),
		meldingRepo:   meldingRepo,
		answerRepo:    answerRepo,
		formRepo:      formRepo,
		componentRepo: componentRepo,
		questionRepo:  questionRepo,
	}
}

func (s *answerService) Submit(ctx context.Context, meldingID, questionID uuid.UUID, rawPayload []byte) (*domain.Answer, error) {
	payload, err := schema.ParseAnswerPayload(rawPayload)
	if err != nil {
		return nil, err
	}

	var out *domain.Answer
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.meldingRepo.GetByID(ctx, tx, meldingID)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("melding: %w", ErrNotFound)
		}
		if !m.State.Draft() {
			return lifecycle.ErrInvalidTransition
		}

		q, err := s.questionRepo.GetByID(ctx, tx, questionID)
		if err != nil {
			return err
		}
		if q == nil {
			return fmt.Errorf("question: %w", ErrNotFound)
		}
		// The question must belong to the form of the melding's current
		// classification; answers against stale or foreign forms are
		// rejected as unknown.
		if m.ClassificationID == nil {
			return fmt.Errorf("question: %w", ErrNotFound)
		}
		form, err := s.formRepo.GetByClassificationID(ctx, tx, *m.ClassificationID)
		if err != nil {
			return err
		}
		if form == nil || form.ID != q.FormID {
			return fmt.Errorf("question: %w", ErrNotFound)
		}

		component, err := s.componentRepo.GetByID(ctx, tx, q.ComponentID)
		if err != nil {
			return err
		}
		if component == nil {
			return fmt.Errorf("%w: question %s has no component", rules.ErrInvalidExpression, q.ID)
		}
		if err := schema.ValidateAnswer(component, payload); err != nil {
			return err
		}

		out = &domain.Answer{
			ID:         uuid.New(),
			MeldingID:  m.ID,
			QuestionID: q.ID,
			Payload:    datatypes.JSON(rawPayload),
		}
		return s.answerRepo.Create(ctx, tx, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *answerService) List(ctx context.Context, meldingID uuid.UUID) ([]*domain.Answer, error) {
	m, err := s.meldingRepo.GetByID(ctx, nil, meldingID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("melding: %w", ErrNotFound)
	}
	return s.answerRepo.ListByMeldingID(ctx, nil, meldingID)
}
