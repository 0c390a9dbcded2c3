package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Amsterdam/meldingen-sub000/internal/data/repos/formdef"
	meldingrepo "github.com/Amsterdam/meldingen-sub000/internal/data/repos/melding"
	"github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/lifecycle"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
	"github.com/Amsterdam/meldingen-sub000/internal/rules"
	"github.com/Amsterdam/meldingen-sub000/internal/token"
)

// MeldingService owns the melding lifecycle: creation with primary-form
// validation and auto-classification, guarded transitions, staff
// reclassification with its cascade, and draft expiry.
type MeldingService interface {
	// Create validates text against the primary form, classifies it, and
	// returns the new melding with its one-time melder token.
	Create(ctx context.Context, text string, email, phone *string) (*domain.Melding, string, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Melding, error)
	// VerifyMelderToken loads the melding and checks the presented token
	// against the stored one.
	VerifyMelderToken(ctx context.Context, id uuid.UUID, presented string) (*domain.Melding, error)
	UpdateText(ctx context.Context, id uuid.UUID, text string) (*domain.Melding, error)
	UpdateContact(ctx context.Context, id uuid.UUID, email, phone *string) (*domain.Melding, error)
	// Transition applies a named lifecycle transition. Staff marks the
	// caller as authenticated staff rather than the melder.
	Transition(ctx context.Context, id uuid.UUID, name string, staff bool) (*domain.Melding, error)
	// Reclassify moves the melding to another classification and runs the
	// reclassification cascade.
	Reclassify(ctx context.Context, id, classificationID uuid.UUID) (*domain.Melding, error)
	List(ctx context.Context, states []domain.MeldingState, limit, offset int) ([]*domain.Melding, error)
	// CleanupExpiredDrafts deletes drafts whose melder token has expired,
	// including everything they own. Returns the number deleted.
	CleanupExpiredDrafts(ctx context.Context) (int, error)
}

type meldingService struct {
	db         *gorm.DB
	log        *logger.Logger
	authority  *token.Authority
	classifier Classifier
	mailer     Mailer

	meldingRepo    meldingrepo.MeldingRepo
	locationRepo   meldingrepo.LocationRepo
	answerRepo     meldingrepo.AnswerRepo
	assetRepo      meldingrepo.AssetRepo
	attachmentRepo meldingrepo.AttachmentRepo

	clsRepo       formdef.ClassificationRepo
	formRepo      formdef.FormRepo
	componentRepo formdef.ComponentRepo
	questionRepo  formdef.QuestionRepo
}

type MeldingServiceDeps struct {
	DB         *gorm.DB
	Log        *logger.Logger
	Authority  *token.Authority
	Classifier Classifier
	Mailer     Mailer

	MeldingRepo    meldingrepo.MeldingRepo
	LocationRepo   meldingrepo.LocationRepo
	AnswerRepo     meldingrepo.AnswerRepo
	AssetRepo      meldingrepo.AssetRepo
	AttachmentRepo meldingrepo.AttachmentRepo

	ClassificationRepo formdef.ClassificationRepo
	FormRepo           formdef.FormRepo
	ComponentRepo      formdef.ComponentRepo
	QuestionRepo       formdef.QuestionRepo
}

func NewMeldingService(d MeldingServiceDeps) MeldingService {
	return &meldingService{
		db:             d.DB,
		log:            d.Log.With("service", "MeldingService"),
		authority:      d.Authority,
		classifier:     d.Classifier,
		mailer:         d.Mailer,
		meldingRepo:    d.MeldingRepo,
		locationRepo:   d.LocationRepo,
		answerRepo:     d.AnswerRepo,
		assetRepo:      d.AssetRepo,
		attachmentRepo: d.AttachmentRepo,
		clsRepo:        d.ClassificationRepo,
		formRepo:       d.FormRepo,
		componentRepo:  d.ComponentRepo,
		questionRepo:   d.QuestionRepo,
	}
}

const createRetries = 5

func (s *meldingService) Create(ctx context.Context, text string, email, phone *string) (*domain.Melding, string, error) {
	if err := s.checkPrimaryPredicates(ctx, text); err != nil {
		return nil, "", err
	}

	cls, err := s.classifier.Classify(ctx, text)
	if err != nil {
		// Classification is best effort at intake; staff can classify later.
		s.log.Warn("classification failed, leaving melding unclassified", "error", err)
		cls = nil
	}

	plain, err := s.authority.Generate()
	if err != nil {
		return nil, "", err
	}
	expires := s.authority.ExpiryFrom(time.Now())

	m := &domain.Melding{
		ID:           uuid.New(),
		Text:         text,
		State:        domain.StateNew,
		Token:        &plain,
		TokenExpires: &expires,
		Email:        email,
		Phone:        phone,
	}
	if cls != nil {
		m.ClassificationID = &cls.ID
		m.State = domain.StateClassified
	}

	// The public code is short, so collisions happen; regenerate and retry.
	for attempt := 0; attempt < createRetries; attempt++ {
		m.PublicCode, err = newPublicCode()
		if err != nil {
			return nil, "", err
		}
		err = s.meldingRepo.Create(ctx, nil, m)
		if err == nil {
			s.log.Info("melding created",
				"melding_id", m.ID.String(),
				"state", string(m.State),
				"classified", cls != nil,
			)
			return m, plain, nil
		}
		if !isUniqueViolation(err) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("public code generation exhausted after %d attempts: %w", createRetries, err)
}

// checkPrimaryPredicates runs the primary form's validate expressions against
// the melding text. A missing primary form is a deployment gap, not a melder
// error, so intake proceeds.
func (s *meldingService) checkPrimaryPredicates(ctx context.Context, text string) error {
	form, err := s.formRepo.GetPrimary(ctx, nil)
	if err != nil {
		return err
	}
	if form == nil {
		s.log.Warn("no primary form configured, skipping text validation")
		return nil
	}
	components, err := s.componentRepo.ListByFormID(ctx, nil, form.ID)
	if err != nil {
		return err
	}
	evalCtx := map[string]any{"text": text}
	for _, c := range components {
		if len(c.Validate) == 0 {
			continue
		}
		if err := rules.Check(c.Validate, evalCtx); err != nil {
			var pe *rules.PredicateError
			if errors.As(err, &pe) {
				return fmt.Errorf("%w: %w", ErrPrimaryValidationFailed, err)
			}
			return err
		}
	}
	return nil
}

func (s *meldingService) Get(ctx context.Context, id uuid.UUID) (*domain.Melding, error) {
	m, err := s.meldingRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("melding: %w", ErrNotFound)
	}
	return m, nil
}

func (s *meldingService) VerifyMelderToken(ctx context.Context, id uuid.UUID, presented string) (*domain.Melding, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authority.Verify(m.Token, m.TokenExpires, presented, time.Now()); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *meldingService) UpdateText(ctx context.Context, id uuid.UUID, text string) (*domain.Melding, error) {
	if err := s.checkPrimaryPredicates(ctx, text); err != nil {
		return nil, err
	}

	var out *domain.Melding
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.meldingRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("melding: %w", ErrNotFound)
		}
		if !m.State.Draft() {
			return lifecycle.ErrInvalidTransition
		}
		m.Text = text

		// Text changes can move the melding to another classification, with
		// the same cascade a staff reclassification runs.
		cls, clsErr := s.classifier.Classify(ctx, text)
		if clsErr != nil {
			s.log.Warn("re-classification failed, keeping current classification", "error", clsErr)
			cls = nil
		}
		if cls != nil {
			if err := s.applyReclassification(ctx, tx, m, cls); err != nil {
				return err
			}
		} else if err := s.meldingRepo.Update(ctx, tx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *meldingService) UpdateContact(ctx context.Context, id uuid.UUID, email, phone *string) (*domain.Melding, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.State.Draft() {
		return nil, lifecycle.ErrInvalidTransition
	}
	updates := map[string]interface{}{}
	if email != nil {
		updates["email"] = *email
	}
	if phone != nil {
		updates["phone"] = *phone
	}
	if len(updates) > 0 {
		if err := s.meldingRepo.UpdateFields(ctx, nil, id, updates); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

func (s *meldingService) Transition(ctx context.Context, id uuid.UUID, name string, staff bool) (*domain.Melding, error) {
	tr, err := lifecycle.Resolve(name)
	if err != nil {
		return nil, err
	}

	var out *domain.Melding
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.meldingRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("melding: %w", ErrNotFound)
		}

		var in lifecycle.GuardInput
		if tr.Guard != nil {
			in, err = s.buildGuardInput(ctx, tx, m)
			if err != nil {
				return err
			}
		}
		to, err := lifecycle.Apply(tr, m.State, staff, in)
		if err != nil {
			return err
		}

		// Concurrent transitions race on the state column; only one writer
		// wins the compare-and-set.
		ok, err := s.meldingRepo.UpdateStateIf(ctx, tx, m.ID, m.State, to)
		if err != nil {
			return err
		}
		if !ok {
			return lifecycle.ErrInvalidTransition
		}
		if tr.Name == lifecycle.TransitionSubmit {
			if err := s.meldingRepo.ClearToken(ctx, tx, m.ID); err != nil {
				return err
			}
			m.Token, m.TokenExpires = nil, nil
		}
		m.State = to
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("transition applied", "melding_id", out.ID.String(), "transition", tr.Name, "state", string(out.State))
	s.notifyAfter(tr.Name, out)
	return out, nil
}

// notifyAfter sends lifecycle mails after the commit, off the request path.
func (s *meldingService) notifyAfter(transition string, m *domain.Melding) {
	var send func(context.Context, *domain.Melding) error
	switch transition {
	case lifecycle.TransitionSubmit:
		send = s.mailer.SendConfirmation
	case lifecycle.TransitionComplete:
		send = s.mailer.SendCompletion
	default:
		return
	}
	snapshot := *m
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := send(ctx, &snapshot); err != nil {
			s.log.Warn("lifecycle mail failed", "melding_id", snapshot.ID.String(), "transition", transition, "error", err)
		}
	}()
}

// buildGuardInput loads the guard snapshot inside the caller's transaction.
func (s *meldingService) buildGuardInput(ctx context.Context, tx *gorm.DB, m *domain.Melding) (lifecycle.GuardInput, error) {
	in := lifecycle.GuardInput{
		ClassificationSet:   m.ClassificationID != nil,
		AnsweredQuestionIDs: map[uuid.UUID]bool{},
	}

	if m.ClassificationID != nil {
		cls, err := s.clsRepo.GetByID(ctx, tx, *m.ClassificationID)
		if err != nil {
			return in, err
		}
		if cls == nil {
			return in, fmt.Errorf("classification: %w", ErrNotFound)
		}
		in.AssetTypeID = cls.AssetTypeID

		form, err := s.formRepo.GetByClassificationID(ctx, tx, cls.ID)
		if err != nil {
			return in, err
		}
		if form != nil {
			components, err := s.componentRepo.ListByFormID(ctx, tx, form.ID)
			if err != nil {
				return in, err
			}
			required := make(map[uuid.UUID]bool, len(components))
			for _, c := range components {
				if c.Required {
					required[c.ID] = true
				}
			}
			questions, err := s.questionRepo.ListByFormID(ctx, tx, form.ID)
			if err != nil {
				return in, err
			}
			for _, q := range questions {
				if required[q.ComponentID] {
					in.RequiredQuestionIDs = append(in.RequiredQuestionIDs, q.ID)
				}
			}
		}
	}

	latest, err := s.answerRepo.LatestPerQuestion(ctx, tx, m.ID)
	if err != nil {
		return in, err
	}
	for qid := range latest {
		in.AnsweredQuestionIDs[qid] = true
	}

	loc, err := s.locationRepo.GetByMeldingID(ctx, tx, m.ID)
	if err != nil {
		return in, err
	}
	in.HasLocation = loc != nil

	count, err := s.assetRepo.CountByMeldingID(ctx, tx, m.ID)
	if err != nil {
		return in, err
	}
	in.AssetCount = int(count)
	return in, nil
}

func (s *meldingService) Reclassify(ctx context.Context, id, classificationID uuid.UUID) (*domain.Melding, error) {
	var out *domain.Melding
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.meldingRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("melding: %w", ErrNotFound)
		}
		cls, err := s.clsRepo.GetByID(ctx, tx, classificationID)
		if err != nil {
			return err
		}
		if cls == nil {
			return fmt.Errorf("classification: %w", ErrNotFound)
		}
		if err := s.applyReclassification(ctx, tx, m, cls); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("melding reclassified", "melding_id", out.ID.String(), "state", string(out.State))
	return out, nil
}

// applyReclassification runs the reclassification cascade within tx:
// same classification is a no-op; otherwise answers are purged, assets are
// purged when the asset type differs, the location is purged when the new
// classification turns on asset selection, and a NEW melding advances to
// CLASSIFIED.
func (s *meldingService) applyReclassification(ctx context.Context, tx *gorm.DB, m *domain.Melding, newCls *domain.Classification) error {
	if m.ClassificationID != nil && *m.ClassificationID == newCls.ID {
		return s.meldingRepo.Update(ctx, tx, m)
	}

	if err := s.answerRepo.DeleteByMeldingIDs(ctx, tx, []uuid.UUID{m.ID}); err != nil {
		return err
	}

	var oldAssetType *uuid.UUID
	if m.ClassificationID != nil {
		oldCls, err := s.clsRepo.GetByID(ctx, tx, *m.ClassificationID)
		if err != nil {
			return err
		}
		if oldCls != nil {
			oldAssetType = oldCls.AssetTypeID
		}
	}
	if !uuidPtrEqual(oldAssetType, newCls.AssetTypeID) {
		if err := s.assetRepo.DeleteByMeldingIDs(ctx, tx, []uuid.UUID{m.ID}); err != nil {
			return err
		}
		if newCls.AssetTypeID != nil {
			if err := s.locationRepo.DeleteByMeldingIDs(ctx, tx, []uuid.UUID{m.ID}); err != nil {
				return err
			}
		}
	}

	m.ClassificationID = &newCls.ID
	if m.State == domain.StateNew {
		m.State = domain.StateClassified
	}
	return s.meldingRepo.Update(ctx, tx, m)
}

func (s *meldingService) List(ctx context.Context, states []domain.MeldingState, limit, offset int) ([]*domain.Melding, error) {
	return s.meldingRepo.List(ctx, nil, states, limit, offset)
}

func (s *meldingService) CleanupExpiredDrafts(ctx context.Context) (int, error) {
	var deleted int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := s.meldingRepo.ListExpiredDraftIDs(ctx, tx, time.Now())
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := s.answerRepo.DeleteByMeldingIDs(ctx, tx, ids); err != nil {
			return err
		}
		if err := s.assetRepo.DeleteByMeldingIDs(ctx, tx, ids); err != nil {
			return err
		}
		if err := s.attachmentRepo.DeleteByMeldingIDs(ctx, tx, ids); err != nil {
			return err
		}
		if err := s.locationRepo.DeleteByMeldingIDs(ctx, tx, ids); err != nil {
			return err
		}
		if err := s.meldingRepo.FullDeleteByIDs(ctx, tx, ids); err != nil {
			return err
		}
		deleted = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("expired drafts deleted", "count", deleted)
	}
	return deleted, nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Crockford base32, no padding: unambiguous in spoken and written use.
const publicCodeAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

func newPublicCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("public code: %w", err)
	}
	out := make([]byte, 0, 10)
	out = append(out, 'M', '-')
	for _, b := range buf {
		out = append(out, publicCodeAlphabet[int(b)%len(publicCodeAlphabet)])
	}
	return string(out), nil
}
