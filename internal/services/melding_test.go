package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclient "github.com/Amsterdam/meldingen-sub000/internal/clients/redis"
	"github.com/Amsterdam/meldingen-sub000/internal/data/repos/formdef"
	meldingrepo "github.com/Amsterdam/meldingen-sub000/internal/data/repos/melding"
	"github.com/Amsterdam/meldingen-sub000/internal/data/repos/testutil"
	"github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/lifecycle"
	"github.com/Amsterdam/meldingen-sub000/internal/schema"
	"github.com/Amsterdam/meldingen-sub000/internal/token"
)

// recordingMailer captures lifecycle mails for assertions.
type recordingMailer struct {
	confirmations chan string
	completions   chan string
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{
		confirmations: make(chan string, 4),
		completions:   make(chan string, 4),
	}
}

func (m *recordingMailer) SendConfirmation(_ context.Context, melding *domain.Melding) error {
	m.confirmations <- melding.PublicCode
	return nil
}

func (m *recordingMailer) SendCompletion(_ context.Context, melding *domain.Melding) error {
	m.completions <- melding.PublicCode
	return nil
}

type fixture struct {
	tx        *gorm.DB
	mailer    *recordingMailer
	authority *token.Authority
	melding   MeldingService
	form      FormService
	answer    AnswerService
	asset     AssetService
	location  LocationService
	cls       ClassificationService
	repos     struct {
		melding   meldingrepo.MeldingRepo
		answer    meldingrepo.AnswerRepo
		asset     meldingrepo.AssetRepo
		location  meldingrepo.LocationRepo
		question  formdef.QuestionRepo
		form      formdef.FormRepo
		component formdef.ComponentRepo
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := testutil.Logger(t)
	tx := testutil.Tx(t, testutil.DB(t))

	meldingRepo := meldingrepo.NewMeldingRepo(tx, log)
	locationRepo := meldingrepo.NewLocationRepo(tx, log)
	answerRepo := meldingrepo.NewAnswerRepo(tx, log)
	assetRepo := meldingrepo.NewAssetRepo(tx, log)
	attachmentRepo := meldingrepo.NewAttachmentRepo(tx, log)
	clsRepo := formdef.NewClassificationRepo(tx, log)
	assetTypeRepo := formdef.NewAssetTypeRepo(tx, log)
	formRepo := formdef.NewFormRepo(tx, log)
	componentRepo := formdef.NewComponentRepo(tx, log)
	questionRepo := formdef.NewQuestionRepo(tx, log)

	authority := token.NewAuthority(time.Hour)
	mailer := newRecordingMailer()
	cache := redisclient.NewNoopSchemaCache()

	f := &fixture{
		tx:        tx,
		mailer:    mailer,
		authority: authority,
		form:      NewFormService(tx, log, cache, formRepo, componentRepo, questionRepo, answerRepo, clsRepo),
		answer:    NewAnswerService(tx, log, meldingRepo, answerRepo, formRepo, componentRepo, questionRepo),
		asset:     NewAssetService(tx, log, meldingRepo, assetRepo, clsRepo, assetTypeRepo),
		location:  NewLocationService(tx, log, nil, meldingRepo, locationRepo, clsRepo),
		cls:       NewClassificationService(tx, log, clsRepo, assetTypeRepo),
	}
	f.melding = NewMeldingService(MeldingServiceDeps{
		DB:         tx,
		Log:        log,
		Authority:  authority,
		Classifier: NewKeywordClassifier(tx, log, clsRepo),
		Mailer:     mailer,

		MeldingRepo:    meldingRepo,
		LocationRepo:   locationRepo,
		AnswerRepo:     answerRepo,
		AssetRepo:      assetRepo,
		AttachmentRepo: attachmentRepo,

		ClassificationRepo: clsRepo,
		FormRepo:           formRepo,
		ComponentRepo:      componentRepo,
		QuestionRepo:       questionRepo,
	})
	f.repos.melding = meldingRepo
	f.repos.answer = answerRepo
	f.repos.asset = assetRepo
	f.repos.location = locationRepo
	f.repos.question = questionRepo
	f.repos.form = formRepo
	f.repos.component = componentRepo
	return f
}

// followupForm rebuilds a one-question follow-up form for the classification
// and returns the question id.
func (f *fixture) followupForm(t *testing.T, ctx context.Context, clsID uuid.UUID, required bool) uuid.UUID {
	t.Helper()
	form, err := f.form.RebuildForClassification(ctx, clsID, "Vervolgvragen", []schema.ComponentInput{
		{Key: "toelichting", Type: schema.TypeTextArea, Label: "Kunt u dit toelichten?", Required: required},
	})
	if err != nil {
		t.Fatalf("rebuild form: %v", err)
	}
	questions, err := f.repos.question.ListByFormID(ctx, nil, form.ID)
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	return questions[0].ID
}

func answerPayload(text string) []byte {
	raw, _ := json.Marshal(map[string]string{"text": text})
	return raw
}

func TestCreateClassifiesByKeyword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cls, err := f.cls.Create(ctx, "grofvuil", nil)
	if err != nil {
		t.Fatalf("create classification: %v", err)
	}

	m, plain, err := f.melding.Create(ctx, "er ligt grofvuil naast de container bij mijn deur", nil, nil)
	if err != nil {
		t.Fatalf("create melding: %v", err)
	}
	if m.State != domain.StateClassified {
		t.Fatalf("state = %s, want classified", m.State)
	}
	if m.ClassificationID == nil || *m.ClassificationID != cls.ID {
		t.Fatalf("classification not set to %s", cls.ID)
	}
	if plain == "" {
		t.Fatal("expected a melder token")
	}
	if !strings.HasPrefix(m.PublicCode, "M-") {
		t.Fatalf("public code %q missing prefix", m.PublicCode)
	}
	if _, err := f.melding.VerifyMelderToken(ctx, m.ID, plain); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}
}

func TestCreateWithoutMatchStartsNew(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, _, err := f.melding.Create(ctx, "iets geheel onherkenbaars gebeurde hier", nil, nil)
	if err != nil {
		t.Fatalf("create melding: %v", err)
	}
	if m.State != domain.StateNew {
		t.Fatalf("state = %s, want new", m.State)
	}
	if m.ClassificationID != nil {
		t.Fatal("expected no classification")
	}
}

func TestCreateEnforcesPrimaryPredicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	validate := json.RawMessage(`{"if": [{">": [{"strlen": {"var": "text"}}, 9]}, true, "Omschrijf uw melding in minstens 10 tekens."]}`)
	if _, err := f.form.RebuildPrimary(ctx, "Nieuwe melding", []schema.ComponentInput{
		{Key: "melding_text", Type: schema.TypeTextArea, Label: "Waar gaat het om?", Required: true, Validate: validate},
	}); err != nil {
		t.Fatalf("rebuild primary: %v", err)
	}

	_, _, err := f.melding.Create(ctx, "te kort", nil, nil)
	if !errors.Is(err, ErrPrimaryValidationFailed) {
		t.Fatalf("err = %v, want ErrPrimaryValidationFailed", err)
	}
	if !strings.Contains(err.Error(), "minstens 10 tekens") {
		t.Fatalf("predicate message missing from %v", err)
	}

	if _, _, err := f.melding.Create(ctx, "dit is zeker lang genoeg", nil, nil); err != nil {
		t.Fatalf("long text rejected: %v", err)
	}
}

func TestFullLifecycleWalk(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cls, err := f.cls.Create(ctx, "grofvuil", nil)
	if err != nil {
		t.Fatalf("create classification: %v", err)
	}
	questionID := f.followupForm(t, ctx, cls.ID, true)

	m, plain, err := f.melding.Create(ctx, "grofvuil op de stoep", ptr("melder@example.com"), nil)
	if err != nil {
		t.Fatalf("create melding: %v", err)
	}
	if m.State != domain.StateClassified {
		t.Fatalf("state = %s, want classified", m.State)
	}

	// Required question unanswered: the transition must refuse.
	if _, err := f.melding.Transition(ctx, m.ID, lifecycle.TransitionAnswerQuestions, false); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}

	if _, err := f.answer.Submit(ctx, m.ID, questionID, answerPayload("drie zakken naast de container")); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	for _, name := range []string{
		lifecycle.TransitionAnswerQuestions,
		lifecycle.TransitionAddAttachments,
	} {
		if _, err := f.melding.Transition(ctx, m.ID, name, false); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}

	// No location yet and no asset selection to fall back on.
	if _, err := f.melding.Transition(ctx, m.ID, lifecycle.TransitionSubmitLocation, false); !errors.Is(err, lifecycle.ErrLocationModeUnset) {
		t.Fatalf("err = %v, want ErrLocationModeUnset", err)
	}
	if _, err := f.location.Put(ctx, m.ID, 52.3702, 4.8952); err != nil {
		t.Fatalf("put location: %v", err)
	}
	for _, name := range []string{
		lifecycle.TransitionSubmitLocation,
		lifecycle.TransitionAddContactInfo,
	} {
		if _, err := f.melding.Transition(ctx, m.ID, name, false); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}

	submitted, err := f.melding.Transition(ctx, m.ID, lifecycle.TransitionSubmit, false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submitted.State != domain.StateSubmitted {
		t.Fatalf("state = %s, want submitted", submitted.State)
	}
	select {
	case <-f.mailer.confirmations:
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation mail never sent")
	}

	// Submit burns the melder token, even inside the expiry window.
	if _, err := f.melding.VerifyMelderToken(ctx, m.ID, plain); !errors.Is(err, token.ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
	// Staff can still read it by id.
	if _, err := f.melding.Get(ctx, m.ID); err != nil {
		t.Fatalf("staff read: %v", err)
	}

	// Melder may not run the staff-only tail.
	if _, err := f.melding.Transition(ctx, m.ID, lifecycle.TransitionProcess, false); !errors.Is(err, lifecycle.ErrStaffOnly) {
		t.Fatalf("err = %v, want ErrStaffOnly", err)
	}
	if _, err := f.melding.Transition(ctx, m.ID, lifecycle.TransitionProcess, true); err != nil {
		t.Fatalf("process: %v", err)
	}
	completed, err := f.melding.Transition(ctx, m.ID, lifecycle.TransitionComplete, true)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.State != domain.StateCompleted {
		t.Fatalf("state = %s, want completed", completed.State)
	}
	select {
	case <-f.mailer.completions:
	case <-time.After(2 * time.Second):
		t.Fatal("completion mail never sent")
	}
}

func TestReclassifyCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	clsA, err := f.cls.Create(ctx, "grofvuil", nil)
	if err != nil {
		t.Fatalf("create classification: %v", err)
	}
	questionID := f.followupForm(t, ctx, clsA.ID, false)

	assetType, err := f.cls.CreateAssetType(ctx, "afvalcontainer", 3)
	if err != nil {
		t.Fatalf("create asset type: %v", err)
	}
	clsB, err := f.cls.Create(ctx, "container", &assetType.ID)
	if err != nil {
		t.Fatalf("create classification: %v", err)
	}

	m, _, err := f.melding.Create(ctx, "grofvuil ligt hier al dagen", nil, nil)
	if err != nil {
		t.Fatalf("create melding: %v", err)
	}
	if _, err := f.answer.Submit(ctx, m.ID, questionID, answerPayload("al dagenlang")); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if _, err := f.location.Put(ctx, m.ID, 52.37, 4.89); err != nil {
		t.Fatalf("put location: %v", err)
	}

	// Same classification: nothing may be purged.
	if _, err := f.melding.Reclassify(ctx, m.ID, clsA.ID); err != nil {
		t.Fatalf("same reclassify: %v", err)
	}
	answers, err := f.repos.answer.ListByMeldingID(ctx, nil, m.ID)
	if err != nil || len(answers) != 1 {
		t.Fatalf("answers after no-op = %d (err %v), want 1", len(answers), err)
	}

	// New classification with an asset type: answers and location go.
	updated, err := f.melding.Reclassify(ctx, m.ID, clsB.ID)
	if err != nil {
		t.Fatalf("reclassify: %v", err)
	}
	if updated.ClassificationID == nil || *updated.ClassificationID != clsB.ID {
		t.Fatal("classification not moved")
	}
	answers, err = f.repos.answer.ListByMeldingID(ctx, nil, m.ID)
	if err != nil || len(answers) != 0 {
		t.Fatalf("answers after cascade = %d (err %v), want 0", len(answers), err)
	}
	if loc, err := f.repos.location.GetByMeldingID(ctx, nil, m.ID); err != nil || loc != nil {
		t.Fatalf("location survived the cascade (err %v)", err)
	}
}

func TestReclassifyAssetPurge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assetType, err := f.cls.CreateAssetType(ctx, "afvalcontainer", 3)
	if err != nil {
		t.Fatalf("create asset type: %v", err)
	}
	clsA, err := f.cls.Create(ctx, "container", &assetType.ID)
	if err != nil {
		t.Fatalf("create classification: %v", err)
	}
	clsSameType, err := f.cls.Create(ctx, "container kapot", &assetType.ID)
	if err != nil {
		t.Fatalf("create classification: %v", err)
	}
	clsNoType, err := f.cls.Create(ctx, "grofvuil", nil)
	if err != nil {
		t.Fatalf("create classification: %v", err)
	}

	m, _, err := f.melding.Create(ctx, "de container zit overvol", nil, nil)
	if err != nil {
		t.Fatalf("create melding: %v", err)
	}
	if m.ClassificationID == nil || *m.ClassificationID != clsA.ID {
		t.Fatalf("melding not classified as %s", clsA.Name)
	}
	if _, err := f.asset.Attach(ctx, m.ID, AttachAssetInput{ExternalID: "ext-1"}); err != nil {
		t.Fatalf("attach asset: %v", err)
	}

	// Same asset type on the new classification: the selection stays valid.
	if _, err := f.melding.Reclassify(ctx, m.ID, clsSameType.ID); err != nil {
		t.Fatalf("reclassify within asset type: %v", err)
	}
	assets, err := f.asset.List(ctx, m.ID)
	if err != nil || len(assets) != 1 {
		t.Fatalf("assets after same-type move = %d (err %v), want 1", len(assets), err)
	}

	// Dropping to a classification without an asset type empties the list.
	if _, err := f.melding.Reclassify(ctx, m.ID, clsNoType.ID); err != nil {
		t.Fatalf("reclassify away from asset type: %v", err)
	}
	assets, err = f.asset.List(ctx, m.ID)
	if err != nil || len(assets) != 0 {
		t.Fatalf("assets after type change = %d (err %v), want 0", len(assets), err)
	}
}

func TestReclassifyAdvancesNew(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, _, err := f.melding.Create(ctx, "iets geheel onherkenbaars", nil, nil)
	if err != nil {
		t.Fatalf("create melding: %v", err)
	}
	if m.State != domain.StateNew {
		t.Fatalf("state = %s, want new", m.State)
	}

	cls, err := f.cls.Create(ctx, "grofvuil", nil)
	if err != nil {
		t.Fatalf("create classification: %v", err)
	}
	updated, err := f.melding.Reclassify(ctx, m.ID, cls.ID)
	if err != nil {
		t.Fatalf("reclassify: %v", err)
	}
	if updated.State != domain.StateClassified {
		t.Fatalf("state = %s, want classified", updated.State)
	}
}

func TestMaxAssetsCeiling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assetType, err := f.cls.CreateAssetType(ctx, "afvalcontainer", 2)
	if err != nil {
		t.Fatalf("create asset type: %v", err)
	}
	if _, err := f.cls.Create(ctx, "container", &assetType.ID); err != nil {
		t.Fatalf("create classification: %v", err)
	}

	m, _, err := f.melding.Create(ctx, "de container zit vol", nil, nil)
	if err != nil {
		t.Fatalf("create melding: %v", err)
	}

	// Location is refused while asset selection applies.
	if _, err := f.location.Put(ctx, m.ID, 52.37, 4.89); !errors.Is(err, ErrAssetSelectionRequired) {
		t.Fatalf("err = %v, want ErrAssetSelectionRequired", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := f.asset.Attach(ctx, m.ID, AttachAssetInput{ExternalID: "ext-" + string(rune('a'+i))}); err != nil {
			t.Fatalf("attach %d: %v", i, err)
		}
	}
	if _, err := f.asset.Attach(ctx, m.ID, AttachAssetInput{ExternalID: "ext-c"}); !errors.Is(err, ErrMaxAssetsExceeded) {
		t.Fatalf("err = %v, want ErrMaxAssetsExceeded", err)
	}
	assets, err := f.asset.List(ctx, m.ID)
	if err != nil || len(assets) != 2 {
		t.Fatalf("assets = %d (err %v), want 2", len(assets), err)
	}
}

func TestCleanupExpiredDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expired, _, err := f.melding.Create(ctx, "verlopen concept zonder opvolging", nil, nil)
	if err != nil {
		t.Fatalf("create melding: %v", err)
	}
	past := time.Now().Add(-time.Hour)
	if err := f.repos.melding.UpdateFields(ctx, nil, expired.ID, map[string]interface{}{"token_expires": past}); err != nil {
		t.Fatalf("expire token: %v", err)
	}

	fresh, _, err := f.melding.Create(ctx, "nog een levend concept hier", nil, nil)
	if err != nil {
		t.Fatalf("create melding: %v", err)
	}

	deleted, err := f.melding.CleanupExpiredDrafts(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
	if _, err := f.melding.Get(ctx, expired.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := f.melding.Get(ctx, fresh.ID); err != nil {
		t.Fatalf("fresh draft deleted: %v", err)
	}
}

func TestUpdateTextReclassifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	clsA, err := f.cls.Create(ctx, "grofvuil", nil)
	if err != nil {
		t.Fatalf("create classification: %v", err)
	}
	questionID := f.followupForm(t, ctx, clsA.ID, false)
	if _, err := f.cls.Create(ctx, "straatverlichting", nil); err != nil {
		t.Fatalf("create classification: %v", err)
	}

	m, _, err := f.melding.Create(ctx, "grofvuil naast de weg", nil, nil)
	if err != nil {
		t.Fatalf("create melding: %v", err)
	}
	if _, err := f.answer.Submit(ctx, m.ID, questionID, answerPayload("een bankstel")); err != nil {
		t.Fatalf("submit answer: %v", err)
	}

	updated, err := f.melding.UpdateText(ctx, m.ID, "de straatverlichting doet het niet")
	if err != nil {
		t.Fatalf("update text: %v", err)
	}
	if updated.ClassificationID == nil || *updated.ClassificationID == clsA.ID {
		t.Fatal("classification did not move")
	}
	answers, err := f.repos.answer.ListByMeldingID(ctx, nil, m.ID)
	if err != nil || len(answers) != 0 {
		t.Fatalf("answers = %d (err %v), want 0 after implicit cascade", len(answers), err)
	}
}

func ptr(s string) *string { return &s }
