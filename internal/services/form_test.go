package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Amsterdam/meldingen-sub000/internal/data/repos/formdef"
	meldingrepo "github.com/Amsterdam/meldingen-sub000/internal/data/repos/melding"
	"github.com/Amsterdam/meldingen-sub000/internal/data/repos/testutil"
	"github.com/Amsterdam/meldingen-sub000/internal/schema"
)

func TestRebuildReplacesQuestionsAndPositions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cls, err := f.cls.Create(ctx, "grofvuil", nil)
	if err != nil {
		t.Fatalf("create classification: %v", err)
	}

	form, err := f.form.RebuildForClassification(ctx, cls.ID, "Vervolgvragen", []schema.ComponentInput{
		{Key: "wat", Type: schema.TypeTextField, Label: "Wat ligt er?", Required: true},
		{Key: "hoelang", Type: schema.TypeTextArea, Label: "Hoe lang al?"},
	})
	if err != nil {
		t.Fatalf("first rebuild: %v", err)
	}
	questions, err := f.repos.question.ListByFormID(ctx, nil, form.ID)
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(questions))
	}

	// An answer against the old tree must not survive a rebuild.
	m, _, err := f.melding.Create(ctx, "grofvuil bij de flat", nil, nil)
	if err != nil {
		t.Fatalf("create melding: %v", err)
	}
	if _, err := f.answer.Submit(ctx, m.ID, questions[0].ID, answerPayload("een matras")); err != nil {
		t.Fatalf("submit answer: %v", err)
	}

	rebuilt, err := f.form.RebuildForClassification(ctx, cls.ID, "Vervolgvragen", []schema.ComponentInput{
		{Key: "omvang", Type: schema.TypeTextField, Label: "Hoe groot is het?"},
	})
	if err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	if rebuilt.ID != form.ID {
		t.Fatalf("rebuild created a new form row")
	}
	questions, err = f.repos.question.ListByFormID(ctx, nil, rebuilt.ID)
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("questions = %d, want 1", len(questions))
	}
	answers, err := f.repos.answer.ListByMeldingID(ctx, nil, m.ID)
	if err != nil || len(answers) != 0 {
		t.Fatalf("answers = %d (err %v), want 0 after rebuild", len(answers), err)
	}
}

func TestRebuildRejectsInvalidTrees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string][]schema.ComponentInput{
		"unknown type": {
			{Key: "x", Type: "slider", Label: "Nope"},
		},
		"duplicate keys": {
			{Key: "x", Type: schema.TypeTextField, Label: "A"},
			{Key: "x", Type: schema.TypeTextArea, Label: "B"},
		},
		"nested panel": {
			{Key: "outer", Type: schema.TypePanel, Label: "Outer", Components: []schema.ComponentInput{
				{Key: "inner", Type: schema.TypePanel, Label: "Inner", Components: []schema.ComponentInput{
					{Key: "leaf", Type: schema.TypeTextField, Label: "Leaf"},
				}},
			}},
		},
		"radio without options": {
			{Key: "keuze", Type: schema.TypeRadio, Label: "Keuze"},
		},
	}
	for name, inputs := range cases {
		if _, err := f.form.RebuildPrimary(ctx, "Nieuwe melding", inputs); !errors.Is(err, schema.ErrInvalidTree) {
			t.Errorf("%s: err = %v, want ErrInvalidTree", name, err)
		}
	}
}

func TestRebuildForUnknownClassification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.form.RebuildForClassification(ctx, uuid.New(), "Vervolgvragen", []schema.ComponentInput{
		{Key: "wat", Type: schema.TypeTextField, Label: "Wat?"},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestTreeRendering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cls, err := f.cls.Create(ctx, "grofvuil", nil)
	if err != nil {
		t.Fatalf("create classification: %v", err)
	}
	if _, err := f.form.RebuildForClassification(ctx, cls.ID, "Vervolgvragen", []schema.ComponentInput{
		{Key: "details", Type: schema.TypePanel, Label: "Details", Components: []schema.ComponentInput{
			{Key: "wat", Type: schema.TypeTextField, Label: "Wat ligt er?", Required: true},
			{Key: "soort", Type: schema.TypeRadio, Label: "Wat voor soort?", Options: []schema.Option{
				{Value: "meubels", Label: "Meubels"},
				{Value: "elektrisch", Label: "Elektrische apparaten"},
			}},
		}},
	}); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	raw, err := f.form.TreeForClassification(ctx, cls.ID)
	if err != nil {
		t.Fatalf("render tree: %v", err)
	}
	var tree FormTree
	if err := json.Unmarshal(raw, &tree); err != nil {
		t.Fatalf("unmarshal tree: %v", err)
	}
	if tree.Title != "Vervolgvragen" {
		t.Fatalf("title = %q", tree.Title)
	}
	if len(tree.Components) != 1 {
		t.Fatalf("root components = %d, want 1", len(tree.Components))
	}
	panel := tree.Components[0]
	if panel.Type != schema.TypePanel || len(panel.Components) != 2 {
		t.Fatalf("panel shape wrong: type %q, children %d", panel.Type, len(panel.Components))
	}
	for i, child := range panel.Components {
		if child.Position != i+1 {
			t.Errorf("child %q position = %d, want %d", child.Key, child.Position, i+1)
		}
		if child.QuestionID == nil {
			t.Errorf("child %q has no question", child.Key)
		}
	}
	if len(panel.Components[1].Options) != 2 {
		t.Fatalf("radio options = %d, want 2", len(panel.Components[1].Options))
	}
}

// trackingCache is a map-backed SchemaCache that counts invalidations.
type trackingCache struct {
	trees       map[uuid.UUID][]byte
	invalidated map[uuid.UUID]int
}

func newTrackingCache() *trackingCache {
	return &trackingCache{
		trees:       map[uuid.UUID][]byte{},
		invalidated: map[uuid.UUID]int{},
	}
}

func (c *trackingCache) GetTree(_ context.Context, formID uuid.UUID) ([]byte, bool) {
	raw, ok := c.trees[formID]
	return raw, ok
}

func (c *trackingCache) SetTree(_ context.Context, formID uuid.UUID, raw []byte) {
	c.trees[formID] = raw
}

func (c *trackingCache) Invalidate(_ context.Context, formID uuid.UUID) {
	delete(c.trees, formID)
	c.invalidated[formID]++
}

func (c *trackingCache) Close() error { return nil }

func TestRebuildInvalidatesCacheAfterCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	log := testutil.Logger(t)
	cache := newTrackingCache()

	formService := NewFormService(f.tx, log, cache,
		formdef.NewFormRepo(f.tx, log),
		formdef.NewComponentRepo(f.tx, log),
		formdef.NewQuestionRepo(f.tx, log),
		meldingrepo.NewAnswerRepo(f.tx, log),
		formdef.NewClassificationRepo(f.tx, log),
	)

	form, err := formService.RebuildPrimary(ctx, "Nieuwe melding", []schema.ComponentInput{
		{Key: "melding_text", Type: schema.TypeTextArea, Label: "Waar gaat het om?", Required: true},
	})
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	// Simulate a concurrent Tree call re-caching the old rows between the
	// in-transaction invalidate and the commit: a rebuild must leave the
	// cache empty regardless, which needs a second invalidate after commit.
	cache.invalidated = map[uuid.UUID]int{}
	cache.trees[form.ID] = []byte(`{"title":"stale"}`)
	if _, err := formService.RebuildPrimary(ctx, "Nieuwe melding", []schema.ComponentInput{
		{Key: "melding_text", Type: schema.TypeTextArea, Label: "Wat is er aan de hand?", Required: true},
	}); err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	if _, ok := cache.trees[form.ID]; ok {
		t.Fatal("stale tree survived the rebuild")
	}
	if got := cache.invalidated[form.ID]; got < 2 {
		t.Fatalf("invalidations during second rebuild window = %d, want in-tx and post-commit", got)
	}

	raw, err := formService.PrimaryTree(ctx)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var tree FormTree
	if err := json.Unmarshal(raw, &tree); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(tree.Components) != 1 || tree.Components[0].Label != "Wat is er aan de hand?" {
		t.Fatal("rendered tree is not the rebuilt one")
	}
}

func TestPrimaryTreeCarriesNoQuestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.form.RebuildPrimary(ctx, "Nieuwe melding", []schema.ComponentInput{
		{Key: "melding_text", Type: schema.TypeTextArea, Label: "Waar gaat het om?", Required: true},
	}); err != nil {
		t.Fatalf("rebuild primary: %v", err)
	}

	raw, err := f.form.PrimaryTree(ctx)
	if err != nil {
		t.Fatalf("render primary tree: %v", err)
	}
	var tree FormTree
	if err := json.Unmarshal(raw, &tree); err != nil {
		t.Fatalf("unmarshal tree: %v", err)
	}
	if tree.ClassificationID != nil {
		t.Fatal("primary tree bound to a classification")
	}
	if len(tree.Components) != 1 || tree.Components[0].QuestionID != nil {
		t.Fatal("primary leaves must not carry questions")
	}
}
