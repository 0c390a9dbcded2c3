package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Amsterdam/meldingen-sub000/internal/lifecycle"
	"github.com/Amsterdam/meldingen-sub000/internal/rules"
	"github.com/Amsterdam/meldingen-sub000/internal/schema"
)

// answerFixture builds a classified melding with a mixed follow-up form and
// returns question ids keyed by component key.
func answerFixture(t *testing.T) (*fixture, uuid.UUID, map[string]uuid.UUID) {
	t.Helper()
	f := newFixture(t)
	ctx := context.Background()

	cls, err := f.cls.Create(ctx, "grofvuil", nil)
	if err != nil {
		t.Fatalf("create classification: %v", err)
	}
	minLength := json.RawMessage(`{"if": [{">": [{"strlen": {"var": "text"}}, 4]}, true, "Geef wat meer detail."]}`)
	form, err := f.form.RebuildForClassification(ctx, cls.ID, "Vervolgvragen", []schema.ComponentInput{
		{Key: "toelichting", Type: schema.TypeTextArea, Label: "Kunt u dit toelichten?", Validate: minLength},
		{Key: "soort", Type: schema.TypeRadio, Label: "Wat voor soort?", Options: []schema.Option{
			{Value: "meubels", Label: "Meubels"},
			{Value: "overig", Label: "Overig"},
		}},
		{Key: "frequentie", Type: schema.TypeSelect, Label: "Hoe vaak?", Data: &schema.SelectData{Values: []schema.Option{
			{Value: "eenmalig", Label: "Eenmalig"},
			{Value: "wekelijks", Label: "Elke week"},
		}}},
	})
	if err != nil {
		t.Fatalf("rebuild form: %v", err)
	}

	questionIDs := make(map[string]uuid.UUID)
	questions, err := f.repos.question.ListByFormID(ctx, nil, form.ID)
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	components, err := f.repos.component.ListByFormID(ctx, nil, form.ID)
	if err != nil {
		t.Fatalf("list components: %v", err)
	}
	byComponent := make(map[uuid.UUID]string, len(components))
	for _, c := range components {
		byComponent[c.ID] = c.Key
	}
	for _, q := range questions {
		questionIDs[byComponent[q.ComponentID]] = q.ID
	}

	m, _, err := f.melding.Create(context.Background(), "grofvuil op de hoek", nil, nil)
	if err != nil {
		t.Fatalf("create melding: %v", err)
	}
	return f, m.ID, questionIDs
}

func rawJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

func TestSubmitAnswerShapes(t *testing.T) {
	f, meldingID, questions := answerFixture(t)
	ctx := context.Background()

	// Text answer on a text leaf.
	if _, err := f.answer.Submit(ctx, meldingID, questions["toelichting"], rawJSON(t, map[string]string{"text": "een oude bank"})); err != nil {
		t.Fatalf("text answer: %v", err)
	}
	// Pair answer on a text leaf is a shape violation.
	if _, err := f.answer.Submit(ctx, meldingID, questions["toelichting"], rawJSON(t, map[string]string{"value": "meubels", "label": "Meubels"})); !errors.Is(err, schema.ErrInvalidAnswerShape) {
		t.Fatalf("err = %v, want ErrInvalidAnswerShape", err)
	}
	// Unknown fields are rejected outright.
	if _, err := f.answer.Submit(ctx, meldingID, questions["toelichting"], []byte(`{"tekst": "fout veld"}`)); !errors.Is(err, schema.ErrInvalidAnswerShape) {
		t.Fatalf("err = %v, want ErrInvalidAnswerShape", err)
	}

	// Radio takes an exact stored pair.
	if _, err := f.answer.Submit(ctx, meldingID, questions["soort"], rawJSON(t, map[string]string{"value": "meubels", "label": "Meubels"})); err != nil {
		t.Fatalf("radio answer: %v", err)
	}
	// A value and label that both exist but do not belong together fail.
	if _, err := f.answer.Submit(ctx, meldingID, questions["soort"], rawJSON(t, map[string]string{"value": "meubels", "label": "Overig"})); !errors.Is(err, rules.ErrPredicateNotSatisfied) {
		t.Fatalf("err = %v, want ErrPredicateNotSatisfied for mismatched pair", err)
	}

	// Select matches against data.values.
	if _, err := f.answer.Submit(ctx, meldingID, questions["frequentie"], rawJSON(t, map[string]string{"value": "wekelijks", "label": "Elke week"})); err != nil {
		t.Fatalf("select answer: %v", err)
	}
}

func TestSubmitAnswerPredicate(t *testing.T) {
	f, meldingID, questions := answerFixture(t)
	ctx := context.Background()

	_, err := f.answer.Submit(ctx, meldingID, questions["toelichting"], rawJSON(t, map[string]string{"text": "kort"}))
	if !errors.Is(err, rules.ErrPredicateNotSatisfied) {
		t.Fatalf("err = %v, want ErrPredicateNotSatisfied", err)
	}
	var pe *rules.PredicateError
	if !errors.As(err, &pe) || pe.Message != "Geef wat meer detail." {
		t.Fatalf("predicate message missing from %v", err)
	}

	if _, err := f.answer.Submit(ctx, meldingID, questions["toelichting"], rawJSON(t, map[string]string{"text": "lang genoeg"})); err != nil {
		t.Fatalf("passing answer rejected: %v", err)
	}
}

func TestSubmitAnswerForeignQuestion(t *testing.T) {
	f, meldingID, _ := answerFixture(t)
	ctx := context.Background()

	// A question from another classification's form is not reachable.
	other, err := f.cls.Create(ctx, "straatverlichting", nil)
	if err != nil {
		t.Fatalf("create classification: %v", err)
	}
	foreignQuestion := f.followupForm(t, ctx, other.ID, false)

	if _, err := f.answer.Submit(ctx, meldingID, foreignQuestion, rawJSON(t, map[string]string{"text": "hoort hier niet"})); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := f.answer.Submit(ctx, meldingID, uuid.New(), rawJSON(t, map[string]string{"text": "bestaat niet"})); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for unknown question", err)
	}
}

func TestSubmitAnswerAfterSubmitRefused(t *testing.T) {
	f, meldingID, questions := answerFixture(t)
	ctx := context.Background()

	if err := f.repos.melding.UpdateFields(ctx, nil, meldingID, map[string]interface{}{"state": "submitted"}); err != nil {
		t.Fatalf("force state: %v", err)
	}
	if _, err := f.answer.Submit(ctx, meldingID, questions["toelichting"], rawJSON(t, map[string]string{"text": "te laat"})); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}
