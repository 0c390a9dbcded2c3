package schema

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/rules"
)

func strPtr(s string) *string { return &s }

func textComponent(validate string) *domain.FormComponent {
	c := &domain.FormComponent{ID: uuid.New(), Key: "toelichting", Type: TypeTextArea}
	if validate != "" {
		c.Validate = datatypes.JSON(validate)
	}
	return c
}

func radioComponent() *domain.FormComponent {
	return &domain.FormComponent{
		ID:      uuid.New(),
		Key:     "herhaling",
		Type:    TypeRadio,
		Options: datatypes.JSON(`[{"value":"yes","label":"Ja"},{"value":"no","label":"Nee"}]`),
	}
}

func selectComponent() *domain.FormComponent {
	return &domain.FormComponent{
		ID:   uuid.New(),
		Key:  "soort",
		Type: TypeSelect,
		Data: datatypes.JSON(`{"values":[{"value":"rest","label":"Restafval"},{"value":"gft","label":"GFT"}]}`),
	}
}

func TestValidateTextAnswer(t *testing.T) {
	plain := textComponent("")
	if err := ValidateAnswer(plain, AnswerPayload{Text: strPtr("anything")}); err != nil {
		t.Fatalf("text without predicate: %v", err)
	}

	guarded := textComponent(`{"if":[{"==":[{"var":"text"},"Water"]},true,"You must type 'Water'!"]}`)
	if err := ValidateAnswer(guarded, AnswerPayload{Text: strPtr("Water")}); err != nil {
		t.Fatalf("text satisfying predicate: %v", err)
	}
	err := ValidateAnswer(guarded, AnswerPayload{Text: strPtr("Fire")})
	var pe *rules.PredicateError
	if !errors.As(err, &pe) || pe.Message != "You must type 'Water'!" {
		t.Fatalf("text failing predicate: got %v", err)
	}
}

func TestValidateAnswerShapeMismatch(t *testing.T) {
	// Shape failures beat content checks, whatever the payload contains.
	cases := []struct {
		name      string
		component *domain.FormComponent
		payload   AnswerPayload
	}{
		{"text to radio", radioComponent(), AnswerPayload{Text: strPtr("yes")}},
		{"pair to textarea", textComponent(""), AnswerPayload{Value: strPtr("x"), Label: strPtr("y")}},
		{"value without label", radioComponent(), AnswerPayload{Value: strPtr("yes")}},
		{"pair to select missing label", selectComponent(), AnswerPayload{Value: strPtr("rest")}},
		{"panel", &domain.FormComponent{Type: TypePanel}, AnswerPayload{Text: strPtr("x")}},
	}
	for _, tc := range cases {
		if err := ValidateAnswer(tc.component, tc.payload); !errors.Is(err, ErrInvalidAnswerShape) {
			t.Fatalf("%s: got %v, want ErrInvalidAnswerShape", tc.name, err)
		}
	}
}

func TestValidateRadioAnswer(t *testing.T) {
	comp := radioComponent()

	if err := ValidateAnswer(comp, AnswerPayload{Value: strPtr("yes"), Label: strPtr("Ja")}); err != nil {
		t.Fatalf("matching pair: %v", err)
	}

	// Both halves exist among the options, but not as a pair.
	err := ValidateAnswer(comp, AnswerPayload{Value: strPtr("yes"), Label: strPtr("Nee")})
	if !errors.Is(err, rules.ErrPredicateNotSatisfied) {
		t.Fatalf("mismatched pair: got %v", err)
	}

	err = ValidateAnswer(comp, AnswerPayload{Value: strPtr("maybe"), Label: strPtr("Misschien")})
	if !errors.Is(err, rules.ErrPredicateNotSatisfied) {
		t.Fatalf("unknown option: got %v", err)
	}
}

func TestValidateSelectAnswer(t *testing.T) {
	comp := selectComponent()
	if err := ValidateAnswer(comp, AnswerPayload{Value: strPtr("gft"), Label: strPtr("GFT")}); err != nil {
		t.Fatalf("matching pair: %v", err)
	}
	if err := ValidateAnswer(comp, AnswerPayload{Value: strPtr("gft"), Label: strPtr("Restafval")}); !errors.Is(err, rules.ErrPredicateNotSatisfied) {
		t.Fatalf("mismatched pair: got %v", err)
	}
}

func TestParseAnswerPayload(t *testing.T) {
	p, err := ParseAnswerPayload([]byte(`{"text":"hello"}`))
	if err != nil || p.Text == nil || *p.Text != "hello" {
		t.Fatalf("parse text payload: p=%+v err=%v", p, err)
	}
	if _, err := ParseAnswerPayload([]byte(`{"text":"x","extra":1}`)); !errors.Is(err, ErrInvalidAnswerShape) {
		t.Fatalf("unknown field: got %v", err)
	}
	if _, err := ParseAnswerPayload([]byte(`not json`)); !errors.Is(err, ErrInvalidAnswerShape) {
		t.Fatalf("bad json: got %v", err)
	}
}

func TestValidateTree(t *testing.T) {
	good := []ComponentInput{
		{Key: "info", Type: TypePanel, Components: []ComponentInput{
			{Key: "toelichting", Type: TypeTextArea, Label: "Toelichting"},
			{Key: "herhaling", Type: TypeRadio, Options: []Option{{Value: "yes", Label: "Ja"}}},
		}},
		{Key: "soort", Type: TypeSelect, Data: &SelectData{Values: []Option{{Value: "rest", Label: "Restafval"}}}},
	}
	if err := ValidateTree(good); err != nil {
		t.Fatalf("valid tree: %v", err)
	}

	bad := []struct {
		name   string
		inputs []ComponentInput
	}{
		{"nested panel", []ComponentInput{{Key: "a", Type: TypePanel, Components: []ComponentInput{{Key: "b", Type: TypePanel}}}}},
		{"duplicate key", []ComponentInput{{Key: "a", Type: TypeTextField}, {Key: "a", Type: TypeTextArea}}},
		{"unknown type", []ComponentInput{{Key: "a", Type: "wizard"}}},
		{"radio without options", []ComponentInput{{Key: "a", Type: TypeRadio}}},
		{"select without data", []ComponentInput{{Key: "a", Type: TypeSelect}}},
		{"leaf with children", []ComponentInput{{Key: "a", Type: TypeTextField, Components: []ComponentInput{{Key: "b", Type: TypeTextArea}}}}},
	}
	for _, tc := range bad {
		if err := ValidateTree(tc.inputs); !errors.Is(err, ErrInvalidTree) {
			t.Fatalf("%s: got %v, want ErrInvalidTree", tc.name, err)
		}
	}
}
