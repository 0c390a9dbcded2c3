package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/rules"
)

// ErrInvalidAnswerShape marks a payload whose shape does not match the
// component type. Shape is checked before any content rule.
var ErrInvalidAnswerShape = errors.New("answer shape does not match component type")

// AnswerPayload is the submitted answer: either free text, or a (value,
// label) pair, depending on the component type.
type AnswerPayload struct {
	Text  *string `json:"text,omitempty"`
	Value *string `json:"value,omitempty"`
	Label *string `json:"label,omitempty"`
}

// ParseAnswerPayload decodes a raw payload strictly, so stray fields surface
// as shape errors instead of being dropped.
func ParseAnswerPayload(raw []byte) (AnswerPayload, error) {
	var p AnswerPayload
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return AnswerPayload{}, fmt.Errorf("%w: %v", ErrInvalidAnswerShape, err)
	}
	return p, nil
}

// ValidateAnswer dispatches on the component's type discriminant. Text goes
// through the rule evaluator when the leaf carries a predicate; option-backed
// types require an exact (value, label) pair among the stored options. A
// mismatched pair is rejected even when value and label each exist on their
// own.
func ValidateAnswer(component *domain.FormComponent, payload AnswerPayload) error {
	switch component.Type {
	case TypeTextArea, TypeTextField:
		if payload.Text == nil || payload.Value != nil || payload.Label != nil {
			return fmt.Errorf("%w: %s expects {\"text\": ...}", ErrInvalidAnswerShape, component.Type)
		}
		if len(component.Validate) == 0 {
			return nil
		}
		return rules.Check(component.Validate, map[string]any{"text": *payload.Text})

	case TypeRadio, TypeCheckbox:
		if err := requirePair(payload, component.Type); err != nil {
			return err
		}
		var options []Option
		if err := json.Unmarshal(component.Options, &options); err != nil {
			return fmt.Errorf("%w: component %q options malformed: %v", rules.ErrInvalidExpression, component.Key, err)
		}
		return matchOption(options, payload)

	case TypeSelect:
		if err := requirePair(payload, component.Type); err != nil {
			return err
		}
		var data SelectData
		if err := json.Unmarshal(component.Data, &data); err != nil {
			return fmt.Errorf("%w: component %q data malformed: %v", rules.ErrInvalidExpression, component.Key, err)
		}
		return matchOption(data.Values, payload)

	case TypePanel:
		return fmt.Errorf("%w: panels are not answerable", ErrInvalidAnswerShape)

	default:
		return fmt.Errorf("%w: component %q has unknown type %q", rules.ErrInvalidExpression, component.Key, component.Type)
	}
}

func requirePair(payload AnswerPayload, componentType string) error {
	if payload.Value == nil || payload.Label == nil || payload.Text != nil {
		return fmt.Errorf("%w: %s expects {\"value\": ..., \"label\": ...}", ErrInvalidAnswerShape, componentType)
	}
	return nil
}

func matchOption(options []Option, payload AnswerPayload) error {
	for _, opt := range options {
		if opt.Value == *payload.Value && opt.Label == *payload.Label {
			return nil
		}
	}
	return &rules.PredicateError{Message: "submitted option is not one of the component's options"}
}
