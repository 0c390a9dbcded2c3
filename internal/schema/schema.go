// Package schema defines the dynamic form schema: the recursive component
// input used to (re)build a form's tree, and the polymorphic validation of
// submitted answers against a schema leaf.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Component type discriminants. The set is closed; answer validation
// dispatches on it exhaustively.
const (
	TypePanel     = "panel"
	TypeTextArea  = "textarea"
	TypeTextField = "textfield"
	TypeRadio     = "radio"
	TypeCheckbox  = "checkbox"
	TypeSelect    = "select"
)

// Answerable reports whether a component type carries a question.
func Answerable(componentType string) bool {
	switch componentType {
	case TypeTextArea, TypeTextField, TypeRadio, TypeCheckbox, TypeSelect:
		return true
	default:
		return false
	}
}

func KnownType(componentType string) bool {
	return componentType == TypePanel || Answerable(componentType)
}

// Option is one (value, label) pair of a radio/checkbox/select leaf.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// SelectData is the nested option container of a select leaf.
type SelectData struct {
	Values []Option `json:"values" yaml:"values"`
}

// ComponentInput is the recursive build input for a form tree. List order
// defines sibling position; Components is populated only for panels and may
// not contain further panels.
type ComponentInput struct {
	Key         string           `json:"key" yaml:"key"`
	Type        string           `json:"type" yaml:"type"`
	Label       string           `json:"label" yaml:"label"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool             `json:"required,omitempty" yaml:"required,omitempty"`
	Validate    json.RawMessage  `json:"validate,omitempty" yaml:"-"`
	Options     []Option         `json:"options,omitempty" yaml:"options,omitempty"`
	Data        *SelectData      `json:"data,omitempty" yaml:"data,omitempty"`
	Components  []ComponentInput `json:"components,omitempty" yaml:"components,omitempty"`
}

// ErrInvalidTree marks a build input that violates the schema shape rules.
var ErrInvalidTree = errors.New("invalid schema tree")

// ValidateTree checks a build input before any row is written: known types,
// panels only one level deep, unique keys, and option containers present for
// the option-backed leaf types.
func ValidateTree(inputs []ComponentInput) error {
	seen := make(map[string]bool)
	return validateLevel(inputs, false, seen)
}

func validateLevel(inputs []ComponentInput, insidePanel bool, seen map[string]bool) error {
	for _, in := range inputs {
		if in.Key == "" {
			return fmt.Errorf("%w: component without key", ErrInvalidTree)
		}
		if seen[in.Key] {
			return fmt.Errorf("%w: duplicate component key %q", ErrInvalidTree, in.Key)
		}
		seen[in.Key] = true

		if !KnownType(in.Type) {
			return fmt.Errorf("%w: component %q has unknown type %q", ErrInvalidTree, in.Key, in.Type)
		}

		switch in.Type {
		case TypePanel:
			if insidePanel {
				return fmt.Errorf("%w: panel %q nested inside a panel", ErrInvalidTree, in.Key)
			}
			if err := validateLevel(in.Components, true, seen); err != nil {
				return err
			}
		case TypeRadio, TypeCheckbox:
			if len(in.Options) == 0 {
				return fmt.Errorf("%w: component %q (%s) has no options", ErrInvalidTree, in.Key, in.Type)
			}
		case TypeSelect:
			if in.Data == nil || len(in.Data.Values) == 0 {
				return fmt.Errorf("%w: component %q (select) has no data.values", ErrInvalidTree, in.Key)
			}
		}
		if in.Type != TypePanel && len(in.Components) > 0 {
			return fmt.Errorf("%w: component %q (%s) may not have children", ErrInvalidTree, in.Key, in.Type)
		}
	}
	return nil
}
