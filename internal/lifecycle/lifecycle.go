// Package lifecycle holds the guarded state machine governing a melding.
// The transition table is closed: a transition name maps to exactly one
// destination state and one guard, and callers can never reorder it.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Amsterdam/meldingen-sub000/internal/domain"
)

var (
	// ErrInvalidTransition is returned when the requested transition is not
	// defined for the melding's current state or its guard does not hold.
	// The stored state is left untouched.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrStaffOnly is returned when a melder token tries a staff transition.
	ErrStaffOnly = errors.New("transition requires staff authentication")

	// ErrLocationModeUnset marks a schema misconfiguration: the melding's
	// classification binds no asset type, yet no location was ever recorded,
	// so neither "where" entry mode applies. Surfaced as a server-side
	// configuration error rather than a guard failure.
	ErrLocationModeUnset = errors.New("neither location nor asset selection applies")
)

const (
	TransitionClassify        = "classify"
	TransitionAnswerQuestions = "answer_questions"
	TransitionAddAttachments  = "add_attachments"
	TransitionSubmitLocation  = "submit_location"
	TransitionAddContactInfo  = "add_contact_info"
	TransitionSubmit          = "submit"
	TransitionProcess         = "process"
	TransitionComplete        = "complete"
)

// GuardInput is the snapshot a guard evaluates against. The caller loads it
// inside the same transaction that commits the state change.
type GuardInput struct {
	ClassificationSet bool

	// RequiredQuestionIDs are the required questions of the melding's
	// current schema; AnsweredQuestionIDs holds the questions with a latest
	// answer.
	RequiredQuestionIDs []uuid.UUID
	AnsweredQuestionIDs map[uuid.UUID]bool

	HasLocation bool
	AssetTypeID *uuid.UUID
	AssetCount  int
}

// Transition is one row of the closed table.
type Transition struct {
	Name  string
	From  []domain.MeldingState
	To    domain.MeldingState
	Staff bool
	Guard func(GuardInput) error
}

// Allows reports whether the transition is defined for the given state.
func (t Transition) Allows(from domain.MeldingState) bool {
	for _, s := range t.From {
		if s == from {
			return true
		}
	}
	return false
}

// Transitions is the full table, in lifecycle order.
var Transitions = []Transition{
	{
		Name:  TransitionClassify,
		From:  []domain.MeldingState{domain.StateNew},
		To:    domain.StateClassified,
		Staff: true,
		Guard: guardClassified,
	},
	{
		Name:  TransitionAnswerQuestions,
		From:  []domain.MeldingState{domain.StateClassified},
		To:    domain.StateQuestionsAnswered,
		Guard: guardRequiredQuestionsAnswered,
	},
	{
		Name: TransitionAddAttachments,
		From: []domain.MeldingState{domain.StateQuestionsAnswered},
		To:   domain.StateAttachmentsAdded,
	},
	{
		Name:  TransitionSubmitLocation,
		From:  []domain.MeldingState{domain.StateAttachmentsAdded},
		To:    domain.StateLocationSubmitted,
		Guard: guardLocationOrAssets,
	},
	{
		Name: TransitionAddContactInfo,
		From: []domain.MeldingState{domain.StateLocationSubmitted},
		To:   domain.StateContactInfoAdded,
	},
	{
		Name: TransitionSubmit,
		From: []domain.MeldingState{domain.StateContactInfoAdded},
		To:   domain.StateSubmitted,
	},
	{
		Name:  TransitionProcess,
		From:  []domain.MeldingState{domain.StateSubmitted},
		To:    domain.StateProcessing,
		Staff: true,
	},
	{
		Name:  TransitionComplete,
		From:  []domain.MeldingState{domain.StateProcessing},
		To:    domain.StateCompleted,
		Staff: true,
	},
}

// Resolve looks a transition up by name. Unknown names report as invalid
// transitions to the caller.
func Resolve(name string) (Transition, error) {
	for _, t := range Transitions {
		if t.Name == name {
			return t, nil
		}
	}
	return Transition{}, fmt.Errorf("%w: unknown transition %q", ErrInvalidTransition, name)
}

// Apply checks the transition against the current state, the actor and the
// guard snapshot, and returns the destination state.
func Apply(t Transition, current domain.MeldingState, staff bool, in GuardInput) (domain.MeldingState, error) {
	if t.Staff && !staff {
		return "", ErrStaffOnly
	}
	if !t.Allows(current) {
		return "", fmt.Errorf("%w: %q not allowed from state %q", ErrInvalidTransition, t.Name, current)
	}
	if t.Guard != nil {
		if err := t.Guard(in); err != nil {
			return "", err
		}
	}
	return t.To, nil
}

func guardClassified(in GuardInput) error {
	if !in.ClassificationSet {
		return fmt.Errorf("%w: classification not resolved", ErrInvalidTransition)
	}
	return nil
}

func guardRequiredQuestionsAnswered(in GuardInput) error {
	for _, id := range in.RequiredQuestionIDs {
		if !in.AnsweredQuestionIDs[id] {
			return fmt.Errorf("%w: required question %s has no answer", ErrInvalidTransition, id)
		}
	}
	return nil
}

// guardLocationOrAssets enforces that the "where" step was completed in the
// entry mode the classification dictates. Location and asset selection are
// mutually exclusive.
func guardLocationOrAssets(in GuardInput) error {
	if in.AssetTypeID != nil {
		if in.AssetCount == 0 {
			return fmt.Errorf("%w: classification requires asset selection and no asset is attached", ErrInvalidTransition)
		}
		return nil
	}
	if !in.HasLocation {
		return ErrLocationModeUnset
	}
	return nil
}
