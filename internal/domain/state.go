package domain

// MeldingState is the lifecycle state of a melding. The set is closed; the
// transition table lives in internal/lifecycle.
type MeldingState string

const (
	StateNew               MeldingState = "new"
	StateClassified        MeldingState = "classified"
	StateQuestionsAnswered MeldingState = "questions_answered"
	StateAttachmentsAdded  MeldingState = "attachments_added"
	StateLocationSubmitted MeldingState = "location_submitted"
	StateContactInfoAdded  MeldingState = "contact_info_added"
	StateSubmitted         MeldingState = "submitted"
	StateProcessing        MeldingState = "processing"
	StateCompleted         MeldingState = "completed"
)

// AllStates lists every valid state, in lifecycle order.
var AllStates = []MeldingState{
	StateNew,
	StateClassified,
	StateQuestionsAnswered,
	StateAttachmentsAdded,
	StateLocationSubmitted,
	StateContactInfoAdded,
	StateSubmitted,
	StateProcessing,
	StateCompleted,
}

func (s MeldingState) Valid() bool {
	for _, st := range AllStates {
		if s == st {
			return true
		}
	}
	return false
}

// Draft reports whether the melding is still editable by the anonymous
// melder. From submitted onward only staff may touch the record.
func (s MeldingState) Draft() bool {
	switch s {
	case StateSubmitted, StateProcessing, StateCompleted:
		return false
	default:
		return true
	}
}
