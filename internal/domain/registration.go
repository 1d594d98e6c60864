package domain

import "time"

type RegistrationStatus string

const (
	StatusPending   RegistrationStatus = "PENDING"
	StatusSubmitted RegistrationStatus = "SUBMITTED"
)

// Registration is one user's intent to attend one event through one form.
// There is at most one per (event, user) pair and it is never hard-deleted:
// cancelling flips it back to pending.
type Registration struct {
	ID              uint          `json:"id"`
	EventID         uint          `json:"event_id"`
	UserID          uint          `json:"user_id"`
	Username        string        `json:"username"`
	FormID          uint          `json:"form_id"`
	FormSubmitted   bool          `json:"form_submitted"`
	StatusUpdatedAt time.Time     `json:"status_updated_at"`
	Response        *FormResponse `json:"response,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (r Registration) Status() RegistrationStatus {
	if r.FormSubmitted {
		return StatusSubmitted
	}

	return StatusPending
}

// FormResponse is the answers envelope for one registration.
type FormResponse struct {
	ID             uint                `json:"id"`
	FormID         uint                `json:"form_id"`
	ParticipantID  uint                `json:"participant_id"`
	Deleted        bool                `json:"deleted"`
	SubmittedAt    time.Time           `json:"submitted_at"`
	FieldResponses []FormFieldResponse `json:"field_responses,omitempty"`
}

type AnswerState string

const (
	AnswerActive     AnswerState = "ACTIVE"
	AnswerTombstoned AnswerState = "TOMBSTONED"
)

// FormFieldResponse is one answer to one field. The (response, field) pair is
// unique for its lifetime: answering the same field again revives the existing
// row instead of creating a second one.
type FormFieldResponse struct {
	ID         uint        `json:"id"`
	ResponseID uint        `json:"response_id"`
	FieldID    uint        `json:"field_id"`
	FieldLabel string      `json:"field_label"`
	Value      string      `json:"value"`
	State      AnswerState `json:"state"`
}

func (r FormFieldResponse) Active() bool {
	return r.State == AnswerActive
}

// FieldAnswer is one (field, value) pair supplied by a caller.
type FieldAnswer struct {
	FieldID uint   `json:"field_id"`
	Value   string `json:"value"`
}

// RegistrationView is the normalized read model returned by every
// registration operation.
type RegistrationView struct {
	RegistrationID uint               `json:"registration_id"`
	Username       string             `json:"username"`
	EventID        uint               `json:"event_id"`
	FormID         uint               `json:"form_id"`
	UserID         uint               `json:"user_id"`
	Status         RegistrationStatus `json:"status"`
	SubmittedAt    time.Time          `json:"submitted_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	Answers        []AnswerView       `json:"answers"`
}

type AnswerView struct {
	FieldID    uint   `json:"field_id"`
	FieldLabel string `json:"field_label"`
	Value      string `json:"value"`
}

// View builds the normalized registration view. Tombstoned answers are
// excluded.
func (r Registration) View() RegistrationView {
	view := RegistrationView{
		RegistrationID: r.ID,
		Username:       r.Username,
		EventID:        r.EventID,
		FormID:         r.FormID,
		UserID:         r.UserID,
		Status:         r.Status(),
		UpdatedAt:      r.StatusUpdatedAt,
		Answers:        []AnswerView{},
	}

	if r.Response == nil {
		return view
	}

	view.SubmittedAt = r.Response.SubmittedAt
	for _, answer := range r.Response.FieldResponses {
		if !answer.Active() {
			continue
		}

		view.Answers = append(view.Answers, AnswerView{
			FieldID:    answer.FieldID,
			FieldLabel: answer.FieldLabel,
			Value:      answer.Value,
		})
	}

	return view
}
