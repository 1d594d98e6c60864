package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

type CreateEventRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	StartDate       string `json:"start_date" format:"RFC3339"`
	MaxParticipants *int   `json:"max_participants,omitempty"`
}

func (req *CreateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Description, validation.Length(0, 500)),
		validation.Field(&req.Location, validation.Length(0, 100)),
		validation.Field(&req.StartDate, validation.Required, validation.By(validRFC3339)),
	)
}

type CreateFormRequest struct {
	Title        string  `json:"title"`
	IsActive     *bool   `json:"is_active,omitempty"`
	Deadline     *string `json:"deadline,omitempty" format:"RFC3339"`
	MaxResponses *int    `json:"max_responses,omitempty"`
}

func (req *CreateFormRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Deadline, validation.By(validOptionalRFC3339)),
	)
}

type CreateFieldRequest struct {
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Options  string `json:"options,omitempty"`
}

func (req *CreateFieldRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Label, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Type, validation.Required, validation.In(
			"TEXT", "TEXTAREA", "EMAIL", "NUMBER", "PHONE", "DATE", "DROPDOWN", "RADIO", "CHECKBOX",
		)),
	)
}

func validRFC3339(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	_, err := time.Parse(time.RFC3339, s)

	return err
}

func validOptionalRFC3339(value interface{}) error {
	s, ok := value.(*string)
	if !ok || s == nil {
		return nil
	}

	_, err := time.Parse(time.RFC3339, *s)

	return err
}
