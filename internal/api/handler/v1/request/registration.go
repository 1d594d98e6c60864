package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type FieldAnswerRequest struct {
	FieldID uint   `json:"field_id"`
	Value   string `json:"value"`
}

func (req FieldAnswerRequest) Validate() error {
	return validation.ValidateStruct(
		&req,
		validation.Field(&req.FieldID, validation.Required, validation.Min(uint(1))),
	)
}

type SubmitRegistrationRequest struct {
	Responses []FieldAnswerRequest `json:"responses"`
}

func (req *SubmitRegistrationRequest) Validate() error {
	for _, answer := range req.Responses {
		if err := answer.Validate(); err != nil {
			return err
		}
	}

	return nil
}
