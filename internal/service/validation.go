package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/educonnect/educonnect-api/internal/domain"
)

// Validation failure reasons carried by ValidationError.
const (
	ReasonMissingRequired = "MissingRequiredField"
	ReasonInvalidFormat   = "InvalidFormat"
	ReasonInvalidOption   = "InvalidOption"
	ReasonUnknownField    = "UnknownField"
)

// ValidationError reports a single bad answer: which field and why.
type ValidationError struct {
	FieldID    uint
	FieldLabel string
	Reason     string
}

func (e *ValidationError) Error() string {
	if e.FieldLabel != "" {
		return fmt.Sprintf("field %q: %s", e.FieldLabel, e.Reason)
	}

	return fmt.Sprintf("field %d: %s", e.FieldID, e.Reason)
}

var emailPattern = regexp2.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`, regexp2.None)

// fieldRules dispatches per-type value checks. Types without an entry only
// get the required/presence check.
var fieldRules = map[domain.FieldType]func(field domain.FormField, value string) *ValidationError{
	domain.FieldTypeEmail:    ruleEmail,
	domain.FieldTypeNumber:   ruleNumber,
	domain.FieldTypeDropdown: ruleOption,
	domain.FieldTypeRadio:    ruleOption,
	domain.FieldTypeCheckbox: ruleOption,
}

// ValidateAnswer checks one raw value against one field's declared type and
// constraints. Deleted fields are never validated. Pure; no side effects.
func ValidateAnswer(field domain.FormField, value string) error {
	if field.Deleted {
		return nil
	}

	value = strings.TrimSpace(value)
	if value == "" {
		if field.Required {
			return &ValidationError{FieldID: field.ID, FieldLabel: field.Label, Reason: ReasonMissingRequired}
		}

		return nil
	}

	if rule, ok := fieldRules[field.Type]; ok {
		if verr := rule(field, value); verr != nil {
			return verr
		}
	}

	return nil
}

// ValidateAnswers runs the full two-pass submission check: every supplied
// answer is validated individually against its field, then the form's
// required, non-deleted fields are cross-checked against the supplied set. An
// answer for an unknown field fails; a required field with no (non-empty)
// answer fails even when every supplied answer is valid.
func ValidateAnswers(form domain.RegistrationForm, answers []domain.FieldAnswer) error {
	supplied := make(map[uint]string, len(answers))

	for _, answer := range answers {
		field, ok := form.FieldByID(answer.FieldID)
		if !ok {
			return &ValidationError{FieldID: answer.FieldID, Reason: ReasonUnknownField}
		}

		if field.Deleted {
			continue
		}

		if err := ValidateAnswer(field, answer.Value); err != nil {
			return err
		}

		supplied[answer.FieldID] = strings.TrimSpace(answer.Value)
	}

	for _, field := range form.ActiveFields() {
		if !field.Required {
			continue
		}

		if supplied[field.ID] == "" {
			return &ValidationError{FieldID: field.ID, FieldLabel: field.Label, Reason: ReasonMissingRequired}
		}
	}

	return nil
}

func ruleEmail(field domain.FormField, value string) *ValidationError {
	match, err := emailPattern.MatchString(value)
	if err != nil || !match {
		return &ValidationError{FieldID: field.ID, FieldLabel: field.Label, Reason: ReasonInvalidFormat}
	}

	return nil
}

func ruleNumber(field domain.FormField, value string) *ValidationError {
	if _, err := strconv.ParseInt(value, 10, 64); err != nil {
		return &ValidationError{FieldID: field.ID, FieldLabel: field.Label, Reason: ReasonInvalidFormat}
	}

	return nil
}

func ruleOption(field domain.FormField, value string) *ValidationError {
	options := field.AllowedOptions()
	if options == nil {
		return nil
	}

	for _, option := range options {
		if option == value {
			return nil
		}
	}

	return &ValidationError{FieldID: field.ID, FieldLabel: field.Label, Reason: ReasonInvalidOption}
}
