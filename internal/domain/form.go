package domain

import (
	"strings"
	"time"
)

type FieldType string

const (
	FieldTypeText     FieldType = "TEXT"
	FieldTypeTextarea FieldType = "TEXTAREA"
	FieldTypeEmail    FieldType = "EMAIL"
	FieldTypeNumber   FieldType = "NUMBER"
	FieldTypePhone    FieldType = "PHONE"
	FieldTypeDate     FieldType = "DATE"
	FieldTypeDropdown FieldType = "DROPDOWN"
	FieldTypeRadio    FieldType = "RADIO"
	FieldTypeCheckbox FieldType = "CHECKBOX"
)

type RegistrationForm struct {
	ID           uint        `json:"id"`
	EventID      uint        `json:"event_id"`
	Title        string      `json:"title"`
	IsActive     bool        `json:"is_active"`
	Deadline     *time.Time  `json:"deadline,omitempty"`
	MaxResponses *int        `json:"max_responses,omitempty"`
	LimitReached bool        `json:"limit_reached"`
	Fields       []FormField `json:"fields,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (f RegistrationForm) DeadlinePassed(now time.Time) bool {
	return f.Deadline != nil && f.Deadline.Before(now)
}

// ResponseLimit returns the form capacity. ok is false when the form
// is unlimited (nil or non-positive max).
func (f RegistrationForm) ResponseLimit() (limit int, ok bool) {
	if f.MaxResponses == nil || *f.MaxResponses <= 0 {
		return 0, false
	}

	return *f.MaxResponses, true
}

// FieldByID looks a field up in the form's schema, deleted fields included.
func (f RegistrationForm) FieldByID(fieldID uint) (FormField, bool) {
	for _, field := range f.Fields {
		if field.ID == fieldID {
			return field, true
		}
	}

	return FormField{}, false
}

// ActiveFields returns the schema without soft-deleted fields.
func (f RegistrationForm) ActiveFields() []FormField {
	fields := make([]FormField, 0, len(f.Fields))
	for _, field := range f.Fields {
		if !field.Deleted {
			fields = append(fields, field)
		}
	}

	return fields
}

type FormField struct {
	ID        uint      `json:"id"`
	FormID    uint      `json:"form_id"`
	Label     string    `json:"label"`
	Type      FieldType `json:"type"`
	Required  bool      `json:"required"`
	Options   string    `json:"options,omitempty"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var optionsCleaner = strings.NewReplacer("[", "", "]", "", `"`, "")

// AllowedOptions parses the delimited options string into the set of
// accepted values for choice fields. Brackets and quotes are stripped,
// entries are trimmed and empties dropped.
func (f FormField) AllowedOptions() []string {
	if f.Options == "" {
		return nil
	}

	parts := strings.Split(optionsCleaner.Replace(f.Options), ",")
	options := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			options = append(options, trimmed)
		}
	}

	return options
}

func (f FormField) IsChoice() bool {
	switch f.Type {
	case FieldTypeDropdown, FieldTypeRadio, FieldTypeCheckbox:
		return true
	default:
		return false
	}
}
