package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanAnswers(t *testing.T) {
	existing := []FormFieldResponse{
		{ID: 1, ResponseID: 10, FieldID: 100, Value: "old name", State: AnswerActive},
		{ID: 2, ResponseID: 10, FieldID: 101, Value: "old@mail.com", State: AnswerTombstoned},
	}

	tests := []struct {
		name       string
		incoming   []FieldAnswer
		wantCreate []FieldAnswer
		wantRevive []FormFieldResponse
	}{
		{
			name:     "new field gets a create, existing row is overwritten",
			incoming: []FieldAnswer{{FieldID: 100, Value: "new name"}, {FieldID: 102, Value: "42"}},
			wantCreate: []FieldAnswer{
				{FieldID: 102, Value: "42"},
			},
			wantRevive: []FormFieldResponse{
				{ID: 1, ResponseID: 10, FieldID: 100, Value: "new name", State: AnswerActive},
			},
		},
		{
			name:     "tombstoned row is revived, not duplicated",
			incoming: []FieldAnswer{{FieldID: 101, Value: "new@mail.com"}},
			wantRevive: []FormFieldResponse{
				{ID: 2, ResponseID: 10, FieldID: 101, Value: "new@mail.com", State: AnswerActive},
			},
		},
		{
			name:     "rows for fields absent from the incoming set are untouched",
			incoming: []FieldAnswer{},
		},
		{
			name:       "no existing rows means everything is created",
			incoming:   []FieldAnswer{{FieldID: 103, Value: "x"}},
			wantCreate: []FieldAnswer{{FieldID: 103, Value: "x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanAnswers(existing, tt.incoming)

			assert.Equal(t, tt.wantCreate, plan.Create)
			assert.Equal(t, tt.wantRevive, plan.Revive)
		})
	}
}

func TestTombstoneAnswers(t *testing.T) {
	rows := []FormFieldResponse{
		{ID: 1, FieldID: 100, Value: "keep me", State: AnswerActive},
		{ID: 2, FieldID: 101, Value: "already gone", State: AnswerTombstoned},
		{ID: 3, FieldID: 102, Value: "me too", State: AnswerActive},
	}

	tombstoned := TombstoneAnswers(rows)

	require.Len(t, tombstoned, 2)
	assert.Equal(t, uint(1), tombstoned[0].ID)
	assert.Equal(t, uint(3), tombstoned[1].ID)
	for _, row := range tombstoned {
		assert.Equal(t, AnswerTombstoned, row.State)
	}
	// Values survive the tombstone.
	assert.Equal(t, "keep me", tombstoned[0].Value)
}

func TestAllowedOptions(t *testing.T) {
	tests := []struct {
		name    string
		options string
		want    []string
	}{
		{
			name:    "empty string means unconstrained",
			options: "",
			want:    nil,
		},
		{
			name:    "plain comma separated",
			options: "Small,Medium,Large",
			want:    []string{"Small", "Medium", "Large"},
		},
		{
			name:    "json array leftovers are stripped",
			options: `["Small", "Medium", "Large"]`,
			want:    []string{"Small", "Medium", "Large"},
		},
		{
			name:    "whitespace trimmed, empties dropped",
			options: " Small , ,Large,",
			want:    []string{"Small", "Large"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := FormField{Options: tt.options}

			assert.Equal(t, tt.want, field.AllowedOptions())
		})
	}
}

func TestRegistrationStatus(t *testing.T) {
	assert.Equal(t, StatusPending, Registration{}.Status())
	assert.Equal(t, StatusSubmitted, Registration{FormSubmitted: true}.Status())
}

func TestRegistrationView(t *testing.T) {
	submittedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	updatedAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	reg := Registration{
		ID:              7,
		EventID:         1,
		UserID:          2,
		Username:        "alice",
		FormID:          3,
		FormSubmitted:   true,
		StatusUpdatedAt: updatedAt,
		Response: &FormResponse{
			ID:          20,
			SubmittedAt: submittedAt,
			FieldResponses: []FormFieldResponse{
				{FieldID: 100, FieldLabel: "Name", Value: "Alice", State: AnswerActive},
				{FieldID: 101, FieldLabel: "Shirt", Value: "XL", State: AnswerTombstoned},
			},
		},
	}

	view := reg.View()

	assert.Equal(t, uint(7), view.RegistrationID)
	assert.Equal(t, StatusSubmitted, view.Status)
	assert.Equal(t, submittedAt, view.SubmittedAt)
	assert.Equal(t, updatedAt, view.UpdatedAt)
	// Tombstoned answers never leak into the view.
	require.Len(t, view.Answers, 1)
	assert.Equal(t, AnswerView{FieldID: 100, FieldLabel: "Name", Value: "Alice"}, view.Answers[0])
}

func TestRegistrationViewWithoutResponse(t *testing.T) {
	view := Registration{ID: 7}.View()

	assert.NotNil(t, view.Answers)
	assert.Empty(t, view.Answers)
	assert.True(t, view.SubmittedAt.IsZero())
}

func TestResponseLimit(t *testing.T) {
	limit := 5
	zero := 0

	_, ok := RegistrationForm{}.ResponseLimit()
	assert.False(t, ok)

	_, ok = RegistrationForm{MaxResponses: &zero}.ResponseLimit()
	assert.False(t, ok)

	got, ok := RegistrationForm{MaxResponses: &limit}.ResponseLimit()
	assert.True(t, ok)
	assert.Equal(t, 5, got)
}
