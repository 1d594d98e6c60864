package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/educonnect/educonnect-api/internal/domain"
	"github.com/educonnect/educonnect-api/internal/repository"
)

type fakeEventRepo struct {
	events map[uint]domain.Event
	forms  map[uint]domain.RegistrationForm
}

func (f *fakeEventRepo) FindByID(_ context.Context, id uint) (domain.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}

	return event, nil
}

func (f *fakeEventRepo) FindFormByID(_ context.Context, id uint) (domain.RegistrationForm, error) {
	form, ok := f.forms[id]
	if !ok {
		return domain.RegistrationForm{}, repository.ErrFormNotFound
	}

	return form, nil
}

// fakeRegistrationRepo keeps registrations in memory and mirrors the store's
// lifecycle rules: one registration per (event, user), one answer row per
// (response, field) revived on resubmission, capacity re-checked on submit.
type fakeRegistrationRepo struct {
	registrations map[[2]uint]*domain.Registration
	nextRowID     uint
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{
		registrations: make(map[[2]uint]*domain.Registration),
		nextRowID:     1,
	}
}

func (f *fakeRegistrationRepo) FindByEventAndUser(_ context.Context, eventID, userID uint) (domain.Registration, error) {
	reg, ok := f.registrations[[2]uint{eventID, userID}]
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}

	return *reg, nil
}

func (f *fakeRegistrationRepo) CountSubmittedByEvent(_ context.Context, eventID uint) (int64, error) {
	var count int64
	for _, reg := range f.registrations {
		if reg.EventID == eventID && reg.FormSubmitted {
			count++
		}
	}

	return count, nil
}

func (f *fakeRegistrationRepo) CountSubmittedByEventAndForm(_ context.Context, eventID, formID uint) (int64, error) {
	var count int64
	for _, reg := range f.registrations {
		if reg.EventID == eventID && reg.FormID == formID && reg.FormSubmitted {
			count++
		}
	}

	return count, nil
}

func (f *fakeRegistrationRepo) FindSubmittedByEventAndForm(_ context.Context, eventID, formID uint) ([]domain.Registration, error) {
	var found []domain.Registration
	for _, reg := range f.registrations {
		if reg.EventID == eventID && reg.FormID == formID && reg.FormSubmitted {
			found = append(found, *reg)
		}
	}

	return found, nil
}

func (f *fakeRegistrationRepo) Submit(ctx context.Context, event domain.Event, form domain.RegistrationForm, user domain.User, answers []domain.FieldAnswer) (domain.Registration, error) {
	if limit, ok := event.ParticipantLimit(); ok {
		count, _ := f.CountSubmittedByEvent(ctx, event.ID)
		if count >= int64(limit) {
			return domain.Registration{}, repository.ErrEventFull
		}
	}
	if limit, ok := form.ResponseLimit(); ok {
		count, _ := f.CountSubmittedByEventAndForm(ctx, event.ID, form.ID)
		if count >= int64(limit) {
			return domain.Registration{}, repository.ErrFormFull
		}
	}

	key := [2]uint{event.ID, user.ID}
	reg, ok := f.registrations[key]
	if !ok {
		f.nextRowID++
		reg = &domain.Registration{
			ID:       f.nextRowID,
			EventID:  event.ID,
			UserID:   user.ID,
			Username: user.Username,
			FormID:   form.ID,
		}
		f.registrations[key] = reg
	} else if reg.FormSubmitted {
		return domain.Registration{}, repository.ErrAlreadySubmitted
	}

	f.apply(reg, form, answers)

	return *reg, nil
}

func (f *fakeRegistrationRepo) Update(_ context.Context, form domain.RegistrationForm, registration domain.Registration, answers []domain.FieldAnswer) (domain.Registration, error) {
	reg := f.registrations[[2]uint{registration.EventID, registration.UserID}]
	f.apply(reg, form, answers)

	return *reg, nil
}

func (f *fakeRegistrationRepo) Cancel(_ context.Context, event domain.Event, _ domain.RegistrationForm, registration domain.Registration) error {
	reg := f.registrations[[2]uint{event.ID, registration.UserID}]
	if reg.Response != nil {
		for _, row := range domain.TombstoneAnswers(reg.Response.FieldResponses) {
			for i := range reg.Response.FieldResponses {
				if reg.Response.FieldResponses[i].ID == row.ID {
					reg.Response.FieldResponses[i] = row
				}
			}
		}
		reg.Response.Deleted = true
	}
	reg.FormSubmitted = false
	reg.StatusUpdatedAt = time.Now()

	return nil
}

func (f *fakeRegistrationRepo) apply(reg *domain.Registration, form domain.RegistrationForm, answers []domain.FieldAnswer) {
	now := time.Now()
	if reg.Response == nil {
		f.nextRowID++
		reg.Response = &domain.FormResponse{ID: f.nextRowID, FormID: form.ID, ParticipantID: reg.UserID}
	}

	plan := domain.PlanAnswers(reg.Response.FieldResponses, answers)
	for _, revived := range plan.Revive {
		for i, row := range reg.Response.FieldResponses {
			if row.ID == revived.ID {
				reg.Response.FieldResponses[i] = revived
			}
		}
	}
	for _, answer := range plan.Create {
		f.nextRowID++
		label := ""
		if field, ok := form.FieldByID(answer.FieldID); ok {
			label = field.Label
		}
		reg.Response.FieldResponses = append(reg.Response.FieldResponses, domain.FormFieldResponse{
			ID:         f.nextRowID,
			ResponseID: reg.Response.ID,
			FieldID:    answer.FieldID,
			FieldLabel: label,
			Value:      answer.Value,
			State:      domain.AnswerActive,
		})
	}

	reg.Response.Deleted = false
	reg.Response.SubmittedAt = now
	reg.FormID = form.ID
	reg.FormSubmitted = true
	reg.StatusUpdatedAt = now
}

func newTestService(event domain.Event, form domain.RegistrationForm) (*RegistrationService, *fakeRegistrationRepo) {
	repo := newFakeRegistrationRepo()
	eventRepo := &fakeEventRepo{
		events: map[uint]domain.Event{event.ID: event},
		forms:  map[uint]domain.RegistrationForm{form.ID: form},
	}

	return NewRegistrationService(repo, eventRepo), repo
}

func testEvent() domain.Event {
	return domain.Event{
		ID:          1,
		Title:       "Spring Hackathon",
		StartDate:   time.Now().Add(48 * time.Hour),
		CreatedByID: 99,
	}
}

func testForm() domain.RegistrationForm {
	return domain.RegistrationForm{
		ID:       3,
		EventID:  1,
		IsActive: true,
		Fields: []domain.FormField{
			{ID: 100, Label: "Name", Type: domain.FieldTypeText, Required: true},
			{ID: 101, Label: "Email", Type: domain.FieldTypeEmail},
		},
	}
}

func validAnswers() []domain.FieldAnswer {
	return []domain.FieldAnswer{
		{FieldID: 100, Value: "Alice"},
		{FieldID: 101, Value: "alice@example.com"},
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	alice := domain.User{ID: 2, Username: "alice"}

	t.Run("first submission succeeds", func(t *testing.T) {
		svc, _ := newTestService(testEvent(), testForm())

		view, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusSubmitted, view.Status)
		assert.Equal(t, "alice", view.Username)
		require.Len(t, view.Answers, 2)
		assert.Equal(t, "Name", view.Answers[0].FieldLabel)
		assert.False(t, view.SubmittedAt.IsZero())
	})

	t.Run("duplicate submission is rejected", func(t *testing.T) {
		svc, _ := newTestService(testEvent(), testForm())

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)
		require.NoError(t, err)

		_, err = svc.Submit(ctx, 1, 3, validAnswers(), alice)
		assert.ErrorIs(t, err, ErrAlreadySubmitted)
	})

	t.Run("missing required answer is rejected", func(t *testing.T) {
		svc, _ := newTestService(testEvent(), testForm())

		_, err := svc.Submit(ctx, 1, 3, []domain.FieldAnswer{{FieldID: 101, Value: "alice@example.com"}}, alice)

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, ReasonMissingRequired, vErr.Reason)
	})

	t.Run("inactive form is rejected", func(t *testing.T) {
		form := testForm()
		form.IsActive = false
		svc, _ := newTestService(testEvent(), form)

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)

		assert.ErrorIs(t, err, ErrFormInactive)
	})

	t.Run("passed deadline is rejected", func(t *testing.T) {
		form := testForm()
		past := time.Now().Add(-time.Hour)
		form.Deadline = &past
		svc, _ := newTestService(testEvent(), form)

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)

		assert.ErrorIs(t, err, ErrDeadlinePassed)
	})

	t.Run("started event is rejected", func(t *testing.T) {
		event := testEvent()
		event.StartDate = time.Now().Add(-time.Hour)
		svc, _ := newTestService(event, testForm())

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)

		assert.ErrorIs(t, err, ErrEventStarted)
	})

	t.Run("full event rejects the next participant", func(t *testing.T) {
		event := testEvent()
		one := 1
		event.MaxParticipants = &one
		svc, _ := newTestService(event, testForm())

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)
		require.NoError(t, err)

		_, err = svc.Submit(ctx, 1, 3, validAnswers(), domain.User{ID: 5, Username: "bob"})
		assert.ErrorIs(t, err, ErrEventFull)
	})

	t.Run("full form rejects the next participant", func(t *testing.T) {
		form := testForm()
		one := 1
		form.MaxResponses = &one
		svc, _ := newTestService(testEvent(), form)

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)
		require.NoError(t, err)

		_, err = svc.Submit(ctx, 1, 3, validAnswers(), domain.User{ID: 5, Username: "bob"})
		assert.ErrorIs(t, err, ErrFormFull)
	})

	t.Run("unknown event or form fails", func(t *testing.T) {
		svc, _ := newTestService(testEvent(), testForm())

		_, err := svc.Submit(ctx, 42, 3, validAnswers(), alice)
		assert.ErrorIs(t, err, ErrEventNotFound)

		_, err = svc.Submit(ctx, 1, 42, validAnswers(), alice)
		assert.ErrorIs(t, err, ErrFormNotFound)
	})

	t.Run("form belonging to another event fails", func(t *testing.T) {
		form := testForm()
		form.EventID = 2
		svc, _ := newTestService(testEvent(), form)

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)

		assert.ErrorIs(t, err, ErrFormNotOwnedByEvent)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	alice := domain.User{ID: 2, Username: "alice"}

	t.Run("update rewrites the answers in place", func(t *testing.T) {
		svc, repo := newTestService(testEvent(), testForm())

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)
		require.NoError(t, err)

		view, err := svc.Update(ctx, 1, 3, []domain.FieldAnswer{
			{FieldID: 100, Value: "Alice Cooper"},
			{FieldID: 101, Value: "ac@example.com"},
		}, alice)

		require.NoError(t, err)
		require.Len(t, view.Answers, 2)
		assert.Equal(t, "Alice Cooper", view.Answers[0].Value)

		// Same rows, overwritten. Never a second row per field.
		stored := repo.registrations[[2]uint{1, 2}]
		assert.Len(t, stored.Response.FieldResponses, 2)
	})

	t.Run("update before any submission fails", func(t *testing.T) {
		svc, _ := newTestService(testEvent(), testForm())

		_, err := svc.Update(ctx, 1, 3, validAnswers(), alice)

		assert.Error(t, err)
	})

	t.Run("update after cancel fails", func(t *testing.T) {
		svc, _ := newTestService(testEvent(), testForm())

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)
		require.NoError(t, err)
		require.NoError(t, svc.Cancel(ctx, 1, 3, alice))

		_, err = svc.Update(ctx, 1, 3, validAnswers(), alice)

		assert.ErrorIs(t, err, ErrNotSubmitted)
	})

	t.Run("update validates like a submission", func(t *testing.T) {
		svc, _ := newTestService(testEvent(), testForm())

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)
		require.NoError(t, err)

		_, err = svc.Update(ctx, 1, 3, []domain.FieldAnswer{
			{FieldID: 100, Value: "Alice"},
			{FieldID: 101, Value: "not-an-email"},
		}, alice)

		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestCancelAndResubmit(t *testing.T) {
	ctx := context.Background()
	alice := domain.User{ID: 2, Username: "alice"}

	t.Run("cancel reverts to pending and hides the answers", func(t *testing.T) {
		svc, _ := newTestService(testEvent(), testForm())

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)
		require.NoError(t, err)

		require.NoError(t, svc.Cancel(ctx, 1, 3, alice))

		view, err := svc.GetUserRegistration(ctx, 1, 3, alice)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, view.Status)
		assert.Empty(t, view.Answers)
	})

	t.Run("cancel frees the capacity slot", func(t *testing.T) {
		event := testEvent()
		one := 1
		event.MaxParticipants = &one
		svc, _ := newTestService(event, testForm())

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)
		require.NoError(t, err)
		require.NoError(t, svc.Cancel(ctx, 1, 3, alice))

		_, err = svc.Submit(ctx, 1, 3, validAnswers(), domain.User{ID: 5, Username: "bob"})
		assert.NoError(t, err)
	})

	t.Run("resubmission revives the tombstoned rows", func(t *testing.T) {
		svc, repo := newTestService(testEvent(), testForm())

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)
		require.NoError(t, err)

		before := repo.registrations[[2]uint{1, 2}]
		rowIDs := []uint{before.Response.FieldResponses[0].ID, before.Response.FieldResponses[1].ID}

		require.NoError(t, svc.Cancel(ctx, 1, 3, alice))

		view, err := svc.Submit(ctx, 1, 3, []domain.FieldAnswer{
			{FieldID: 100, Value: "Alice Again"},
			{FieldID: 101, Value: "alice@example.com"},
		}, alice)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSubmitted, view.Status)
		require.Len(t, view.Answers, 2)
		assert.Equal(t, "Alice Again", view.Answers[0].Value)

		// The (response, field) rows were revived, not duplicated.
		after := repo.registrations[[2]uint{1, 2}]
		require.Len(t, after.Response.FieldResponses, 2)
		assert.Equal(t, rowIDs[0], after.Response.FieldResponses[0].ID)
		assert.Equal(t, rowIDs[1], after.Response.FieldResponses[1].ID)
	})

	t.Run("cancel without a submission fails", func(t *testing.T) {
		svc, _ := newTestService(testEvent(), testForm())

		err := svc.Cancel(ctx, 1, 3, alice)

		assert.Error(t, err)
	})

	t.Run("cancel after the event started fails", func(t *testing.T) {
		event := testEvent()
		form := testForm()
		repo := newFakeRegistrationRepo()
		eventRepo := &fakeEventRepo{
			events: map[uint]domain.Event{event.ID: event},
			forms:  map[uint]domain.RegistrationForm{form.ID: form},
		}
		svc := NewRegistrationService(repo, eventRepo)

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)
		require.NoError(t, err)

		// Event starts while the registration is live.
		event.StartDate = time.Now().Add(-time.Hour)
		eventRepo.events[event.ID] = event

		err = svc.Cancel(ctx, 1, 3, alice)
		assert.ErrorIs(t, err, ErrEventStarted)
	})
}

func TestCheckEligibility(t *testing.T) {
	ctx := context.Background()
	alice := domain.User{ID: 2, Username: "alice"}

	t.Run("clear path is eligible", func(t *testing.T) {
		svc, _ := newTestService(testEvent(), testForm())

		status, err := svc.CheckEligibility(ctx, 1, 3, alice)

		require.NoError(t, err)
		assert.Equal(t, Eligible, status)
	})

	t.Run("inactive form wins over every later check", func(t *testing.T) {
		event := testEvent()
		event.StartDate = time.Now().Add(-time.Hour)
		form := testForm()
		form.IsActive = false
		svc, _ := newTestService(event, form)

		status, err := svc.CheckEligibility(ctx, 1, 3, alice)

		require.NoError(t, err)
		assert.Equal(t, IneligibleFormInactive, status)
	})

	t.Run("deadline beats event start", func(t *testing.T) {
		event := testEvent()
		event.StartDate = time.Now().Add(-time.Hour)
		form := testForm()
		past := time.Now().Add(-2 * time.Hour)
		form.Deadline = &past
		svc, _ := newTestService(event, form)

		status, err := svc.CheckEligibility(ctx, 1, 3, alice)

		require.NoError(t, err)
		assert.Equal(t, IneligibleDeadlinePassed, status)
	})

	t.Run("started event", func(t *testing.T) {
		event := testEvent()
		event.StartDate = time.Now().Add(-time.Hour)
		svc, _ := newTestService(event, testForm())

		status, err := svc.CheckEligibility(ctx, 1, 3, alice)

		require.NoError(t, err)
		assert.Equal(t, IneligibleEventStarted, status)
	})

	t.Run("already submitted", func(t *testing.T) {
		svc, _ := newTestService(testEvent(), testForm())

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)
		require.NoError(t, err)

		status, err := svc.CheckEligibility(ctx, 1, 3, alice)

		require.NoError(t, err)
		assert.Equal(t, IneligibleAlreadySubmitted, status)
	})

	t.Run("full event", func(t *testing.T) {
		event := testEvent()
		one := 1
		event.MaxParticipants = &one
		svc, _ := newTestService(event, testForm())

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), domain.User{ID: 5, Username: "bob"})
		require.NoError(t, err)

		status, err := svc.CheckEligibility(ctx, 1, 3, alice)

		require.NoError(t, err)
		assert.Equal(t, IneligibleEventFull, status)
	})

	t.Run("full form", func(t *testing.T) {
		form := testForm()
		one := 1
		form.MaxResponses = &one
		svc, _ := newTestService(testEvent(), form)

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), domain.User{ID: 5, Username: "bob"})
		require.NoError(t, err)

		status, err := svc.CheckEligibility(ctx, 1, 3, alice)

		require.NoError(t, err)
		assert.Equal(t, IneligibleFormFull, status)
	})

	t.Run("pending registration does not block eligibility", func(t *testing.T) {
		svc, _ := newTestService(testEvent(), testForm())

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)
		require.NoError(t, err)
		require.NoError(t, svc.Cancel(ctx, 1, 3, alice))

		status, err := svc.CheckEligibility(ctx, 1, 3, alice)

		require.NoError(t, err)
		assert.Equal(t, Eligible, status)
	})
}

func TestGetUserRegistration(t *testing.T) {
	ctx := context.Background()
	alice := domain.User{ID: 2, Username: "alice"}

	t.Run("returns the caller's registration", func(t *testing.T) {
		svc, _ := newTestService(testEvent(), testForm())

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)
		require.NoError(t, err)

		view, err := svc.GetUserRegistration(ctx, 1, 3, alice)

		require.NoError(t, err)
		assert.Equal(t, uint(2), view.UserID)
		assert.Len(t, view.Answers, 2)
	})

	t.Run("no registration means not found", func(t *testing.T) {
		svc, _ := newTestService(testEvent(), testForm())

		_, err := svc.GetUserRegistration(ctx, 1, 3, alice)

		assert.Error(t, err)
	})
}

func TestListAnswers(t *testing.T) {
	ctx := context.Background()
	organizer := domain.User{ID: 99, Username: "org"}
	alice := domain.User{ID: 2, Username: "alice"}

	t.Run("creator sees every submitted registration", func(t *testing.T) {
		svc, _ := newTestService(testEvent(), testForm())

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)
		require.NoError(t, err)

		views, err := svc.ListAnswers(ctx, 1, 3, organizer)

		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, "alice", views[0].Username)
	})

	t.Run("non-creator is denied", func(t *testing.T) {
		svc, _ := newTestService(testEvent(), testForm())

		_, err := svc.ListAnswers(ctx, 1, 3, alice)

		assert.ErrorIs(t, err, ErrNotEventCreator)
	})

	t.Run("no submissions yields an empty list", func(t *testing.T) {
		svc, _ := newTestService(testEvent(), testForm())

		views, err := svc.ListAnswers(ctx, 1, 3, organizer)

		require.NoError(t, err)
		assert.Empty(t, views)
	})

	t.Run("cancelled registrations are excluded", func(t *testing.T) {
		svc, _ := newTestService(testEvent(), testForm())

		_, err := svc.Submit(ctx, 1, 3, validAnswers(), alice)
		require.NoError(t, err)
		require.NoError(t, svc.Cancel(ctx, 1, 3, alice))

		views, err := svc.ListAnswers(ctx, 1, 3, organizer)

		require.NoError(t, err)
		assert.Empty(t, views)
	})
}
