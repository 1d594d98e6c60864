package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/educonnect/educonnect-api/internal/domain"
	"github.com/educonnect/educonnect-api/internal/repository"
)

var (
	ErrRegistrationNotFound = repository.ErrRegistrationNotFound
	ErrRegistrationExists   = repository.ErrRegistrationExists
	ErrAlreadySubmitted     = repository.ErrAlreadySubmitted
	ErrEventFull            = repository.ErrEventFull
	ErrFormFull             = repository.ErrFormFull

	ErrFormInactive   = errors.New("form is not active for submissions")
	ErrDeadlinePassed = errors.New("form submission deadline has passed")
	ErrEventStarted   = errors.New("event has already started")
	ErrNotSubmitted   = errors.New("registration form not submitted yet")
)

// Eligibility reason codes returned by CheckEligibility.
const (
	Eligible                   = "ELIGIBLE"
	IneligibleFormInactive     = "INELIGIBLE: Form is not active"
	IneligibleDeadlinePassed   = "INELIGIBLE: Registration deadline has passed"
	IneligibleEventStarted     = "INELIGIBLE: Event already started"
	IneligibleAlreadySubmitted = "INELIGIBLE: Already registered for this event"
	IneligibleEventFull        = "INELIGIBLE: Event is full"
	IneligibleFormFull         = "INELIGIBLE: Form has reached its response limit"
)

type RegistrationRepository interface {
	FindByEventAndUser(ctx context.Context, eventID, userID uint) (domain.Registration, error)
	CountSubmittedByEvent(ctx context.Context, eventID uint) (int64, error)
	CountSubmittedByEventAndForm(ctx context.Context, eventID, formID uint) (int64, error)
	FindSubmittedByEventAndForm(ctx context.Context, eventID, formID uint) ([]domain.Registration, error)
	Submit(ctx context.Context, event domain.Event, form domain.RegistrationForm, user domain.User, answers []domain.FieldAnswer) (domain.Registration, error)
	Update(ctx context.Context, form domain.RegistrationForm, registration domain.Registration, answers []domain.FieldAnswer) (domain.Registration, error)
	Cancel(ctx context.Context, event domain.Event, form domain.RegistrationForm, registration domain.Registration) error
}

type RegistrationEventRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	FindFormByID(ctx context.Context, id uint) (domain.RegistrationForm, error)
}

// RegistrationService owns the registration lifecycle: submission against a
// dynamic form schema under capacity and deadline constraints, idempotent
// resubmission, update, and soft-delete cancellation.
type RegistrationService struct {
	repo      RegistrationRepository
	eventRepo RegistrationEventRepository
}

func NewRegistrationService(repo RegistrationRepository, eventRepo RegistrationEventRepository) *RegistrationService {
	return &RegistrationService{
		repo:      repo,
		eventRepo: eventRepo,
	}
}

// Submit validates and persists a user's registration for a form. The rule
// checks here are advisory reads; the repository re-checks capacity and the
// duplicate constraint under row locks inside the commit, so concurrent
// submissions cannot overbook.
func (s *RegistrationService) Submit(ctx context.Context, eventID, formID uint, answers []domain.FieldAnswer, user domain.User) (domain.RegistrationView, error) {
	event, form, err := s.loadEventAndForm(ctx, eventID, formID)
	if err != nil {
		return domain.RegistrationView{}, err
	}

	now := time.Now()
	if !form.IsActive {
		return domain.RegistrationView{}, ErrFormInactive
	}
	if form.DeadlinePassed(now) {
		return domain.RegistrationView{}, ErrDeadlinePassed
	}
	if event.HasStarted(now) {
		return domain.RegistrationView{}, ErrEventStarted
	}

	if limit, ok := event.ParticipantLimit(); ok {
		count, err := s.repo.CountSubmittedByEvent(ctx, eventID)
		if err != nil {
			return domain.RegistrationView{}, fmt.Errorf("s.repo.CountSubmittedByEvent -> %w", err)
		}
		if count >= int64(limit) {
			return domain.RegistrationView{}, ErrEventFull
		}
	}

	if limit, ok := form.ResponseLimit(); ok {
		count, err := s.repo.CountSubmittedByEventAndForm(ctx, eventID, formID)
		if err != nil {
			return domain.RegistrationView{}, fmt.Errorf("s.repo.CountSubmittedByEventAndForm -> %w", err)
		}
		if count >= int64(limit) {
			return domain.RegistrationView{}, ErrFormFull
		}
	}

	existing, err := s.repo.FindByEventAndUser(ctx, eventID, user.ID)
	switch {
	case err == nil:
		if existing.FormSubmitted {
			return domain.RegistrationView{}, ErrAlreadySubmitted
		}
	case errors.Is(err, repository.ErrRegistrationNotFound):
		// First submission for this (event, user) pair.
	default:
		return domain.RegistrationView{}, fmt.Errorf("s.repo.FindByEventAndUser -> %w", err)
	}

	if err = ValidateAnswers(form, answers); err != nil {
		return domain.RegistrationView{}, err
	}

	submitted, err := s.repo.Submit(ctx, event, form, user, answers)
	if err != nil {
		return domain.RegistrationView{}, err
	}

	return submitted.View(), nil
}

// GetUserRegistration returns the caller's registration for the form.
func (s *RegistrationService) GetUserRegistration(ctx context.Context, eventID, formID uint, user domain.User) (domain.RegistrationView, error) {
	_, _, err := s.loadEventAndForm(ctx, eventID, formID)
	if err != nil {
		return domain.RegistrationView{}, err
	}

	registration, err := s.repo.FindByEventAndUser(ctx, eventID, user.ID)
	if err != nil {
		return domain.RegistrationView{}, fmt.Errorf("s.repo.FindByEventAndUser -> %w", err)
	}

	if registration.FormID != formID {
		return domain.RegistrationView{}, ErrRegistrationNotFound
	}

	return registration.View(), nil
}

// Update rewrites the answers of an already-submitted registration. Capacity
// is not re-checked; updating does not consume a new slot.
func (s *RegistrationService) Update(ctx context.Context, eventID, formID uint, answers []domain.FieldAnswer, user domain.User) (domain.RegistrationView, error) {
	_, form, err := s.loadEventAndForm(ctx, eventID, formID)
	if err != nil {
		return domain.RegistrationView{}, err
	}

	registration, err := s.repo.FindByEventAndUser(ctx, eventID, user.ID)
	if err != nil {
		return domain.RegistrationView{}, fmt.Errorf("s.repo.FindByEventAndUser -> %w", err)
	}

	if registration.FormID != formID || !registration.FormSubmitted {
		return domain.RegistrationView{}, ErrNotSubmitted
	}

	now := time.Now()
	if !form.IsActive {
		return domain.RegistrationView{}, ErrFormInactive
	}
	if form.DeadlinePassed(now) {
		return domain.RegistrationView{}, ErrDeadlinePassed
	}

	if err = ValidateAnswers(form, answers); err != nil {
		return domain.RegistrationView{}, err
	}

	updated, err := s.repo.Update(ctx, form, registration, answers)
	if err != nil {
		return domain.RegistrationView{}, err
	}

	return updated.View(), nil
}

// Cancel soft-deletes the response and its answers and reverts the
// registration to pending. The registration row itself is retained so a
// later resubmission revives the tombstoned records.
func (s *RegistrationService) Cancel(ctx context.Context, eventID, formID uint, user domain.User) error {
	event, form, err := s.loadEventAndForm(ctx, eventID, formID)
	if err != nil {
		return err
	}

	registration, err := s.repo.FindByEventAndUser(ctx, eventID, user.ID)
	if err != nil {
		return fmt.Errorf("s.repo.FindByEventAndUser -> %w", err)
	}

	if registration.FormID != formID {
		return ErrRegistrationNotFound
	}

	if event.HasStarted(time.Now()) {
		return ErrEventStarted
	}
	if !registration.FormSubmitted {
		return ErrNotSubmitted
	}

	if err = s.repo.Cancel(ctx, event, form, registration); err != nil {
		return err
	}

	return nil
}

// CheckEligibility reports whether the user could submit right now, as a
// reason code. Read-only; submission itself re-checks everything.
func (s *RegistrationService) CheckEligibility(ctx context.Context, eventID, formID uint, user domain.User) (string, error) {
	event, form, err := s.loadEventAndForm(ctx, eventID, formID)
	if err != nil {
		return "", err
	}

	now := time.Now()
	if !form.IsActive {
		return IneligibleFormInactive, nil
	}
	if form.DeadlinePassed(now) {
		return IneligibleDeadlinePassed, nil
	}
	if event.HasStarted(now) {
		return IneligibleEventStarted, nil
	}

	registration, err := s.repo.FindByEventAndUser(ctx, eventID, user.ID)
	if err == nil && registration.FormSubmitted {
		return IneligibleAlreadySubmitted, nil
	}
	if err != nil && !errors.Is(err, repository.ErrRegistrationNotFound) {
		return "", fmt.Errorf("s.repo.FindByEventAndUser -> %w", err)
	}

	if limit, ok := event.ParticipantLimit(); ok {
		count, err := s.repo.CountSubmittedByEvent(ctx, eventID)
		if err != nil {
			return "", fmt.Errorf("s.repo.CountSubmittedByEvent -> %w", err)
		}
		if count >= int64(limit) {
			return IneligibleEventFull, nil
		}
	}

	if limit, ok := form.ResponseLimit(); ok {
		count, err := s.repo.CountSubmittedByEventAndForm(ctx, eventID, formID)
		if err != nil {
			return "", fmt.Errorf("s.repo.CountSubmittedByEventAndForm -> %w", err)
		}
		if count >= int64(limit) {
			return IneligibleFormFull, nil
		}
	}

	return Eligible, nil
}

// ListAnswers returns the normalized view for every submitted registration on
// the form. Restricted to the event's creator.
func (s *RegistrationService) ListAnswers(ctx context.Context, eventID, formID uint, user domain.User) ([]domain.RegistrationView, error) {
	event, _, err := s.loadEventAndForm(ctx, eventID, formID)
	if err != nil {
		return nil, err
	}

	if event.CreatedByID != user.ID {
		return nil, ErrNotEventCreator
	}

	registrations, err := s.repo.FindSubmittedByEventAndForm(ctx, eventID, formID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindSubmittedByEventAndForm -> %w", err)
	}

	views := make([]domain.RegistrationView, len(registrations))
	for i, registration := range registrations {
		views[i] = registration.View()
	}

	return views, nil
}

func (s *RegistrationService) loadEventAndForm(ctx context.Context, eventID, formID uint) (domain.Event, domain.RegistrationForm, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return domain.Event{}, domain.RegistrationForm{}, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}

	form, err := s.eventRepo.FindFormByID(ctx, formID)
	if err != nil {
		return domain.Event{}, domain.RegistrationForm{}, fmt.Errorf("s.eventRepo.FindFormByID -> %w", err)
	}

	if form.EventID != eventID {
		return domain.Event{}, domain.RegistrationForm{}, ErrFormNotOwnedByEvent
	}

	return event, form, nil
}
