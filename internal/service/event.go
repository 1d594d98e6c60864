package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/educonnect/educonnect-api/internal/domain"
	"github.com/educonnect/educonnect-api/internal/repository"
)

var (
	ErrEventNotFound = repository.ErrEventNotFound
	ErrFormNotFound  = repository.ErrFormNotFound
	ErrFieldNotFound = repository.ErrFieldNotFound

	ErrNotEventCreator         = errors.New("only the event creator can do this")
	ErrFormNotOwnedByEvent     = errors.New("form does not belong to the specified event")
	ErrChoiceFieldNeedsOptions = errors.New("choice fields must declare at least one option")
)

type EventRepository interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	FindAll(ctx context.Context) ([]domain.Event, error)
	CreateForm(ctx context.Context, form domain.RegistrationForm) (domain.RegistrationForm, error)
	FindFormByID(ctx context.Context, id uint) (domain.RegistrationForm, error)
	FindFormsByEventID(ctx context.Context, eventID uint) ([]domain.RegistrationForm, error)
	AddField(ctx context.Context, field domain.FormField) (domain.FormField, error)
	RemoveField(ctx context.Context, formID, fieldID uint) error
}

type EventService struct {
	repo EventRepository
}

func NewEventService(repo EventRepository) *EventService {
	return &EventService{
		repo: repo,
	}
}

func (s *EventService) CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *EventService) GetEvent(ctx context.Context, id uint) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return event, nil
}

func (s *EventService) GetEvents(ctx context.Context) ([]domain.Event, error) {
	events, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return events, nil
}

// CreateForm publishes a registration form for an event. Only the event
// creator can attach forms.
func (s *EventService) CreateForm(ctx context.Context, form domain.RegistrationForm, user domain.User) (domain.RegistrationForm, error) {
	event, err := s.repo.FindByID(ctx, form.EventID)
	if err != nil {
		return domain.RegistrationForm{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if event.CreatedByID != user.ID {
		return domain.RegistrationForm{}, ErrNotEventCreator
	}

	created, err := s.repo.CreateForm(ctx, form)
	if err != nil {
		return domain.RegistrationForm{}, fmt.Errorf("s.repo.CreateForm -> %w", err)
	}

	return created, nil
}

func (s *EventService) GetForm(ctx context.Context, eventID, formID uint) (domain.RegistrationForm, error) {
	form, err := s.repo.FindFormByID(ctx, formID)
	if err != nil {
		return domain.RegistrationForm{}, fmt.Errorf("s.repo.FindFormByID -> %w", err)
	}

	if form.EventID != eventID {
		return domain.RegistrationForm{}, ErrFormNotOwnedByEvent
	}

	return form, nil
}

func (s *EventService) GetForms(ctx context.Context, eventID uint) ([]domain.RegistrationForm, error) {
	if _, err := s.repo.FindByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	forms, err := s.repo.FindFormsByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindFormsByEventID -> %w", err)
	}

	return forms, nil
}

func (s *EventService) AddField(ctx context.Context, eventID uint, field domain.FormField, user domain.User) (domain.FormField, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return domain.FormField{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if event.CreatedByID != user.ID {
		return domain.FormField{}, ErrNotEventCreator
	}

	form, err := s.repo.FindFormByID(ctx, field.FormID)
	if err != nil {
		return domain.FormField{}, fmt.Errorf("s.repo.FindFormByID -> %w", err)
	}
	if form.EventID != eventID {
		return domain.FormField{}, ErrFormNotOwnedByEvent
	}

	// A choice field with no option set would reject every answer.
	if field.IsChoice() && len(field.AllowedOptions()) == 0 {
		return domain.FormField{}, ErrChoiceFieldNeedsOptions
	}

	created, err := s.repo.AddField(ctx, field)
	if err != nil {
		return domain.FormField{}, fmt.Errorf("s.repo.AddField -> %w", err)
	}

	return created, nil
}

// RemoveField soft-deletes a field. Existing answers referencing it are kept.
func (s *EventService) RemoveField(ctx context.Context, eventID, formID, fieldID uint, user domain.User) error {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if event.CreatedByID != user.ID {
		return ErrNotEventCreator
	}

	if err = s.repo.RemoveField(ctx, formID, fieldID); err != nil {
		return fmt.Errorf("s.repo.RemoveField -> %w", err)
	}

	return nil
}
