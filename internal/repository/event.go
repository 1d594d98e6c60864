package repository

import (
	"context"
	"fmt"

	"github.com/educonnect/educonnect-api/internal/domain"
	"github.com/educonnect/educonnect-api/internal/repository/dao"
)

var (
	ErrEventNotFound = dao.ErrEventNotFound
	ErrFormNotFound  = dao.ErrFormNotFound
	ErrFieldNotFound = dao.ErrFieldNotFound
)

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	FindByID(ctx context.Context, id uint) (dao.Event, error)
	FindAll(ctx context.Context) ([]dao.Event, error)
	InsertForm(ctx context.Context, form dao.RegistrationForm) (dao.RegistrationForm, error)
	FindFormByID(ctx context.Context, id uint) (dao.RegistrationForm, error)
	FindFormsByEventID(ctx context.Context, eventID uint) ([]dao.RegistrationForm, error)
	InsertField(ctx context.Context, field dao.FormField) (dao.FormField, error)
	SoftDeleteField(ctx context.Context, formID, fieldID uint) error
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	created, err := r.dao.Insert(ctx, r.eventDomainToDao(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.eventDaoToDomain(created), nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (domain.Event, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.eventDaoToDomain(found), nil
}

func (r *EventRepository) FindAll(ctx context.Context) ([]domain.Event, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	events := make([]domain.Event, len(found))
	for i, event := range found {
		events[i] = r.eventDaoToDomain(event)
	}

	return events, nil
}

func (r *EventRepository) CreateForm(ctx context.Context, form domain.RegistrationForm) (domain.RegistrationForm, error) {
	created, err := r.dao.InsertForm(ctx, dao.RegistrationForm{
		EventID:      form.EventID,
		Title:        form.Title,
		IsActive:     form.IsActive,
		Deadline:     form.Deadline,
		MaxResponses: form.MaxResponses,
	})
	if err != nil {
		return domain.RegistrationForm{}, fmt.Errorf("r.dao.InsertForm -> %w", err)
	}

	return r.formDaoToDomain(created), nil
}

func (r *EventRepository) FindFormByID(ctx context.Context, id uint) (domain.RegistrationForm, error) {
	found, err := r.dao.FindFormByID(ctx, id)
	if err != nil {
		return domain.RegistrationForm{}, fmt.Errorf("r.dao.FindFormByID -> %w", err)
	}

	return r.formDaoToDomain(found), nil
}

func (r *EventRepository) FindFormsByEventID(ctx context.Context, eventID uint) ([]domain.RegistrationForm, error) {
	found, err := r.dao.FindFormsByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindFormsByEventID -> %w", err)
	}

	forms := make([]domain.RegistrationForm, len(found))
	for i, form := range found {
		forms[i] = r.formDaoToDomain(form)
	}

	return forms, nil
}

func (r *EventRepository) AddField(ctx context.Context, field domain.FormField) (domain.FormField, error) {
	created, err := r.dao.InsertField(ctx, dao.FormField{
		FormID:   field.FormID,
		Label:    field.Label,
		Type:     string(field.Type),
		Required: field.Required,
		Options:  field.Options,
	})
	if err != nil {
		return domain.FormField{}, fmt.Errorf("r.dao.InsertField -> %w", err)
	}

	return r.fieldDaoToDomain(created), nil
}

func (r *EventRepository) RemoveField(ctx context.Context, formID, fieldID uint) error {
	if err := r.dao.SoftDeleteField(ctx, formID, fieldID); err != nil {
		return fmt.Errorf("r.dao.SoftDeleteField -> %w", err)
	}

	return nil
}

func (r *EventRepository) eventDomainToDao(e domain.Event) dao.Event {
	return dao.Event{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		Location:        e.Location,
		StartDate:       e.StartDate,
		MaxParticipants: e.MaxParticipants,
		CreatedByID:     e.CreatedByID,
	}
}

func (r *EventRepository) eventDaoToDomain(e dao.Event) domain.Event {
	return domain.Event{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		Location:        e.Location,
		StartDate:       e.StartDate,
		MaxParticipants: e.MaxParticipants,
		CreatedByID:     e.CreatedByID,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func (r *EventRepository) formDaoToDomain(f dao.RegistrationForm) domain.RegistrationForm {
	form := domain.RegistrationForm{
		ID:           f.ID,
		EventID:      f.EventID,
		Title:        f.Title,
		IsActive:     f.IsActive,
		Deadline:     f.Deadline,
		MaxResponses: f.MaxResponses,
		LimitReached: f.LimitReached,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}

	for _, field := range f.Fields {
		form.Fields = append(form.Fields, r.fieldDaoToDomain(field))
	}

	return form
}

func (r *EventRepository) fieldDaoToDomain(f dao.FormField) domain.FormField {
	return domain.FormField{
		ID:        f.ID,
		FormID:    f.FormID,
		Label:     f.Label,
		Type:      domain.FieldType(f.Type),
		Required:  f.Required,
		Options:   f.Options,
		Deleted:   f.Deleted,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}
