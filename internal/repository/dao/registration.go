package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrRegistrationExists    = errors.New("registration already exists for this event and user")
	ErrFormResponseNotFound  = errors.New("form response not found")
	ErrFieldResponseNotFound = errors.New("field response not found")
)

type Registration struct {
	ID uint `gorm:"primaryKey"`

	EventID uint `gorm:"not null;uniqueIndex:idx_registrations_event_user"`
	UserID  uint `gorm:"not null;uniqueIndex:idx_registrations_event_user"`
	User    User `gorm:"foreignKey:UserID"`

	FormID uint `gorm:"not null;index"`

	FormSubmitted   bool `gorm:"not null;default:false"`
	StatusUpdatedAt time.Time

	FormResponseID *uint
	FormResponse   *FormResponse `gorm:"foreignKey:FormResponseID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type FormResponse struct {
	ID            uint `gorm:"primaryKey"`
	FormID        uint `gorm:"not null;index"`
	ParticipantID uint `gorm:"not null"`

	IsDeleted   bool `gorm:"not null;default:false"`
	SubmittedAt time.Time

	FieldResponses []FormFieldResponse `gorm:"foreignKey:ResponseID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type FormFieldResponse struct {
	ID uint `gorm:"primaryKey"`

	ResponseID uint      `gorm:"not null;uniqueIndex:idx_field_responses_response_field"`
	FieldID    uint      `gorm:"not null;uniqueIndex:idx_field_responses_response_field"`
	Field      FormField `gorm:"foreignKey:FieldID"`

	Value     string
	IsDeleted bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type RegistrationDAO struct {
	db *gorm.DB
}

func NewRegistrationDAO(db *gorm.DB) *RegistrationDAO {
	return &RegistrationDAO{
		db: db,
	}
}

// Transaction runs fn against a DAO bound to a single database transaction.
// Everything fn does commits or rolls back as one unit.
func (d *RegistrationDAO) Transaction(ctx context.Context, fn func(tx *RegistrationDAO) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRegistrationDAO(tx))
	})
}

// LockEvent takes a row-level lock on the event, serializing concurrent
// capacity checks for it. Only meaningful inside a Transaction.
func (d *RegistrationDAO) LockEvent(ctx context.Context, eventID uint) error {
	var event Event

	result := d.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&event, eventID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}

		return result.Error
	}

	return nil
}

// LockForm takes a row-level lock on the form. Only meaningful inside a
// Transaction.
func (d *RegistrationDAO) LockForm(ctx context.Context, formID uint) error {
	var form RegistrationForm

	result := d.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&form, formID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrFormNotFound
		}

		return result.Error
	}

	return nil
}

func (d *RegistrationDAO) CountSubmittedByEvent(ctx context.Context, eventID uint) (int64, error) {
	var count int64

	result := d.db.WithContext(ctx).
		Model(&Registration{}).
		Where("event_id = ? AND form_submitted = ?", eventID, true).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

func (d *RegistrationDAO) CountSubmittedByEventAndForm(ctx context.Context, eventID, formID uint) (int64, error) {
	var count int64

	result := d.db.WithContext(ctx).
		Model(&Registration{}).
		Where("event_id = ? AND form_id = ? AND form_submitted = ?", eventID, formID, true).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

func (d *RegistrationDAO) FindByEventAndUser(ctx context.Context, eventID, userID uint) (Registration, error) {
	var registration Registration

	result := d.db.WithContext(ctx).
		Preload("User").
		Preload("FormResponse").
		Preload("FormResponse.FieldResponses", func(db *gorm.DB) *gorm.DB {
			return db.Order("form_field_responses.id ASC")
		}).
		Preload("FormResponse.FieldResponses.Field").
		First(&registration, "event_id = ? AND user_id = ?", eventID, userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return registration, nil
}

func (d *RegistrationDAO) FindSubmittedByEventAndForm(ctx context.Context, eventID, formID uint) ([]Registration, error) {
	var registrations []Registration

	result := d.db.WithContext(ctx).
		Preload("User").
		Preload("FormResponse").
		Preload("FormResponse.FieldResponses", func(db *gorm.DB) *gorm.DB {
			return db.Order("form_field_responses.id ASC")
		}).
		Preload("FormResponse.FieldResponses.Field").
		Where("event_id = ? AND form_id = ? AND form_submitted = ?", eventID, formID, true).
		Order("id ASC").
		Find(&registrations)
	if result.Error != nil {
		return nil, result.Error
	}

	return registrations, nil
}

func (d *RegistrationDAO) Insert(ctx context.Context, registration Registration) (Registration, error) {
	result := d.db.WithContext(ctx).Create(&registration)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			strings.Contains(err.Message, "idx_registrations_event_user") {
			return Registration{}, ErrRegistrationExists
		}

		return Registration{}, result.Error
	}

	return registration, nil
}

// Save flushes the mutable lifecycle columns of an existing registration.
func (d *RegistrationDAO) Save(ctx context.Context, registration Registration) (Registration, error) {
	result := d.db.WithContext(ctx).
		Model(&Registration{}).
		Where("id = ?", registration.ID).
		Updates(map[string]interface{}{
			"form_id":           registration.FormID,
			"form_submitted":    registration.FormSubmitted,
			"form_response_id":  registration.FormResponseID,
			"status_updated_at": registration.StatusUpdatedAt,
		})
	if result.Error != nil {
		return Registration{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Registration{}, ErrRegistrationNotFound
	}

	return registration, nil
}

func (d *RegistrationDAO) InsertFormResponse(ctx context.Context, response FormResponse) (FormResponse, error) {
	result := d.db.WithContext(ctx).
		Omit("FieldResponses").
		Create(&response)
	if result.Error != nil {
		return FormResponse{}, result.Error
	}

	return response, nil
}

func (d *RegistrationDAO) SaveFormResponse(ctx context.Context, response FormResponse) (FormResponse, error) {
	result := d.db.WithContext(ctx).
		Model(&FormResponse{}).
		Where("id = ?", response.ID).
		Updates(map[string]interface{}{
			"is_deleted":   response.IsDeleted,
			"submitted_at": response.SubmittedAt,
		})
	if result.Error != nil {
		return FormResponse{}, result.Error
	}
	if result.RowsAffected == 0 {
		return FormResponse{}, ErrFormResponseNotFound
	}

	return response, nil
}

func (d *RegistrationDAO) InsertFieldResponse(ctx context.Context, fieldResponse FormFieldResponse) (FormFieldResponse, error) {
	result := d.db.WithContext(ctx).
		Omit("Field").
		Create(&fieldResponse)
	if result.Error != nil {
		return FormFieldResponse{}, result.Error
	}

	return fieldResponse, nil
}

func (d *RegistrationDAO) SaveFieldResponse(ctx context.Context, fieldResponse FormFieldResponse) (FormFieldResponse, error) {
	result := d.db.WithContext(ctx).
		Model(&FormFieldResponse{}).
		Where("id = ?", fieldResponse.ID).
		Updates(map[string]interface{}{
			"value":      fieldResponse.Value,
			"is_deleted": fieldResponse.IsDeleted,
		})
	if result.Error != nil {
		return FormFieldResponse{}, result.Error
	}
	if result.RowsAffected == 0 {
		return FormFieldResponse{}, ErrFieldResponseNotFound
	}

	return fieldResponse, nil
}

// SetFormLimitReached persists the denormalized capacity flag on the form.
func (d *RegistrationDAO) SetFormLimitReached(ctx context.Context, formID uint, reached bool) error {
	result := d.db.WithContext(ctx).
		Model(&RegistrationForm{}).
		Where("id = ?", formID).
		Update("limit_reached", reached)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFormNotFound
	}

	return nil
}
