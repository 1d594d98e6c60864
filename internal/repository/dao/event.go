package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrFormNotFound  = errors.New("form not found")
	ErrFieldNotFound = errors.New("form field not found")
)

type Event struct {
	ID          uint      `gorm:"primaryKey"`
	Title       string    `gorm:"not null"`
	Description string
	Location    string
	StartDate   time.Time `gorm:"not null"`

	// nil or <= 0 means unlimited.
	MaxParticipants *int

	CreatedByID uint `gorm:"not null;index"`
	CreatedBy   User `gorm:"foreignKey:CreatedByID"`

	Forms []RegistrationForm `gorm:"foreignKey:EventID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type RegistrationForm struct {
	ID      uint   `gorm:"primaryKey"`
	EventID uint   `gorm:"not null;index"`
	Title   string `gorm:"not null"`

	IsActive     bool `gorm:"not null;default:true"`
	Deadline     *time.Time
	MaxResponses *int

	// Denormalized capacity flag, recomputed after every submission and
	// cancellation. Advisory only; accept/reject decisions recount live.
	LimitReached bool `gorm:"not null;default:false"`

	Fields []FormField `gorm:"foreignKey:FormID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type FormField struct {
	ID     uint   `gorm:"primaryKey"`
	FormID uint   `gorm:"not null;index"`
	Label  string `gorm:"not null"`
	Type   string `gorm:"not null"` // TEXT, EMAIL, NUMBER, DROPDOWN, ...

	Required bool `gorm:"not null;default:false"`

	// Delimited options list for choice fields, e.g. `["Small", "Large"]`.
	Options string

	Deleted bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).Create(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindByID(ctx context.Context, id uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindAll(ctx context.Context) ([]Event, error) {
	var events []Event

	result := d.db.WithContext(ctx).Order("start_date ASC").Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

func (d *EventDAO) InsertForm(ctx context.Context, form RegistrationForm) (RegistrationForm, error) {
	result := d.db.WithContext(ctx).Create(&form)
	if result.Error != nil {
		return RegistrationForm{}, result.Error
	}

	return form, nil
}

func (d *EventDAO) FindFormByID(ctx context.Context, id uint) (RegistrationForm, error) {
	var form RegistrationForm

	result := d.db.WithContext(ctx).
		Preload("Fields", func(db *gorm.DB) *gorm.DB {
			return db.Order("form_fields.id ASC")
		}).
		First(&form, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return RegistrationForm{}, ErrFormNotFound
		}

		return RegistrationForm{}, result.Error
	}

	return form, nil
}

func (d *EventDAO) FindFormsByEventID(ctx context.Context, eventID uint) ([]RegistrationForm, error) {
	var forms []RegistrationForm

	result := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("id ASC").
		Find(&forms)
	if result.Error != nil {
		return nil, result.Error
	}

	return forms, nil
}

func (d *EventDAO) InsertField(ctx context.Context, field FormField) (FormField, error) {
	result := d.db.WithContext(ctx).Create(&field)
	if result.Error != nil {
		return FormField{}, result.Error
	}

	return field, nil
}

// SoftDeleteField tombstones a field. Historical answers referencing it stay
// valid; the field simply drops out of validation.
func (d *EventDAO) SoftDeleteField(ctx context.Context, formID, fieldID uint) error {
	result := d.db.WithContext(ctx).
		Model(&FormField{}).
		Where("id = ? AND form_id = ?", fieldID, formID).
		Update("deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFieldNotFound
	}

	return nil
}
