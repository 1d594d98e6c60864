package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/educonnect/educonnect-api/internal/domain"
	"github.com/educonnect/educonnect-api/internal/repository/dao"
)

var (
	ErrRegistrationNotFound = dao.ErrRegistrationNotFound
	ErrRegistrationExists   = dao.ErrRegistrationExists

	ErrAlreadySubmitted = errors.New("user already has a submitted registration for this event")
	ErrEventFull        = errors.New("event registration is full")
	ErrFormFull         = errors.New("form has reached its maximum number of responses")
)

type RegistrationDAO interface {
	Transaction(ctx context.Context, fn func(tx *dao.RegistrationDAO) error) error
	CountSubmittedByEvent(ctx context.Context, eventID uint) (int64, error)
	CountSubmittedByEventAndForm(ctx context.Context, eventID, formID uint) (int64, error)
	FindByEventAndUser(ctx context.Context, eventID, userID uint) (dao.Registration, error)
	FindSubmittedByEventAndForm(ctx context.Context, eventID, formID uint) ([]dao.Registration, error)
}

type RegistrationRepository struct {
	dao RegistrationDAO
}

func NewRegistrationRepository(dao RegistrationDAO) *RegistrationRepository {
	return &RegistrationRepository{
		dao: dao,
	}
}

func (r *RegistrationRepository) FindByEventAndUser(ctx context.Context, eventID, userID uint) (domain.Registration, error) {
	found, err := r.dao.FindByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByEventAndUser -> %w", err)
	}

	return r.registrationDaoToDomain(found), nil
}

func (r *RegistrationRepository) CountSubmittedByEvent(ctx context.Context, eventID uint) (int64, error) {
	return r.dao.CountSubmittedByEvent(ctx, eventID)
}

func (r *RegistrationRepository) CountSubmittedByEventAndForm(ctx context.Context, eventID, formID uint) (int64, error) {
	return r.dao.CountSubmittedByEventAndForm(ctx, eventID, formID)
}

func (r *RegistrationRepository) FindSubmittedByEventAndForm(ctx context.Context, eventID, formID uint) ([]domain.Registration, error) {
	found, err := r.dao.FindSubmittedByEventAndForm(ctx, eventID, formID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindSubmittedByEventAndForm -> %w", err)
	}

	registrations := make([]domain.Registration, len(found))
	for i, registration := range found {
		registrations[i] = r.registrationDaoToDomain(registration)
	}

	return registrations, nil
}

// Submit persists a submission as one atomic unit. The event and form rows
// are locked before the capacity counts are read, so two concurrent
// submissions for the same event or form serialize and the counts stay
// authoritative through commit.
func (r *RegistrationRepository) Submit(ctx context.Context, event domain.Event, form domain.RegistrationForm, user domain.User, answers []domain.FieldAnswer) (domain.Registration, error) {
	var submitted domain.Registration

	err := r.dao.Transaction(ctx, func(tx *dao.RegistrationDAO) error {
		if err := tx.LockEvent(ctx, event.ID); err != nil {
			return fmt.Errorf("tx.LockEvent -> %w", err)
		}
		if err := tx.LockForm(ctx, form.ID); err != nil {
			return fmt.Errorf("tx.LockForm -> %w", err)
		}

		if limit, ok := event.ParticipantLimit(); ok {
			count, err := tx.CountSubmittedByEvent(ctx, event.ID)
			if err != nil {
				return fmt.Errorf("tx.CountSubmittedByEvent -> %w", err)
			}
			if count >= int64(limit) {
				return ErrEventFull
			}
		}

		if limit, ok := form.ResponseLimit(); ok {
			count, err := tx.CountSubmittedByEventAndForm(ctx, event.ID, form.ID)
			if err != nil {
				return fmt.Errorf("tx.CountSubmittedByEventAndForm -> %w", err)
			}
			if count >= int64(limit) {
				return ErrFormFull
			}
		}

		now := time.Now()

		registration, err := tx.FindByEventAndUser(ctx, event.ID, user.ID)
		switch {
		case err == nil:
			if registration.FormSubmitted {
				return ErrAlreadySubmitted
			}
			registration.FormID = form.ID
		case errors.Is(err, dao.ErrRegistrationNotFound):
			registration, err = tx.Insert(ctx, dao.Registration{
				EventID:         event.ID,
				UserID:          user.ID,
				FormID:          form.ID,
				StatusUpdatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("tx.Insert -> %w", err)
			}
		default:
			return fmt.Errorf("tx.FindByEventAndUser -> %w", err)
		}

		response, err := r.reuseOrCreateResponse(ctx, tx, registration, form.ID, user.ID)
		if err != nil {
			return err
		}

		if err = r.applyAnswerPlan(ctx, tx, response, answers); err != nil {
			return err
		}

		response.SubmittedAt = now
		if _, err = tx.SaveFormResponse(ctx, *response); err != nil {
			return fmt.Errorf("tx.SaveFormResponse -> %w", err)
		}

		registration.FormSubmitted = true
		registration.FormResponseID = &response.ID
		registration.StatusUpdatedAt = now
		if _, err = tx.Save(ctx, registration); err != nil {
			return fmt.Errorf("tx.Save -> %w", err)
		}

		if err = r.refreshLimitReached(ctx, tx, event.ID, form); err != nil {
			return err
		}

		reloaded, err := tx.FindByEventAndUser(ctx, event.ID, user.ID)
		if err != nil {
			return fmt.Errorf("tx.FindByEventAndUser -> %w", err)
		}
		submitted = r.registrationDaoToDomain(reloaded)

		return nil
	})
	if err != nil {
		return domain.Registration{}, err
	}

	return submitted, nil
}

// Update rewrites the answers of an already-submitted registration. Capacity
// is not re-checked; updating does not consume a new slot.
func (r *RegistrationRepository) Update(ctx context.Context, form domain.RegistrationForm, registration domain.Registration, answers []domain.FieldAnswer) (domain.Registration, error) {
	var updated domain.Registration

	err := r.dao.Transaction(ctx, func(tx *dao.RegistrationDAO) error {
		fresh, err := tx.FindByEventAndUser(ctx, registration.EventID, registration.UserID)
		if err != nil {
			return fmt.Errorf("tx.FindByEventAndUser -> %w", err)
		}

		response, err := r.reuseOrCreateResponse(ctx, tx, fresh, form.ID, registration.UserID)
		if err != nil {
			return err
		}

		if err = r.applyAnswerPlan(ctx, tx, response, answers); err != nil {
			return err
		}

		now := time.Now()
		response.SubmittedAt = now
		if _, err = tx.SaveFormResponse(ctx, *response); err != nil {
			return fmt.Errorf("tx.SaveFormResponse -> %w", err)
		}

		fresh.FormSubmitted = true
		fresh.FormResponseID = &response.ID
		fresh.StatusUpdatedAt = now
		if _, err = tx.Save(ctx, fresh); err != nil {
			return fmt.Errorf("tx.Save -> %w", err)
		}

		// The submitted count cannot change here, but the flag is recomputed
		// after every state-changing operation all the same.
		if err = r.refreshLimitReached(ctx, tx, registration.EventID, form); err != nil {
			return err
		}

		reloaded, err := tx.FindByEventAndUser(ctx, registration.EventID, registration.UserID)
		if err != nil {
			return fmt.Errorf("tx.FindByEventAndUser -> %w", err)
		}
		updated = r.registrationDaoToDomain(reloaded)

		return nil
	})
	if err != nil {
		return domain.Registration{}, err
	}

	return updated, nil
}

// Cancel tombstones the response and its answers, keeps the registration row,
// and flips it back to pending.
func (r *RegistrationRepository) Cancel(ctx context.Context, event domain.Event, form domain.RegistrationForm, registration domain.Registration) error {
	return r.dao.Transaction(ctx, func(tx *dao.RegistrationDAO) error {
		if err := tx.LockEvent(ctx, event.ID); err != nil {
			return fmt.Errorf("tx.LockEvent -> %w", err)
		}
		if err := tx.LockForm(ctx, form.ID); err != nil {
			return fmt.Errorf("tx.LockForm -> %w", err)
		}

		fresh, err := tx.FindByEventAndUser(ctx, registration.EventID, registration.UserID)
		if err != nil {
			return fmt.Errorf("tx.FindByEventAndUser -> %w", err)
		}

		if fresh.FormResponse != nil {
			rows := r.fieldResponsesDaoToDomain(fresh.FormResponse.FieldResponses)
			for _, row := range domain.TombstoneAnswers(rows) {
				if _, err = tx.SaveFieldResponse(ctx, r.fieldResponseDomainToDao(fresh.FormResponse.ID, row)); err != nil {
					return fmt.Errorf("tx.SaveFieldResponse -> %w", err)
				}
			}

			response := *fresh.FormResponse
			response.FieldResponses = nil
			response.IsDeleted = true
			if _, err = tx.SaveFormResponse(ctx, response); err != nil {
				return fmt.Errorf("tx.SaveFormResponse -> %w", err)
			}
		}

		fresh.FormSubmitted = false
		fresh.StatusUpdatedAt = time.Now()
		if _, err = tx.Save(ctx, fresh); err != nil {
			return fmt.Errorf("tx.Save -> %w", err)
		}

		return r.refreshLimitReached(ctx, tx, event.ID, form)
	})
}

func (r *RegistrationRepository) reuseOrCreateResponse(ctx context.Context, tx *dao.RegistrationDAO, registration dao.Registration, formID, participantID uint) (*dao.FormResponse, error) {
	if registration.FormResponse == nil {
		created, err := tx.InsertFormResponse(ctx, dao.FormResponse{
			FormID:        formID,
			ParticipantID: participantID,
		})
		if err != nil {
			return nil, fmt.Errorf("tx.InsertFormResponse -> %w", err)
		}

		return &created, nil
	}

	response := *registration.FormResponse
	response.IsDeleted = false

	return &response, nil
}

func (r *RegistrationRepository) applyAnswerPlan(ctx context.Context, tx *dao.RegistrationDAO, response *dao.FormResponse, answers []domain.FieldAnswer) error {
	existing := r.fieldResponsesDaoToDomain(response.FieldResponses)

	plan := domain.PlanAnswers(existing, answers)
	for _, row := range plan.Revive {
		if _, err := tx.SaveFieldResponse(ctx, r.fieldResponseDomainToDao(response.ID, row)); err != nil {
			return fmt.Errorf("tx.SaveFieldResponse -> %w", err)
		}
	}
	for _, answer := range plan.Create {
		_, err := tx.InsertFieldResponse(ctx, dao.FormFieldResponse{
			ResponseID: response.ID,
			FieldID:    answer.FieldID,
			Value:      answer.Value,
		})
		if err != nil {
			return fmt.Errorf("tx.InsertFieldResponse -> %w", err)
		}
	}

	return nil
}

// refreshLimitReached recomputes the denormalized capacity flag from the live
// submitted-count. Called after every submission and cancellation.
func (r *RegistrationRepository) refreshLimitReached(ctx context.Context, tx *dao.RegistrationDAO, eventID uint, form domain.RegistrationForm) error {
	reached := false
	if limit, ok := form.ResponseLimit(); ok {
		count, err := tx.CountSubmittedByEventAndForm(ctx, eventID, form.ID)
		if err != nil {
			return fmt.Errorf("tx.CountSubmittedByEventAndForm -> %w", err)
		}
		reached = count >= int64(limit)
	}

	if err := tx.SetFormLimitReached(ctx, form.ID, reached); err != nil {
		return fmt.Errorf("tx.SetFormLimitReached -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) registrationDaoToDomain(reg dao.Registration) domain.Registration {
	registration := domain.Registration{
		ID:              reg.ID,
		EventID:         reg.EventID,
		UserID:          reg.UserID,
		Username:        reg.User.Username,
		FormID:          reg.FormID,
		FormSubmitted:   reg.FormSubmitted,
		StatusUpdatedAt: reg.StatusUpdatedAt,
		CreatedAt:       reg.CreatedAt,
		UpdatedAt:       reg.UpdatedAt,
	}

	if reg.FormResponse != nil {
		registration.Response = &domain.FormResponse{
			ID:             reg.FormResponse.ID,
			FormID:         reg.FormResponse.FormID,
			ParticipantID:  reg.FormResponse.ParticipantID,
			Deleted:        reg.FormResponse.IsDeleted,
			SubmittedAt:    reg.FormResponse.SubmittedAt,
			FieldResponses: r.fieldResponsesDaoToDomain(reg.FormResponse.FieldResponses),
		}
	}

	return registration
}

func (r *RegistrationRepository) fieldResponsesDaoToDomain(rows []dao.FormFieldResponse) []domain.FormFieldResponse {
	responses := make([]domain.FormFieldResponse, len(rows))
	for i, row := range rows {
		state := domain.AnswerActive
		if row.IsDeleted {
			state = domain.AnswerTombstoned
		}

		responses[i] = domain.FormFieldResponse{
			ID:         row.ID,
			ResponseID: row.ResponseID,
			FieldID:    row.FieldID,
			FieldLabel: row.Field.Label,
			Value:      row.Value,
			State:      state,
		}
	}

	return responses
}

func (r *RegistrationRepository) fieldResponseDomainToDao(responseID uint, row domain.FormFieldResponse) dao.FormFieldResponse {
	return dao.FormFieldResponse{
		ID:         row.ID,
		ResponseID: responseID,
		FieldID:    row.FieldID,
		Value:      row.Value,
		IsDeleted:  row.State == domain.AnswerTombstoned,
	}
}
