package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/educonnect/educonnect-api/internal/api/handler/v1/request"
	"github.com/educonnect/educonnect-api/internal/api/handler/v1/response"
	"github.com/educonnect/educonnect-api/internal/domain"
	"github.com/educonnect/educonnect-api/internal/service"
)

type RegistrationService interface {
	Submit(ctx context.Context, eventID, formID uint, answers []domain.FieldAnswer, user domain.User) (domain.RegistrationView, error)
	GetUserRegistration(ctx context.Context, eventID, formID uint, user domain.User) (domain.RegistrationView, error)
	Update(ctx context.Context, eventID, formID uint, answers []domain.FieldAnswer, user domain.User) (domain.RegistrationView, error)
	Cancel(ctx context.Context, eventID, formID uint, user domain.User) error
	CheckEligibility(ctx context.Context, eventID, formID uint, user domain.User) (string, error)
	ListAnswers(ctx context.Context, eventID, formID uint, user domain.User) ([]domain.RegistrationView, error)
}

type RegistrationHandler struct {
	svc  RegistrationService
	uSvc UserService
}

func NewRegistrationHandler(svc RegistrationService, uSvc UserService) *RegistrationHandler {
	return &RegistrationHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleSubmit godoc
// @Summary      Submit a registration form
// @Description  Registers the caller for the event with the supplied answers.
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                                true  "event ID"
// @Param        formID   path      int                                true  "form ID"
// @Param        input    body      request.SubmitRegistrationRequest  true  "Field answers"
// @Success      201      {object}  domain.RegistrationView
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/forms/{formID}/submit [post]
// @Security BearerAuth
func (h *RegistrationHandler) HandleSubmit(ctx *gin.Context) {
	user, eventID, formID, answers, ok := h.bindSubmission(ctx)
	if !ok {
		return
	}

	view, err := h.svc.Submit(ctx.Request.Context(), eventID, formID, answers, user)
	if err != nil {
		h.renderRegistrationErr(ctx, err, eventID, formID, "v1.HandleSubmit -> h.svc.Submit")
		return
	}

	ctx.JSON(http.StatusCreated, view)
}

// HandleGetRegistration godoc
// @Summary      Get the caller's registration for a form
// @Tags         registrations
// @Produce      json
// @Param        eventID  path      int  true  "event ID"
// @Param        formID   path      int  true  "form ID"
// @Success      200      {object}  domain.RegistrationView
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/forms/{formID}/registration [get]
// @Security BearerAuth
func (h *RegistrationHandler) HandleGetRegistration(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, ok := pathID(ctx, "eventID")
	if !ok {
		return
	}
	formID, ok := pathID(ctx, "formID")
	if !ok {
		return
	}

	view, err := h.svc.GetUserRegistration(ctx.Request.Context(), eventID, formID, user)
	if err != nil {
		h.renderRegistrationErr(ctx, err, eventID, formID, "v1.HandleGetRegistration -> h.svc.GetUserRegistration")
		return
	}

	ctx.JSON(http.StatusOK, view)
}

// HandleUpdate godoc
// @Summary      Update a submitted registration
// @Description  Overwrites the supplied answers in place. Answers for fields
// @Description  left out of the payload keep their current values.
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                                true  "event ID"
// @Param        formID   path      int                                true  "form ID"
// @Param        input    body      request.SubmitRegistrationRequest  true  "Field answers"
// @Success      200      {object}  domain.RegistrationView
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/forms/{formID}/update [put]
// @Security BearerAuth
func (h *RegistrationHandler) HandleUpdate(ctx *gin.Context) {
	user, eventID, formID, answers, ok := h.bindSubmission(ctx)
	if !ok {
		return
	}

	view, err := h.svc.Update(ctx.Request.Context(), eventID, formID, answers, user)
	if err != nil {
		h.renderRegistrationErr(ctx, err, eventID, formID, "v1.HandleUpdate -> h.svc.Update")
		return
	}

	ctx.JSON(http.StatusOK, view)
}

// HandleCancel godoc
// @Summary      Cancel a submitted registration
// @Description  Tombstones the caller's answers and frees the capacity slot.
// @Tags         registrations
// @Produce      json
// @Param        eventID  path  int  true  "event ID"
// @Param        formID   path  int  true  "form ID"
// @Success      204
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/forms/{formID}/cancel [post]
// @Security BearerAuth
func (h *RegistrationHandler) HandleCancel(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, ok := pathID(ctx, "eventID")
	if !ok {
		return
	}
	formID, ok := pathID(ctx, "formID")
	if !ok {
		return
	}

	if err := h.svc.Cancel(ctx.Request.Context(), eventID, formID, user); err != nil {
		h.renderRegistrationErr(ctx, err, eventID, formID, "v1.HandleCancel -> h.svc.Cancel")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleCheckEligibility godoc
// @Summary      Check whether the caller can register
// @Description  Runs the submission gate checks without writing anything.
// @Tags         registrations
// @Produce      json
// @Param        eventID  path      int  true  "event ID"
// @Param        formID   path      int  true  "form ID"
// @Success      200      {object}  response.EligibilityResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/forms/{formID}/check-eligibility [get]
// @Security BearerAuth
func (h *RegistrationHandler) HandleCheckEligibility(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, ok := pathID(ctx, "eventID")
	if !ok {
		return
	}
	formID, ok := pathID(ctx, "formID")
	if !ok {
		return
	}

	status, err := h.svc.CheckEligibility(ctx.Request.Context(), eventID, formID, user)
	if err != nil {
		h.renderRegistrationErr(ctx, err, eventID, formID, "v1.HandleCheckEligibility -> h.svc.CheckEligibility")
		return
	}

	ctx.JSON(http.StatusOK, response.EligibilityResponse{Status: status})
}

// HandleListAnswers godoc
// @Summary      List submitted registrations for a form
// @Description  Organizer-only view of every submitted registration and its
// @Description  active answers.
// @Tags         registrations
// @Produce      json
// @Param        eventID  path      int  true  "event ID"
// @Param        formID   path      int  true  "form ID"
// @Success      200      {array}   domain.RegistrationView
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/forms/{formID}/answers [get]
// @Security BearerAuth
func (h *RegistrationHandler) HandleListAnswers(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, ok := pathID(ctx, "eventID")
	if !ok {
		return
	}
	formID, ok := pathID(ctx, "formID")
	if !ok {
		return
	}

	views, err := h.svc.ListAnswers(ctx.Request.Context(), eventID, formID, user)
	if err != nil {
		if errors.Is(err, service.ErrNotEventCreator) {
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotEventCreator))
			return
		}

		h.renderRegistrationErr(ctx, err, eventID, formID, "v1.HandleListAnswers -> h.svc.ListAnswers")
		return
	}

	ctx.JSON(http.StatusOK, views)
}

// bindSubmission resolves the caller, path IDs and the answer payload shared
// by submit and update.
func (h *RegistrationHandler) bindSubmission(ctx *gin.Context) (domain.User, uint, uint, []domain.FieldAnswer, bool) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return domain.User{}, 0, 0, nil, false
	}

	eventID, ok := pathID(ctx, "eventID")
	if !ok {
		return domain.User{}, 0, 0, nil, false
	}
	formID, ok := pathID(ctx, "formID")
	if !ok {
		return domain.User{}, 0, 0, nil, false
	}

	var input request.SubmitRegistrationRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return domain.User{}, 0, 0, nil, false
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return domain.User{}, 0, 0, nil, false
	}

	answers := make([]domain.FieldAnswer, 0, len(input.Responses))
	for _, r := range input.Responses {
		answers = append(answers, domain.FieldAnswer{
			FieldID: r.FieldID,
			Value:   r.Value,
		})
	}

	return user, eventID, formID, answers, true
}

func (h *RegistrationHandler) renderRegistrationErr(ctx *gin.Context, err error, eventID, formID uint, op string) {
	var vErr *service.ValidationError

	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
	case errors.Is(err, service.ErrFormNotFound),
		errors.Is(err, service.ErrFormNotOwnedByEvent):
		response.RenderErr(ctx, response.ErrNotFound("form", "ID", formID))
	case errors.Is(err, service.ErrRegistrationNotFound):
		response.RenderErr(ctx, response.ErrNotFound("registration", "form ID", formID))
	case errors.Is(err, service.ErrAlreadySubmitted),
		errors.Is(err, service.ErrRegistrationExists):
		response.RenderErr(ctx, &response.Err{
			StatusCode: http.StatusConflict,
			Msg:        "already registered for this event",
		})
	case errors.As(err, &vErr),
		errors.Is(err, service.ErrFormInactive),
		errors.Is(err, service.ErrDeadlinePassed),
		errors.Is(err, service.ErrEventStarted),
		errors.Is(err, service.ErrNotSubmitted),
		errors.Is(err, service.ErrEventFull),
		errors.Is(err, service.ErrFormFull):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%v -> %w", op, err)))
	}
}
