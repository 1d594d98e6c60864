package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/educonnect/educonnect-api/internal/api/handler/v1/request"
	"github.com/educonnect/educonnect-api/internal/api/handler/v1/response"
	"github.com/educonnect/educonnect-api/internal/domain"
	"github.com/educonnect/educonnect-api/internal/service"
)

type EventService interface {
	CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error)
	GetEvent(ctx context.Context, id uint) (domain.Event, error)
	GetEvents(ctx context.Context) ([]domain.Event, error)
	CreateForm(ctx context.Context, form domain.RegistrationForm, user domain.User) (domain.RegistrationForm, error)
	GetForm(ctx context.Context, eventID, formID uint) (domain.RegistrationForm, error)
	GetForms(ctx context.Context, eventID uint) ([]domain.RegistrationForm, error)
	AddField(ctx context.Context, eventID uint, field domain.FormField, user domain.User) (domain.FormField, error)
	RemoveField(ctx context.Context, eventID, formID, fieldID uint, user domain.User) error
}

type EventHandler struct {
	svc  EventService
	uSvc UserService
}

func NewEventHandler(svc EventService, uSvc UserService) *EventHandler {
	return &EventHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleCreateEvent godoc
// @Summary      Create a new event
// @Description  Creates an event. Only organizers can create events.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateEventRequest  true  "Event details"
// @Success      201    {object}  domain.Event
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /events [post]
// @Security BearerAuth
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if user.Role != "organizer" {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v is not an organizer", user.ID)))
		return
	}

	var input request.CreateEventRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	startDate, err := time.Parse(time.RFC3339, input.StartDate)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.CreateEvent(ctx.Request.Context(), domain.Event{
		Title:           input.Title,
		Description:     input.Description,
		Location:        input.Location,
		StartDate:       startDate,
		MaxParticipants: input.MaxParticipants,
		CreatedByID:     user.ID,
	})
	if err != nil {
		err = fmt.Errorf("v1.HandleCreateEvent -> h.svc.CreateEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, event)
}

// HandleGetEvents godoc
// @Summary      List events
// @Tags         events
// @Produce      json
// @Success      200  {array}   domain.Event
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events [get]
// @Security BearerAuth
func (h *EventHandler) HandleGetEvents(ctx *gin.Context) {
	events, err := h.svc.GetEvents(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleGetEvents -> h.svc.GetEvents -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleGetEvent godoc
// @Summary      Get an event by ID
// @Tags         events
// @Produce      json
// @Param        eventID  path      int  true  "event ID"
// @Success      200      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID} [get]
// @Security BearerAuth
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	eventID, ok := pathID(ctx, "eventID")
	if !ok {
		return
	}

	event, err := h.svc.GetEvent(ctx.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
			return
		}

		err = fmt.Errorf("v1.HandleGetEvent -> h.svc.GetEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleCreateForm godoc
// @Summary      Publish a registration form for an event
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                        true  "event ID"
// @Param        input    body      request.CreateFormRequest  true  "Form details"
// @Success      201      {object}  domain.RegistrationForm
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/forms [post]
// @Security BearerAuth
func (h *EventHandler) HandleCreateForm(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, ok := pathID(ctx, "eventID")
	if !ok {
		return
	}

	var input request.CreateFormRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	form := domain.RegistrationForm{
		EventID:      eventID,
		Title:        input.Title,
		IsActive:     true,
		MaxResponses: input.MaxResponses,
	}
	if input.IsActive != nil {
		form.IsActive = *input.IsActive
	}
	if input.Deadline != nil {
		deadline, err := time.Parse(time.RFC3339, *input.Deadline)
		if err != nil {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}
		form.Deadline = &deadline
	}

	created, err := h.svc.CreateForm(ctx.Request.Context(), form, user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		case errors.Is(err, service.ErrNotEventCreator):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotEventCreator))
		default:
			err = fmt.Errorf("v1.HandleCreateForm -> h.svc.CreateForm -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleGetForms godoc
// @Summary      List an event's registration forms
// @Tags         events
// @Produce      json
// @Param        eventID  path      int  true  "event ID"
// @Success      200      {array}   domain.RegistrationForm
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/forms [get]
// @Security BearerAuth
func (h *EventHandler) HandleGetForms(ctx *gin.Context) {
	eventID, ok := pathID(ctx, "eventID")
	if !ok {
		return
	}

	forms, err := h.svc.GetForms(ctx.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
			return
		}

		err = fmt.Errorf("v1.HandleGetForms -> h.svc.GetForms -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, forms)
}

// HandleGetForm godoc
// @Summary      Get a registration form with its fields
// @Tags         events
// @Produce      json
// @Param        eventID  path      int  true  "event ID"
// @Param        formID   path      int  true  "form ID"
// @Success      200      {object}  domain.RegistrationForm
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/forms/{formID} [get]
// @Security BearerAuth
func (h *EventHandler) HandleGetForm(ctx *gin.Context) {
	eventID, ok := pathID(ctx, "eventID")
	if !ok {
		return
	}
	formID, ok := pathID(ctx, "formID")
	if !ok {
		return
	}

	form, err := h.svc.GetForm(ctx.Request.Context(), eventID, formID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFormNotFound):
			response.RenderErr(ctx, response.ErrNotFound("form", "ID", formID))
		case errors.Is(err, service.ErrFormNotOwnedByEvent):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrFormNotOwnedByEvent))
		default:
			err = fmt.Errorf("v1.HandleGetForm -> h.svc.GetForm -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, form)
}

// HandleAddField godoc
// @Summary      Add a field to a registration form
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                         true  "event ID"
// @Param        formID   path      int                         true  "form ID"
// @Param        input    body      request.CreateFieldRequest  true  "Field details"
// @Success      201      {object}  domain.FormField
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/forms/{formID}/fields [post]
// @Security BearerAuth
func (h *EventHandler) HandleAddField(ctx *gin.Context) {
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

	var input request.CreateFieldRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	field, err := h.svc.AddField(ctx.Request.Context(), eventID, domain.FormField{
		FormID:   formID,
		Label:    input.Label,
		Type:     domain.FieldType(input.Type),
		Required: input.Required,
		Options:  input.Options,
	}, user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		case errors.Is(err, service.ErrFormNotFound):
			response.RenderErr(ctx, response.ErrNotFound("form", "ID", formID))
		case errors.Is(err, service.ErrNotEventCreator):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotEventCreator))
		case errors.Is(err, service.ErrFormNotOwnedByEvent),
			errors.Is(err, service.ErrChoiceFieldNeedsOptions):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleAddField -> h.svc.AddField -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, field)
}

// HandleRemoveField godoc
// @Summary      Soft-delete a form field
// @Description  Removes a field from validation. Historical answers are kept.
// @Tags         events
// @Produce      json
// @Param        eventID  path  int  true  "event ID"
// @Param        formID   path  int  true  "form ID"
// @Param        fieldID  path  int  true  "field ID"
// @Success      204
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/forms/{formID}/fields/{fieldID} [delete]
// @Security BearerAuth
func (h *EventHandler) HandleRemoveField(ctx *gin.Context) {
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
	fieldID, ok := pathID(ctx, "fieldID")
	if !ok {
		return
	}

	err := h.svc.RemoveField(ctx.Request.Context(), eventID, formID, fieldID, user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		case errors.Is(err, service.ErrFieldNotFound):
			response.RenderErr(ctx, response.ErrNotFound("field", "ID", fieldID))
		case errors.Is(err, service.ErrNotEventCreator):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotEventCreator))
		default:
			err = fmt.Errorf("v1.HandleRemoveField -> h.svc.RemoveField -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}

// pathID parses a numeric path parameter, rendering a 400 on failure.
func pathID(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid %v %q", name, raw)))
		return 0, false
	}

	return uint(id), true
}
