package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/domain"
)

// EventRequest is the request body for POST /events and PUT /events/{eventID}.
type EventRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Date         string          `json:"date" example:"2026-05-01"`
	Time         string          `json:"time" example:"18:30"`
	Location     string          `json:"location"`
	Category     string          `json:"category"`
	ImageURL     string          `json:"image_url"`
	Organizer    string          `json:"organizer"`
	Price        decimal.Decimal `json:"price" swaggertype:"string" example:"2500.00"`
	TotalTickets *int            `json:"total_tickets"`

	date time.Time
}

// Validate implements Validator. The service repeats the business rules; this only
// checks what cannot be carried into domain.EventInput.
func (e *EventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(e.Date) == "" {
		errs = append(errs, "date is required")
	} else if d, err := time.Parse(domain.DateLayout, strings.TrimSpace(e.Date)); err != nil {
		errs = append(errs, "date must be YYYY-MM-DD")
	} else {
		e.date = d
	}
	return errs
}

func (e *EventRequest) input() domain.EventInput {
	return domain.EventInput{
		Title:        e.Title,
		Description:  e.Description,
		Date:         e.date,
		Time:         e.Time,
		Location:     e.Location,
		Category:     e.Category,
		ImageURL:     e.ImageURL,
		Organizer:    e.Organizer,
		Price:        e.Price,
		TotalTickets: e.TotalTickets,
	}
}

// EventSuccessResponse is the success envelope for single-event endpoints.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListResponse is the data of a paginated event listing.
type EventListResponse struct {
	Events     []*domain.Event        `json:"events"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// EventListSuccessResponse is the success envelope for GET /events and GET /events/search.
type EventListSuccessResponse struct {
	Data  EventListResponse `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventsSuccessResponse is the success envelope for unpaginated event lists.
type EventsSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEvent godoc
// @Summary Create an event
// @Description Organizer only. tickets_sold always starts at 0 and the payout reference is copied from the organizer profile. Omit total_tickets for unlimited capacity.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body EventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.Create(r.Context(), caller.UserID, req.input())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListEvents godoc
// @Summary List events
// @Description Public listing ordered by date.
// @Tags events
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 10, max 100)"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.List(r.Context(), params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	c.writePage(w, events, total, params)
}

// SearchEvents godoc
// @Summary Search events
// @Description Case-insensitive match on title, description, location and category. An empty q lists everything.
// @Tags events
// @Produce json
// @Param q query string false "Search text"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 10, max 100)"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/search [get]
func (c *EventController) SearchEvents(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.Search(r.Context(), r.URL.Query().Get("q"), params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	c.writePage(w, events, total, params)
}

func (c *EventController) writePage(w http.ResponseWriter, events []*domain.Event, total int, params domain.PaginationParams) {
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, EventListResponse{
		Events:     events,
		Pagination: helpers.NewPaginationMeta(params, total),
	})
}

// GetEvent godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.GetByID(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Owner only. Replaces the editable fields; tickets_sold is never taken from the body and total_tickets cannot drop below it.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param event body EventRequest true "Event data"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.Update(r.Context(), eventID, caller.UserID, req.input())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Owner only. Refused with 409 once any ticket has been issued for the event.
// @Tags events
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 204
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: event_has_tickets"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), eventID, caller.UserID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListOrganizerEvents godoc
// @Summary List the caller's events
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.EventsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /organizer/events [get]
func (c *EventController) ListOrganizerEvents(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	events, err := c.Service.ListByOwner(r.Context(), caller.UserID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}
