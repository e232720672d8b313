package controllers

import (
	"log/slog"
	"net/http"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/domain"
)

// TicketsSuccessResponse is the success envelope for GET /attendee/tickets.
type TicketsSuccessResponse struct {
	Data  []*domain.Ticket  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// TicketSuccessResponse is the success envelope for GET /attendee/tickets/{eventID}.
type TicketSuccessResponse struct {
	Data  *domain.TicketWithQR `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type AttendeeController struct {
	Logger  *slog.Logger
	Service domain.AttendeeService
}

func NewAttendeeController(logger *slog.Logger, svc domain.AttendeeService) *AttendeeController {
	return &AttendeeController{
		Logger:  logger,
		Service: svc,
	}
}

// ListMyEvents godoc
// @Summary Events the caller is registered for
// @Tags attendee
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.EventsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /attendee/events [get]
func (c *AttendeeController) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	events, err := c.Service.ListMyEvents(r.Context(), caller.UserID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// ListMyTickets godoc
// @Summary The caller's tickets
// @Tags attendee
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.TicketsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /attendee/tickets [get]
func (c *AttendeeController) ListMyTickets(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	tickets, err := c.Service.ListMyTickets(r.Context(), caller.UserID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, tickets)
}

// GetMyTicket godoc
// @Summary The caller's ticket for one event
// @Description Returns the ticket with a freshly encoded QR image.
// @Tags attendee
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.TicketSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /attendee/tickets/{eventID} [get]
func (c *AttendeeController) GetMyTicket(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	ticket, err := c.Service.GetMyTicket(r.Context(), eventID, caller.UserID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ticket)
}
