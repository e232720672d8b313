package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/domain"
)

// RegisterRequest is the request body for POST /events/register/{eventID}.
// payment_reference is required only when the event has a price.
type RegisterRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	PaymentReference string `json:"payment_reference"`
}

// Validate implements Validator.
func (req RegisterRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		errs = append(errs, "email is required")
	}
	if strings.TrimSpace(req.Phone) == "" {
		errs = append(errs, "phone is required")
	}
	return errs
}

// VerifyPaymentRequest is the request body for POST /verify-payment.
type VerifyPaymentRequest struct {
	EventID   string `json:"event_id"`
	Reference string `json:"reference"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Validate implements Validator.
func (req VerifyPaymentRequest) Validate() []string {
	errs := RegisterRequest{Name: req.Name, Email: req.Email, Phone: req.Phone}.Validate()
	if strings.TrimSpace(req.EventID) == "" {
		errs = append(errs, "event_id is required")
	} else if _, err := uuid.Parse(strings.TrimSpace(req.EventID)); err != nil {
		errs = append(errs, "invalid event_id")
	}
	if strings.TrimSpace(req.Reference) == "" {
		errs = append(errs, "reference is required")
	}
	return errs
}

// IssuanceSuccessResponse is the success envelope for registration endpoints (201).
type IssuanceSuccessResponse struct {
	Data  *domain.Issuance  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// VerifyTicketResponse is the data of a successful gate scan.
type VerifyTicketResponse struct {
	Success bool                  `json:"success"`
	Ticket  *domain.TicketSummary `json:"ticket"`
}

// VerifyTicketSuccessResponse is the success envelope for GET /verify-ticket (200).
type VerifyTicketSuccessResponse struct {
	Data  VerifyTicketResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// RegistrationStatus is the data of GET /check-registration.
type RegistrationStatus struct {
	Registered bool `json:"registered"`
}

type TicketController struct {
	Logger   *slog.Logger
	Issuer   domain.TicketIssuer
	Verifier domain.TicketVerifier
}

func NewTicketController(logger *slog.Logger, issuer domain.TicketIssuer, verifier domain.TicketVerifier) *TicketController {
	return &TicketController{
		Logger:   logger,
		Issuer:   issuer,
		Verifier: verifier,
	}
}

// Register godoc
// @Summary Register for an event
// @Description Registers the caller and issues a ticket with its QR image in one transaction. Paid events need a payment_reference that the payment provider confirms for at least the ticket price; the recorded amount is the provider's.
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body RegisterRequest true "Attendee contact"
// @Success 201 {object} controllers.IssuanceSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or payment_failed"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: already_registered or sold_out"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/register/{eventID} [post]
func (c *TicketController) Register(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req RegisterRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	c.issue(w, r, domain.IssueTicketInput{
		EventID:          eventID,
		UserID:           caller.UserID,
		Contact:          domain.Contact{Name: req.Name, Email: req.Email, Phone: req.Phone},
		PaymentReference: req.PaymentReference,
	})
}

// VerifyPayment godoc
// @Summary Confirm a payment and register
// @Description Checks the transaction reference with the payment provider, then registers the caller and issues the ticket. A reference can back only one registration.
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body VerifyPaymentRequest true "Payment reference and attendee contact"
// @Success 201 {object} controllers.IssuanceSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or payment_failed"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: already_registered or sold_out"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /verify-payment [post]
func (c *TicketController) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req VerifyPaymentRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	c.issue(w, r, domain.IssueTicketInput{
		EventID:          strings.TrimSpace(req.EventID),
		UserID:           caller.UserID,
		Contact:          domain.Contact{Name: req.Name, Email: req.Email, Phone: req.Phone},
		PaymentReference: req.Reference,
	})
}

func (c *TicketController) issue(w http.ResponseWriter, r *http.Request, in domain.IssueTicketInput) {
	issued, err := c.Issuer.Issue(r.Context(), in)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, issued)
}

// VerifyTicket godoc
// @Summary Verify a ticket at the gate
// @Description Admits the ticket exactly once. Public and rate limited per client IP.
// @Tags tickets
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param ticketCode path string true "Ticket code (TKT-xxxxxxxxxxxx)"
// @Success 200 {object} controllers.VerifyTicketSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: ticket_mismatch or ticket_already_used"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_requests"
// @Router /verify-ticket/{eventID}/{ticketCode} [get]
func (c *TicketController) VerifyTicket(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	code := strings.TrimSpace(r.PathValue("ticketCode"))
	if code == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing ticketCode")
		return
	}
	summary, err := c.Verifier.Verify(r.Context(), eventID, code)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, VerifyTicketResponse{Success: true, Ticket: summary})
}

// CheckRegistration godoc
// @Summary Check whether the caller is registered
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param eventId query string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data.registered is false"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: already_registered"
// @Router /check-registration [get]
func (c *TicketController) CheckRegistration(w http.ResponseWriter, r *http.Request) {
	eventID, ok := queryUUID(w, r, "eventId")
	if !ok {
		return
	}
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	if err := c.Issuer.CheckRegistration(r.Context(), eventID, caller.UserID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RegistrationStatus{Registered: false})
}
