package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"eventticketing/internal/clock"
	"eventticketing/internal/domain"
)

const (
	ticketCodeBytes = 6
	maxCodeAttempts = 5
)

type ticketIssuer struct {
	tx               domain.Transactor
	eventRepo        domain.EventRepository
	registrationRepo domain.RegistrationRepository
	ticketRepo       domain.TicketRepository
	payments         domain.PaymentVerifier
	qr               domain.QREncoder
	publisher        domain.EventPublisher
	clock            clock.Clock
	logger           *slog.Logger
	newCode          func() (string, error)
}

// NewTicketIssuer creates the registration and issuance workflow.
func NewTicketIssuer(
	tx domain.Transactor,
	eventRepo domain.EventRepository,
	registrationRepo domain.RegistrationRepository,
	ticketRepo domain.TicketRepository,
	payments domain.PaymentVerifier,
	qr domain.QREncoder,
	publisher domain.EventPublisher,
	clk clock.Clock,
	logger *slog.Logger,
) domain.TicketIssuer {
	return &ticketIssuer{
		tx:               tx,
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		ticketRepo:       ticketRepo,
		payments:         payments,
		qr:               qr,
		publisher:        publisher,
		clock:            clk,
		logger:           logger,
		newCode:          newTicketCode,
	}
}

// newTicketCode returns TKT- followed by 12 lowercase hex characters from crypto/rand.
func newTicketCode() (string, error) {
	b := make([]byte, ticketCodeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate ticket code: %w", err)
	}
	return domain.TicketCodePrefix + hex.EncodeToString(b), nil
}

func normalizeIssueInput(in domain.IssueTicketInput) (domain.IssueTicketInput, error) {
	in.EventID = strings.TrimSpace(in.EventID)
	in.UserID = strings.TrimSpace(in.UserID)
	in.Contact.Name = strings.TrimSpace(in.Contact.Name)
	in.Contact.Email = strings.TrimSpace(strings.ToLower(in.Contact.Email))
	in.Contact.Phone = strings.TrimSpace(in.Contact.Phone)
	in.PaymentReference = strings.TrimSpace(in.PaymentReference)

	var problems []string
	if in.EventID == "" {
		problems = append(problems, "event id is required")
	}
	if in.UserID == "" {
		problems = append(problems, "user id is required")
	}
	if in.Contact.Name == "" {
		problems = append(problems, "name is required")
	}
	if in.Contact.Email == "" {
		problems = append(problems, "email is required")
	} else if !emailRegexp.MatchString(in.Contact.Email) {
		problems = append(problems, "invalid email format")
	}
	if in.Contact.Phone == "" {
		problems = append(problems, "phone is required")
	}
	if len(problems) > 0 {
		return in, fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(problems, "; "))
	}
	return in, nil
}

func (s *ticketIssuer) CheckRegistration(ctx context.Context, eventID, userID string) error {
	if strings.TrimSpace(eventID) == "" || strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: event id and user id are required", domain.ErrValidation)
	}
	_, err := s.registrationRepo.GetByEventAndUser(ctx, eventID, userID)
	switch {
	case err == nil:
		return domain.ErrAlreadyRegistered
	case errors.Is(err, domain.ErrNotFound):
		return nil
	}
	return fmt.Errorf("get event registration: %w", err)
}

// Issue registers the user and issues the ticket. Payment is confirmed before the
// transaction opens; the duplicate re-check, capacity increment, registration,
// ticket and QR encoding then commit or roll back together.
func (s *ticketIssuer) Issue(ctx context.Context, in domain.IssueTicketInput) (*domain.Issuance, error) {
	in, err := normalizeIssueInput(in)
	if err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, in.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("event %s: %w", in.EventID, err)
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if err := s.CheckRegistration(ctx, event.ID, in.UserID); err != nil {
		return nil, err
	}
	if !event.HasCapacity() {
		return nil, domain.ErrSoldOut
	}

	amount := decimal.Zero
	var reference *string
	if !event.IsFree() {
		res, err := s.verifyPayment(ctx, in.PaymentReference, event.Price)
		if err != nil {
			return nil, err
		}
		amount = res.AmountPaid
		reference = &in.PaymentReference
	}

	var issued *domain.Issuance
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.CheckRegistration(ctx, event.ID, in.UserID); err != nil {
			return err
		}
		reserved, err := s.eventRepo.ReserveTicket(ctx, event.ID)
		if err != nil {
			if errors.Is(err, domain.ErrSoldOut) || errors.Is(err, domain.ErrNotFound) {
				return err
			}
			return fmt.Errorf("reserve ticket: %w", err)
		}
		// The price may have changed since the event was read; the locked row decides.
		if !reserved.IsFree() && amount.LessThan(reserved.Price) {
			return fmt.Errorf("%w: ticket price is now %s but %s was paid", domain.ErrPaymentFailed, reserved.Price.StringFixed(2), amount.StringFixed(2))
		}

		now := s.clock.Now()
		reg := domain.NewRegistration(event.ID, in.UserID, in.Contact, now)
		reg.PaymentStatus = domain.PaymentStatusPaid
		reg.AmountPaid = amount
		reg.PaymentReference = reference
		if err := s.registrationRepo.Create(ctx, reg); err != nil {
			if errors.Is(err, domain.ErrAlreadyRegistered) || errors.Is(err, domain.ErrPaymentFailed) {
				return err
			}
			return fmt.Errorf("create registration: %w", err)
		}

		ticket := &domain.Ticket{
			RegistrationID: reg.ID,
			EventID:        event.ID,
			UserID:         in.UserID,
			EventDetails:   reserved.Snapshot(),
			Name:           reg.Name,
			Email:          reg.Email,
			Phone:          reg.Phone,
			IssuedAt:       now,
		}
		if err := s.insertTicket(ctx, ticket); err != nil {
			return err
		}

		qr, err := s.encodeQR(ticket)
		if err != nil {
			return err
		}
		issued = &domain.Issuance{
			Registration: reg,
			Ticket:       &domain.TicketWithQR{Ticket: ticket, QRCode: qr},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.RoutingKeyTicketIssued, domain.TicketIssuedEvent{
		TicketID:       issued.Ticket.ID,
		TicketCode:     issued.Ticket.TicketCode,
		RegistrationID: issued.Registration.ID,
		EventID:        issued.Ticket.EventID,
		UserID:         issued.Ticket.UserID,
		Email:          issued.Ticket.Email,
		AmountPaid:     issued.Registration.AmountPaid.StringFixed(2),
		IssuedAt:       issued.Ticket.IssuedAt,
	})
	return issued, nil
}

// verifyPayment trusts only the provider's amount, never anything the client sent.
func (s *ticketIssuer) verifyPayment(ctx context.Context, reference string, price decimal.Decimal) (*domain.PaymentResult, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: payment reference is required for paid events", domain.ErrPaymentFailed)
	}
	res, err := s.payments.Verify(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}
	if res == nil || !res.Success {
		return nil, fmt.Errorf("%w: transaction %q was not successful", domain.ErrPaymentFailed, reference)
	}
	if res.AmountPaid.LessThan(price) {
		return nil, fmt.Errorf("%w: paid %s but the ticket costs %s", domain.ErrPaymentFailed, res.AmountPaid.StringFixed(2), price.StringFixed(2))
	}
	return res, nil
}

// insertTicket retries with a fresh code when the generated one is already taken.
func (s *ticketIssuer) insertTicket(ctx context.Context, ticket *domain.Ticket) error {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return err
		}
		ticket.TicketCode = code
		inserted, err := s.ticketRepo.Create(ctx, ticket)
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyRegistered) {
				return err
			}
			return fmt.Errorf("create ticket: %w", err)
		}
		if inserted {
			return nil
		}
		s.logger.WarnContext(ctx, "ticket code collision", "attempt", attempt)
	}
	return fmt.Errorf("create ticket: no unique code after %d attempts", maxCodeAttempts)
}

func (s *ticketIssuer) encodeQR(ticket *domain.Ticket) (string, error) {
	payload, err := json.Marshal(ticket.QRPayload())
	if err != nil {
		return "", fmt.Errorf("marshal qr payload: %w", err)
	}
	qr, err := s.qr.Encode(payload)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return qr, nil
}

// publish runs after commit; a broker failure is logged and never undoes the write.
func (s *ticketIssuer) publish(ctx context.Context, routingKey string, payload any) {
	publish(ctx, s.publisher, s.logger, routingKey, payload)
}

func publish(ctx context.Context, p domain.EventPublisher, logger *slog.Logger, routingKey string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, routingKey, payload); err != nil {
		logger.WarnContext(ctx, "publish ticket event failed", "routing_key", routingKey, "err", err)
	}
}
