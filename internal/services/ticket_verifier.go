package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"eventticketing/internal/clock"
	"eventticketing/internal/domain"
)

type ticketVerifier struct {
	ticketRepo domain.TicketRepository
	publisher  domain.EventPublisher
	clock      clock.Clock
	logger     *slog.Logger
}

// NewTicketVerifier creates the gate verification workflow.
func NewTicketVerifier(ticketRepo domain.TicketRepository, publisher domain.EventPublisher, clk clock.Clock, logger *slog.Logger) domain.TicketVerifier {
	return &ticketVerifier{
		ticketRepo: ticketRepo,
		publisher:  publisher,
		clock:      clk,
		logger:     logger,
	}
}

// Verify consumes the ticket with a single conditional update. When nothing was
// updated the ticket is read back only to report why.
func (s *ticketVerifier) Verify(ctx context.Context, eventID, ticketCode string) (*domain.TicketSummary, error) {
	eventID = strings.TrimSpace(eventID)
	ticketCode = strings.TrimSpace(ticketCode)
	if eventID == "" || ticketCode == "" {
		return nil, fmt.Errorf("%w: event id and ticket code are required", domain.ErrValidation)
	}

	ticket, err := s.ticketRepo.MarkUsed(ctx, eventID, ticketCode, s.clock.Now())
	if err == nil {
		publish(ctx, s.publisher, s.logger, domain.RoutingKeyTicketVerified, domain.TicketVerifiedEvent{
			TicketCode: ticket.TicketCode,
			EventID:    ticket.EventID,
			UsedAt:     *ticket.UsedAt,
		})
		return ticket.Summary(), nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("mark ticket used: %w", err)
	}

	existing, err := s.ticketRepo.GetByCode(ctx, ticketCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("ticket %s: %w", ticketCode, err)
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	if existing.EventID != eventID {
		return nil, domain.ErrTicketMismatch
	}
	if existing.Used {
		return nil, domain.ErrTicketAlreadyUsed
	}
	return nil, fmt.Errorf("verify ticket %s: no row updated for an unused ticket", ticketCode)
}
