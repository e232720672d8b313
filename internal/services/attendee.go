package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"eventticketing/internal/domain"
)

type attendeeService struct {
	eventRepo  domain.EventRepository
	ticketRepo domain.TicketRepository
	qr         domain.QREncoder
}

// NewAttendeeService creates an AttendeeService with the given repositories.
func NewAttendeeService(eventRepo domain.EventRepository, ticketRepo domain.TicketRepository, qr domain.QREncoder) domain.AttendeeService {
	return &attendeeService{
		eventRepo:  eventRepo,
		ticketRepo: ticketRepo,
		qr:         qr,
	}
}

func (s *attendeeService) ListMyEvents(ctx context.Context, userID string) ([]*domain.Event, error) {
	events, err := s.eventRepo.ListByAttendee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list registered events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *attendeeService) ListMyTickets(ctx context.Context, userID string) ([]*domain.Ticket, error) {
	tickets, err := s.ticketRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	if tickets == nil {
		tickets = []*domain.Ticket{}
	}
	return tickets, nil
}

// GetMyTicket returns the caller's ticket for the event with a freshly encoded QR image.
func (s *attendeeService) GetMyTicket(ctx context.Context, eventID, userID string) (*domain.TicketWithQR, error) {
	ticket, err := s.ticketRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	payload, err := json.Marshal(ticket.QRPayload())
	if err != nil {
		return nil, fmt.Errorf("marshal qr payload: %w", err)
	}
	qr, err := s.qr.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return &domain.TicketWithQR{Ticket: ticket, QRCode: qr}, nil
}
