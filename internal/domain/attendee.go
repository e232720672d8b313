package domain

import "context"

// AttendeeService defines read-only views of the caller's registrations and tickets.
type AttendeeService interface {
	ListMyEvents(ctx context.Context, userID string) ([]*Event, error)
	ListMyTickets(ctx context.Context, userID string) ([]*Ticket, error)
	GetMyTicket(ctx context.Context, eventID, userID string) (*TicketWithQR, error)
}
