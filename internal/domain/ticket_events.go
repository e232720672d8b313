package domain

import (
	"context"
	"time"
)

// Routing keys of ticket lifecycle events.
const (
	RoutingKeyTicketIssued   = "ticket.issued"
	RoutingKeyTicketVerified = "ticket.verified"
)

// TicketIssuedEvent is published after an issuance commits.
type TicketIssuedEvent struct {
	TicketID       string    `json:"ticket_id"`
	TicketCode     string    `json:"ticket_code"`
	RegistrationID string    `json:"registration_id"`
	EventID        string    `json:"event_id"`
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	AmountPaid     string    `json:"amount_paid"`
	IssuedAt       time.Time `json:"issued_at"`
}

// TicketVerifiedEvent is published after a ticket is admitted.
type TicketVerifiedEvent struct {
	TicketCode string    `json:"ticket_code"`
	EventID    string    `json:"event_id"`
	UsedAt     time.Time `json:"used_at"`
}

// EventPublisher publishes lifecycle events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}
