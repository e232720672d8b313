package domain

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// TicketCodePrefix prefixes every ticket code; the rest is 12 lowercase hex characters.
const TicketCodePrefix = "TKT-"

// EventDetails is the event snapshot frozen into a ticket at issuance.
type EventDetails struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	Time     string `json:"time,omitempty"`
	Location string `json:"location"`
}

// Value implements driver.Valuer so the snapshot is stored as JSONB.
func (d EventDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner.
func (d *EventDetails) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	case nil:
		*d = EventDetails{}
		return nil
	default:
		return errors.New("event details: unsupported source type")
	}
	return json.Unmarshal(b, d)
}

// Ticket is the admission credential issued with a registration.
// swagger:model Ticket
type Ticket struct {
	ID             string       `json:"id"`
	RegistrationID string       `json:"registration_id"`
	EventID        string       `json:"event_id"`
	UserID         string       `json:"user_id"`
	TicketCode     string       `json:"ticket_code"`
	EventDetails   EventDetails `json:"event_details"`
	Name           string       `json:"name"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone"`
	Used           bool         `json:"used"`
	UsedAt         *time.Time   `json:"used_at,omitempty"`
	IssuedAt       time.Time    `json:"issued_at"`
}

// QRPayload is the JSON document encoded into a ticket's QR image.
type QRPayload struct {
	TicketID     string         `json:"ticketId"`
	TicketCode   string         `json:"ticketCode"`
	EventID      string         `json:"eventId"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	EventDetails QREventDetails `json:"eventDetails"`
}

// QREventDetails is the snapshot subset carried in the QR payload.
type QREventDetails struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	Location string `json:"location"`
}

// QRPayload builds the scannable payload for the ticket.
func (t *Ticket) QRPayload() QRPayload {
	return QRPayload{
		TicketID:   t.ID,
		TicketCode: t.TicketCode,
		EventID:    t.EventID,
		Name:       t.Name,
		Email:      t.Email,
		EventDetails: QREventDetails{
			Title:    t.EventDetails.Title,
			Date:     t.EventDetails.Date,
			Location: t.EventDetails.Location,
		},
	}
}

// TicketSummary is returned by a successful gate verification.
// swagger:model TicketSummary
type TicketSummary struct {
	EventID    string     `json:"event_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	TicketCode string     `json:"ticket_code"`
	EventTitle string     `json:"event_title"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
}

// Summary returns the gate-facing view of the ticket.
func (t *Ticket) Summary() *TicketSummary {
	return &TicketSummary{
		EventID:    t.EventID,
		Name:       t.Name,
		Email:      t.Email,
		TicketCode: t.TicketCode,
		EventTitle: t.EventDetails.Title,
		UsedAt:     t.UsedAt,
	}
}

// TicketRepository defines storage operations for tickets.
//
// Create reports false without error when the ticket code is already taken so the
// caller can retry with a fresh code inside the same transaction. MarkUsed flips an
// unused ticket of the given event to used in one statement and returns ErrNotFound
// when no such unused ticket exists.
type TicketRepository interface {
	Create(ctx context.Context, ticket *Ticket) (bool, error)
	GetByCode(ctx context.Context, code string) (*Ticket, error)
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Ticket, error)
	ListByUserID(ctx context.Context, userID string) ([]*Ticket, error)
	MarkUsed(ctx context.Context, eventID, code string, usedAt time.Time) (*Ticket, error)
}

// Transactor runs fn in a single store transaction carried by the context.
// Repositories pick the transaction up from ctx; nested calls join the outer one.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// QREncoder turns a payload into a scannable image reference (a data URI).
type QREncoder interface {
	Encode(payload []byte) (string, error)
}

// IssueTicketInput is the verified intent to register.
type IssueTicketInput struct {
	EventID          string
	UserID           string
	Contact          Contact
	PaymentReference string
}

// TicketWithQR is a ticket plus its encoded QR image.
type TicketWithQR struct {
	*Ticket
	QRCode string `json:"qr_code"`
}

// Issuance is the result of a successful registration.
type Issuance struct {
	Registration *Registration `json:"registration"`
	Ticket       *TicketWithQR `json:"ticket"`
}

// TicketIssuer registers users for events and issues their tickets.
type TicketIssuer interface {
	Issue(ctx context.Context, in IssueTicketInput) (*Issuance, error)
	CheckRegistration(ctx context.Context, eventID, userID string) error
}

// TicketVerifier admits a ticket at the gate exactly once.
type TicketVerifier interface {
	Verify(ctx context.Context, eventID, ticketCode string) (*TicketSummary, error)
}
