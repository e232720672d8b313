package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of an event date.
const DateLayout = "2006-01-02"

// Event is an organizer-owned event with optional finite capacity.
// swagger:model Event
type Event struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"owner_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Date            time.Time       `json:"date"`
	Time            string          `json:"time"`
	Location        string          `json:"location"`
	Category        string          `json:"category"`
	ImageURL        string          `json:"image_url"`
	Organizer       string          `json:"organizer"`
	Price           decimal.Decimal `json:"price" swaggertype:"string"`
	TotalTickets    *int            `json:"total_tickets"`
	TicketsSold     int             `json:"tickets_sold"`
	PayoutReference *string         `json:"payout_reference,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsFree reports whether the event can be joined without payment.
func (e *Event) IsFree() bool {
	return !e.Price.IsPositive()
}

// HasCapacity reports whether one more ticket fits. Unlimited events always have capacity.
func (e *Event) HasCapacity() bool {
	return e.TotalTickets == nil || e.TicketsSold < *e.TotalTickets
}

// Snapshot freezes the attendee-facing event details for a ticket.
func (e *Event) Snapshot() EventDetails {
	return EventDetails{
		Title:    e.Title,
		Date:     e.Date.Format(DateLayout),
		Time:     e.Time,
		Location: e.Location,
	}
}

// EventInput carries the editable event fields for create and update.
type EventInput struct {
	Title        string
	Description  string
	Date         time.Time
	Time         string
	Location     string
	Category     string
	ImageURL     string
	Organizer    string
	Price        decimal.Decimal
	TotalTickets *int
}

// EventRepository defines the interface for event storage.
//
// ReserveTicket is the only writer of tickets_sold: it increments the counter by one
// when capacity allows and returns the updated row. It returns ErrSoldOut when the
// event is full and ErrNotFound when it does not exist.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, params PaginationParams) ([]*Event, int, error)
	Search(ctx context.Context, query string, params PaginationParams) ([]*Event, int, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Event, error)
	ListByAttendee(ctx context.Context, userID string) ([]*Event, error)
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id, ownerID string) error
	ReserveTicket(ctx context.Context, id string) (*Event, error)
}

// EventService defines organizer event management and public listing.
type EventService interface {
	Create(ctx context.Context, ownerID string, in EventInput) (*Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, params PaginationParams) ([]*Event, int, error)
	Search(ctx context.Context, query string, params PaginationParams) ([]*Event, int, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Event, error)
	Update(ctx context.Context, id, ownerID string, in EventInput) (*Event, error)
	Delete(ctx context.Context, id, ownerID string) error
}
