package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses of a registration. Free events are recorded as paid with a zero amount.
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// Contact is the attendee contact information captured at registration.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Registration is the single (event, user) enrollment record.
// swagger:model Registration
type Registration struct {
	ID               string          `json:"id"`
	EventID          string          `json:"event_id"`
	UserID           string          `json:"user_id"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone"`
	PaymentStatus    string          `json:"payment_status"`
	AmountPaid       decimal.Decimal `json:"amount_paid" swaggertype:"string"`
	PaymentReference *string         `json:"payment_reference,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// NewRegistration returns a Registration for the given event, user and contact.
func NewRegistration(eventID, userID string, contact Contact, createdAt time.Time) *Registration {
	return &Registration{
		EventID:       eventID,
		UserID:        userID,
		Name:          contact.Name,
		Email:         contact.Email,
		Phone:         contact.Phone,
		PaymentStatus: PaymentStatusUnpaid,
		AmountPaid:    decimal.Zero,
		CreatedAt:     createdAt,
	}
}

// RegistrationRepository defines storage operations for registrations.
// Create returns ErrAlreadyRegistered on a duplicate (event, user) pair and
// ErrPaymentFailed when the payment reference already backs another registration.
type RegistrationRepository interface {
	Create(ctx context.Context, reg *Registration) error
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Registration, error)
}
