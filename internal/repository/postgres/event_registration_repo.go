package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventticketing/internal/domain"
)

const (
	constraintRegistrationEventUser = "uq_registrations_event_user"
	constraintRegistrationPayment   = "uq_registrations_payment_reference"
)

type eventRegistrationRepository struct {
	DB *sql.DB
}

func NewEventRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &eventRegistrationRepository{
		DB: db,
	}
}

func (r *eventRegistrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	query := `
		INSERT INTO event_registrations (event_id, user_id, name, email, phone, payment_status, amount_paid, payment_reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query,
		reg.EventID, reg.UserID, reg.Name, reg.Email, reg.Phone,
		reg.PaymentStatus, reg.AmountPaid, nullString(reg.PaymentReference), reg.CreatedAt,
	).Scan(&reg.ID)
	if constraint, ok := uniqueViolation(err); ok {
		switch constraint {
		case constraintRegistrationEventUser:
			return domain.ErrAlreadyRegistered
		case constraintRegistrationPayment:
			return fmt.Errorf("%w: payment reference already used", domain.ErrPaymentFailed)
		default:
			return fmt.Errorf("create registration: unique violation on %q: %w", constraint, err)
		}
	}
	if foreignKeyViolation(err) {
		return domain.ErrNotFound
	}
	return err
}

func (r *eventRegistrationRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	query := `
		SELECT id, event_id, user_id, name, email, phone, payment_status, amount_paid, payment_reference, created_at
		FROM event_registrations
		WHERE event_id = $1 AND user_id = $2
	`
	reg := &domain.Registration{}
	var ref sql.NullString
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, eventID, userID).
		Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.Name, &reg.Email, &reg.Phone,
			&reg.PaymentStatus, &reg.AmountPaid, &ref, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if ref.Valid {
		reg.PaymentReference = &ref.String
	}
	return reg, nil
}
