package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventticketing/internal/domain"
)

type ticketRepository struct {
	DB *sql.DB
}

func NewTicketRepository(db *sql.DB) domain.TicketRepository {
	return &ticketRepository{DB: db}
}

const ticketColumns = `id, registration_id, event_id, user_id, ticket_code, event_details, name, email, phone, used, used_at, issued_at`

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	t := &domain.Ticket{}
	var usedAt sql.NullTime
	err := row.Scan(&t.ID, &t.RegistrationID, &t.EventID, &t.UserID, &t.TicketCode, &t.EventDetails,
		&t.Name, &t.Email, &t.Phone, &t.Used, &usedAt, &t.IssuedAt)
	if err != nil {
		return nil, err
	}
	if usedAt.Valid {
		t.UsedAt = &usedAt.Time
	}
	return t, nil
}

// Create inserts the ticket. A taken ticket code yields (false, nil) without
// aborting the surrounding transaction.
func (r *ticketRepository) Create(ctx context.Context, t *domain.Ticket) (bool, error) {
	query := `
		INSERT INTO tickets (registration_id, event_id, user_id, ticket_code, event_details, name, email, phone, used, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9)
		ON CONFLICT (ticket_code) DO NOTHING
		RETURNING id
	`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query,
		t.RegistrationID, t.EventID, t.UserID, t.TicketCode, t.EventDetails, t.Name, t.Email, t.Phone, t.IssuedAt,
	).Scan(&t.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if _, ok := uniqueViolation(err); ok {
			return false, domain.ErrAlreadyRegistered
		}
		return false, err
	}
	t.Used = false
	return true, nil
}

func (r *ticketRepository) GetByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_code = $1`
	t, err := scanTicket(conn(ctx, r.DB).QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *ticketRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = $1 AND user_id = $2`
	t, err := scanTicket(conn(ctx, r.DB).QueryRowContext(ctx, query, eventID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *ticketRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE user_id = $1
		ORDER BY issued_at DESC
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*domain.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// MarkUsed admits the ticket in one conditional statement: only an unused ticket
// of the given event matches, so concurrent scans cannot both succeed.
func (r *ticketRepository) MarkUsed(ctx context.Context, eventID, code string, usedAt time.Time) (*domain.Ticket, error) {
	query := `
		UPDATE tickets SET used = TRUE, used_at = $3
		WHERE ticket_code = $1 AND event_id = $2 AND used = FALSE
		RETURNING ` + ticketColumns
	t, err := scanTicket(conn(ctx, r.DB).QueryRowContext(ctx, query, code, eventID, usedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}
