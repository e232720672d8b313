package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"eventticketing/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `id, owner_id, title, description, date, time, location, category, image_url, organizer,
		price, total_tickets, tickets_sold, payout_reference, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var total sql.NullInt64
	var payout sql.NullString
	err := row.Scan(
		&e.ID, &e.OwnerID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Location, &e.Category, &e.ImageURL, &e.Organizer,
		&e.Price, &total, &e.TicketsSold, &payout, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if total.Valid {
		n := int(total.Int64)
		e.TotalTickets = &n
	}
	if payout.Valid {
		e.PayoutReference = &payout.String
	}
	return e, nil
}

func scanEvents(rows *sql.Rows) ([]*domain.Event, error) {
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (owner_id, title, description, date, time, location, category, image_url, organizer,
			price, total_tickets, tickets_sold, payout_reference, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12, $13, $14)
		RETURNING id, tickets_sold
	`
	return conn(ctx, r.DB).QueryRowContext(ctx, query,
		e.OwnerID, e.Title, e.Description, e.Date, e.Time, e.Location, e.Category, e.ImageURL, e.Organizer,
		e.Price, nullInt(e.TotalTickets), nullString(e.PayoutReference), e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID, &e.TicketsSold)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	if err := conn(ctx, r.DB).QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + eventColumns + `
		FROM events
		ORDER BY date ASC, created_at ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	events, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) Search(ctx context.Context, q string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	pattern := "%" + q + "%"
	where := `WHERE title ILIKE $1 OR description ILIKE $1 OR location ILIKE $1 OR category ILIKE $1`
	var total int
	if err := conn(ctx, r.DB).QueryRowContext(ctx, `SELECT COUNT(*) FROM events `+where, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + eventColumns + `
		FROM events
		` + where + `
		ORDER BY date ASC, created_at ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, pattern, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	events, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

func (r *eventRepository) ListByAttendee(ctx context.Context, userID string) ([]*domain.Event, error) {
	query := `
		SELECT e.id, e.owner_id, e.title, e.description, e.date, e.time, e.location, e.category, e.image_url, e.organizer,
			e.price, e.total_tickets, e.tickets_sold, e.payout_reference, e.created_at, e.updated_at
		FROM events e
		JOIN event_registrations r ON r.event_id = e.id
		WHERE r.user_id = $1
		ORDER BY e.date ASC
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

// Update writes the editable fields. tickets_sold is never written here; the
// capacity check constraint rejects a total below the number already sold.
func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events SET title = $1, description = $2, date = $3, time = $4, location = $5, category = $6,
			image_url = $7, organizer = $8, price = $9, total_tickets = $10, updated_at = $11
		WHERE id = $12 AND owner_id = $13
		RETURNING ` + eventColumns
	updated, err := scanEvent(conn(ctx, r.DB).QueryRowContext(ctx, query,
		e.Title, e.Description, e.Date, e.Time, e.Location, e.Category,
		e.ImageURL, e.Organizer, e.Price, nullInt(e.TotalTickets), e.UpdatedAt,
		e.ID, e.OwnerID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if checkViolation(err) {
			return fmt.Errorf("%w: total_tickets cannot be lower than tickets already sold", domain.ErrValidation)
		}
		return err
	}
	*e = *updated
	return nil
}

// Delete removes an event owned by ownerID only while no ticket references it.
func (r *eventRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := `
		DELETE FROM events e
		WHERE e.id = $1 AND e.owner_id = $2
			AND NOT EXISTS (SELECT 1 FROM tickets t WHERE t.event_id = e.id)
	`
	result, err := conn(ctx, r.DB).ExecContext(ctx, query, id, ownerID)
	if err != nil {
		if foreignKeyViolation(err) {
			return domain.ErrEventHasTickets
		}
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	var owner string
	var hasTickets bool
	err = conn(ctx, r.DB).QueryRowContext(ctx, `
		SELECT owner_id, EXISTS (SELECT 1 FROM tickets WHERE event_id = $1)
		FROM events
		WHERE id = $1
	`, id).Scan(&owner, &hasTickets)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrNotFound
	case err != nil:
		return err
	case owner != ownerID:
		return domain.ErrForbidden
	case hasTickets:
		return domain.ErrEventHasTickets
	}
	return domain.ErrNotFound
}

// ReserveTicket is the compare-and-increment on the capacity ledger.
func (r *eventRepository) ReserveTicket(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		UPDATE events SET tickets_sold = tickets_sold + 1, updated_at = NOW()
		WHERE id = $1 AND (total_tickets IS NULL OR tickets_sold < total_tickets)
		RETURNING ` + eventColumns
	e, err := scanEvent(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := conn(ctx, r.DB).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	return nil, domain.ErrSoldOut
}

func checkViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23514"
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
