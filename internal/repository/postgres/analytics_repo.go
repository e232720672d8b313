package postgres

import (
	"context"
	"database/sql"

	"eventticketing/internal/domain"
)

type analyticsRepository struct {
	DB *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) domain.AnalyticsRepository {
	return &analyticsRepository{DB: db}
}

func (r *analyticsRepository) OrganizerSummary(ctx context.Context, ownerID string) (*domain.OrganizerSummary, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM events WHERE owner_id = $1),
			(SELECT COUNT(*) FROM event_registrations r JOIN events e ON e.id = r.event_id WHERE e.owner_id = $1),
			(SELECT COALESCE(SUM(tickets_sold), 0) FROM events WHERE owner_id = $1),
			(SELECT COUNT(*) FROM tickets t JOIN events e ON e.id = t.event_id WHERE e.owner_id = $1 AND t.used),
			(SELECT COALESCE(SUM(r.amount_paid), 0) FROM event_registrations r JOIN events e ON e.id = r.event_id WHERE e.owner_id = $1)
	`
	s := &domain.OrganizerSummary{}
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, ownerID).
		Scan(&s.TotalEvents, &s.TotalRegistrations, &s.TicketsSold, &s.TicketsUsed, &s.Revenue)
	if err != nil {
		return nil, err
	}
	return s, nil
}
