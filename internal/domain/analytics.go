package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// OrganizerSummary aggregates the caller's events. Reads only.
// swagger:model OrganizerSummary
type OrganizerSummary struct {
	TotalEvents        int             `json:"total_events"`
	TotalRegistrations int             `json:"total_registrations"`
	TicketsSold        int             `json:"tickets_sold"`
	TicketsUsed        int             `json:"tickets_used"`
	Revenue            decimal.Decimal `json:"revenue" swaggertype:"string"`
}

// AnalyticsRepository runs reporting queries.
type AnalyticsRepository interface {
	OrganizerSummary(ctx context.Context, ownerID string) (*OrganizerSummary, error)
}

// AnalyticsService exposes organizer reporting.
type AnalyticsService interface {
	OrganizerSummary(ctx context.Context, ownerID string) (*OrganizerSummary, error)
}
