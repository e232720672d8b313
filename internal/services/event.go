package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"eventticketing/internal/clock"
	"eventticketing/internal/domain"
)

var timeOfDayRegexp = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type eventService struct {
	eventRepo domain.EventRepository
	userRepo  domain.UserRepository
	clock     clock.Clock
}

// NewEventService creates an EventService.
func NewEventService(eventRepo domain.EventRepository, userRepo domain.UserRepository, clk clock.Clock) domain.EventService {
	return &eventService{
		eventRepo: eventRepo,
		userRepo:  userRepo,
		clock:     clk,
	}
}

func validateEventInput(in *domain.EventInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Time = strings.TrimSpace(in.Time)
	in.Location = strings.TrimSpace(in.Location)
	in.Category = strings.TrimSpace(in.Category)

	var problems []string
	if in.Title == "" {
		problems = append(problems, "title is required")
	}
	if in.Date.IsZero() {
		problems = append(problems, "date is required")
	}
	if in.Time != "" && !timeOfDayRegexp.MatchString(in.Time) {
		problems = append(problems, "time must be HH:MM")
	}
	if in.Price.IsNegative() {
		problems = append(problems, "price must not be negative")
	}
	if in.TotalTickets != nil && *in.TotalTickets <= 0 {
		problems = append(problems, "total_tickets must be positive when set")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

func applyEventInput(e *domain.Event, in domain.EventInput) {
	e.Title = in.Title
	e.Description = in.Description
	e.Date = in.Date
	e.Time = in.Time
	e.Location = in.Location
	e.Category = in.Category
	e.ImageURL = in.ImageURL
	e.Organizer = in.Organizer
	e.Price = in.Price.Round(2)
	e.TotalTickets = in.TotalTickets
}

func (s *eventService) Create(ctx context.Context, ownerID string, in domain.EventInput) (*domain.Event, error) {
	if err := validateEventInput(&in); err != nil {
		return nil, err
	}
	owner, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get owner: %w", err)
	}
	if owner.Role != domain.RoleOrganizer {
		return nil, fmt.Errorf("%w: only organizers can create events", domain.ErrForbidden)
	}

	now := s.clock.Now()
	e := &domain.Event{
		OwnerID:         ownerID,
		PayoutReference: owner.PayoutReference,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	applyEventInput(e, in)
	if e.Organizer == "" {
		e.Organizer = owner.Username
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return e, nil
}

func (s *eventService) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (s *eventService) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	events, total, err := s.eventRepo.List(ctx, params.Normalized())
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	return events, total, nil
}

func (s *eventService) Search(ctx context.Context, query string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx, params)
	}
	events, total, err := s.eventRepo.Search(ctx, query, params.Normalized())
	if err != nil {
		return nil, 0, fmt.Errorf("search events: %w", err)
	}
	return events, total, nil
}

func (s *eventService) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	events, err := s.eventRepo.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list owner events: %w", err)
	}
	return events, nil
}

// Update replaces the editable fields. The ticket counter is left to the issuer.
func (s *eventService) Update(ctx context.Context, id, ownerID string, in domain.EventInput) (*domain.Event, error) {
	if err := validateEventInput(&in); err != nil {
		return nil, err
	}
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	if in.TotalTickets != nil && *in.TotalTickets < e.TicketsSold {
		return nil, fmt.Errorf("%w: total_tickets cannot be lower than the %d tickets already sold", domain.ErrValidation, e.TicketsSold)
	}

	applyEventInput(e, in)
	e.UpdatedAt = s.clock.Now()
	if err := s.eventRepo.Update(ctx, e); err != nil {
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return e, nil
}

// Delete removes the event unless tickets were issued for it.
func (s *eventService) Delete(ctx context.Context, id, ownerID string) error {
	err := s.eventRepo.Delete(ctx, id, ownerID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrForbidden):
		return err
	case errors.Is(err, domain.ErrEventHasTickets):
		return fmt.Errorf("%w: reschedule or cancel instead", err)
	}
	return fmt.Errorf("delete event: %w", err)
}
