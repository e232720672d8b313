package services

import (
	"context"
	"fmt"

	"eventticketing/internal/domain"
)

type analyticsService struct {
	repo domain.AnalyticsRepository
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(repo domain.AnalyticsRepository) domain.AnalyticsService {
	return &analyticsService{repo: repo}
}

func (s *analyticsService) OrganizerSummary(ctx context.Context, ownerID string) (*domain.OrganizerSummary, error) {
	summary, err := s.repo.OrganizerSummary(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("organizer summary: %w", err)
	}
	return summary, nil
}
