package controllers

import (
	"log/slog"
	"net/http"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/domain"
)

// SummarySuccessResponse is the success envelope for GET /analytics/summary.
type SummarySuccessResponse struct {
	Data  *domain.OrganizerSummary `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

type AnalyticsController struct {
	Logger  *slog.Logger
	Service domain.AnalyticsService
}

func NewAnalyticsController(logger *slog.Logger, svc domain.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{Logger: logger, Service: svc}
}

// Summary godoc
// @Summary Organizer totals
// @Description Events, registrations, tickets sold and used, and revenue across the caller's events.
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.SummarySuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /analytics/summary [get]
func (c *AnalyticsController) Summary(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	summary, err := c.Service.OrganizerSummary(r.Context(), caller.UserID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, summary)
}
