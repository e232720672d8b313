package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"eventticketing/internal/adapters/ratelimit"
	"eventticketing/internal/delivery/http/controllers"
	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"

	_ "eventticketing/docs"
)

// Pinger reports whether a dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterConfig carries everything NewRouter wires.
type RouterConfig struct {
	Logger         *slog.Logger
	TokenVerifier  domain.TokenVerifier
	Limiter        ratelimit.Limiter
	AllowedOrigins []string
	RequestTimeout time.Duration
	DB             Pinger

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool

	Auth      *controllers.AuthController
	Events    *controllers.EventController
	Tickets   *controllers.TicketController
	Attendee  *controllers.AttendeeController
	Analytics *controllers.AnalyticsController
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authed := middleware.RequireAuth(cfg.TokenVerifier)
	organizer := func(h http.HandlerFunc) http.HandlerFunc {
		return authed(middleware.RequireRole(domain.RoleOrganizer)(h))
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.NewAllowAll()
	}
	gate := middleware.RateLimit(limiter, "verify-ticket", cfg.Logger)

	// Accounts
	mux.HandleFunc("POST /signup", cfg.Auth.SignUp)
	mux.HandleFunc("POST /login", cfg.Auth.Login)
	mux.HandleFunc("GET /profile", authed(cfg.Auth.Profile))
	mux.HandleFunc("PUT /profile/update", authed(cfg.Auth.UpdateProfile))
	mux.HandleFunc("PUT /profile/payout", organizer(cfg.Auth.UpdatePayout))

	// Events
	mux.HandleFunc("GET /events", cfg.Events.ListEvents)
	mux.HandleFunc("GET /events/search", cfg.Events.SearchEvents)
	mux.HandleFunc("GET /events/{eventID}", cfg.Events.GetEvent)
	mux.HandleFunc("POST /events", organizer(cfg.Events.CreateEvent))
	mux.HandleFunc("PUT /events/{eventID}", organizer(cfg.Events.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", organizer(cfg.Events.DeleteEvent))
	mux.HandleFunc("GET /organizer/events", organizer(cfg.Events.ListOrganizerEvents))
	mux.HandleFunc("GET /analytics/summary", organizer(cfg.Analytics.Summary))

	// Registration and gate
	mux.HandleFunc("POST /events/register/{eventID}", authed(cfg.Tickets.Register))
	mux.HandleFunc("POST /verify-payment", authed(cfg.Tickets.VerifyPayment))
	mux.HandleFunc("GET /check-registration", authed(cfg.Tickets.CheckRegistration))
	mux.HandleFunc("GET /verify-ticket/{eventID}/{ticketCode}", gate(cfg.Tickets.VerifyTicket))

	// Attendee
	mux.HandleFunc("GET /attendee/events", authed(cfg.Attendee.ListMyEvents))
	mux.HandleFunc("GET /attendee/tickets", authed(cfg.Attendee.ListMyTickets))
	mux.HandleFunc("GET /attendee/tickets/{eventID}", authed(cfg.Attendee.GetMyTicket))

	mux.HandleFunc("GET /health", health(cfg.DB))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	var handler http.Handler = mux
	if cfg.RequestTimeout > 0 {
		handler = chimw.Timeout(cfg.RequestTimeout)(handler)
	}
	handler = middleware.CORS(cfg.AllowedOrigins, handler)
	handler = middleware.LoggingMiddleware(cfg.Logger, handler)
	handler = chimw.Recoverer(handler)
	if cfg.TrustProxy {
		handler = chimw.RealIP(handler)
	}
	return chimw.RequestID(handler)
}

// health godoc
// @Summary Liveness and database check
// @Tags system
// @Produce json
// @Success 200 {object} helpers.APIResponse
// @Failure 503 {object} helpers.APIResponse
// @Router /health [get]
func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeUnavailable, "database unreachable")
				return
			}
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
