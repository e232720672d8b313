// @title Event Ticketing API
// @version 1.0
// @description Event listings, paid and free registration, QR tickets and gate verification.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"eventticketing/config"
	"eventticketing/internal/adapters/auth"
	"eventticketing/internal/adapters/broker"
	"eventticketing/internal/adapters/payment"
	"eventticketing/internal/adapters/qrcode"
	"eventticketing/internal/adapters/ratelimit"
	"eventticketing/internal/clock"
	delivery "eventticketing/internal/delivery/http"
	"eventticketing/internal/delivery/http/controllers"
	"eventticketing/internal/domain"
	"eventticketing/internal/repository/postgres"
	"eventticketing/internal/services"
	"eventticketing/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	startupCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.PingContext(startupCtx); err != nil {
		logger.Error("ping database", "error", err)
		os.Exit(1)
	}
	if err := migrations.Apply(startupCtx, db); err != nil {
		logger.Error("apply migrations", "error", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	registrationRepo := postgres.NewEventRegistrationRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)
	analyticsRepo := postgres.NewAnalyticsRepository(db)
	transactor := postgres.NewTransactor(db)

	// Adapters
	clk := clock.NewSystem()
	hasher := auth.NewBcryptHasher(auth.DefaultCost)
	tokenIssuer := auth.NewJWTIssuer(cfg.JWTSecret)
	tokenVerifier := auth.NewJWTVerifier(cfg.JWTSecret)
	qr := qrcode.NewPNGEncoder(qrcode.DefaultSize)
	payments := newPaymentVerifier(cfg.Payment, logger)
	limiter := newLimiter(startupCtx, cfg, logger)
	publisher := newPublisher(cfg.AMQPUrl, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("close publisher", "error", err)
		}
	}()

	// Services
	userSvc := services.NewUserService(userRepo, hasher, tokenIssuer, cfg.JWTExpiry, clk)
	eventSvc := services.NewEventService(eventRepo, userRepo, clk)
	issuer := services.NewTicketIssuer(transactor, eventRepo, registrationRepo, ticketRepo, payments, qr, publisher, clk, logger)
	verifier := services.NewTicketVerifier(ticketRepo, publisher, clk, logger)
	attendeeSvc := services.NewAttendeeService(eventRepo, ticketRepo, qr)
	analyticsSvc := services.NewAnalyticsService(analyticsRepo)

	router := delivery.NewRouter(delivery.RouterConfig{
		Logger:         logger,
		TokenVerifier:  tokenVerifier,
		Limiter:        limiter,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		TrustProxy:     cfg.TrustProxy,
		DB:             db,
		Auth:           controllers.NewAuthController(logger, userSvc),
		Events:         controllers.NewEventController(logger, eventSvc),
		Tickets:        controllers.NewTicketController(logger, issuer, verifier),
		Attendee:       controllers.NewAttendeeController(logger, attendeeSvc),
		Analytics:      controllers.NewAnalyticsController(logger, analyticsSvc),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown", "error", err)
	}
	logger.Info("server stopped")
}

func newPaymentVerifier(cfg config.PaymentConfig, logger *slog.Logger) domain.PaymentVerifier {
	if cfg.Provider == config.PaymentProviderNoop || cfg.SecretKey == "" {
		logger.Warn("payment verification not configured; paid registrations will be rejected", "provider", cfg.Provider)
		return payment.NewUnconfiguredVerifier()
	}
	client := &http.Client{Timeout: cfg.Timeout}
	return payment.NewPaystackVerifier(client, cfg.BaseURL, cfg.SecretKey, cfg.Currency, cfg.Timeout)
}

func newLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return ratelimit.NewAllowAll()
	}
	rdb := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if rdb == nil {
		logger.Warn("redis unavailable; ticket gate is not rate limited", "addr", cfg.Redis.Addr)
		return ratelimit.NewAllowAll()
	}
	return ratelimit.NewRedisLimiter(rdb, ratelimit.Config{
		Capacity:       cfg.RateLimit.Capacity,
		RefillInterval: cfg.RateLimit.RefillInterval,
		Prefix:         "gate",
	})
}

func newPublisher(url string, logger *slog.Logger) domain.EventPublisher {
	if url == "" {
		logger.Info("AMQP_URL not set; ticket events will not be published")
		return broker.NewNoopPublisher()
	}
	pub, err := broker.NewRabbitPublisher(url)
	if err != nil {
		logger.Warn("rabbitmq unavailable; ticket events will not be published", "error", err)
		return broker.NewNoopPublisher()
	}
	return pub
}
