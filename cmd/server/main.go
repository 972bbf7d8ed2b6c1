package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventbooking/config"
	_ "eventbooking/docs"
	"eventbooking/internal/adapters/auth"
	"eventbooking/internal/adapters/email"
	"eventbooking/internal/adapters/providers"
	"eventbooking/internal/cache"
	httpdelivery "eventbooking/internal/delivery/http"
	"eventbooking/internal/delivery/http/controllers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"
	"eventbooking/internal/repository/postgres"
	"eventbooking/internal/scheduler"
	"eventbooking/internal/services"
)

// @title						Event Booking API
// @version					1.0
// @description				Events, RSVPs, reviews and third-party event import.
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := postgres.Migrate(db); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	tx := postgres.NewTransactor(db)
	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	tagRepo := postgres.NewTagRepository(db)
	rsvpRepo := postgres.NewRSVPRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)
	externalRepo := postgres.NewExternalEventRepository(db)
	statsRepo := postgres.NewStatsRepository(db)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.SESRegion,
			AccessKeyID:        cfg.Email.SESAccessKeyID,
			SecretAccessKey:    cfg.Email.SESSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return err
	}
	dispatcher := email.NewDispatcher(
		services.NewEmailService(mailer, email.NewTemplateRenderer(), logger),
		cfg.Email.Workers, cfg.Email.QueueSize, logger,
	)
	dispatcher.Start()
	defer dispatcher.Stop()

	searchCache := cache.New(cfg.RedisURL, cfg.CachePrefix, cfg.CacheTTL, logger)
	defer searchCache.Close()

	providerClient := &http.Client{Timeout: cfg.ProviderTimeout}
	var fetchers []domain.ExternalEventFetcher
	if cfg.TicketmasterAPIKey != "" {
		fetchers = append(fetchers, providers.NewTicketmasterFetcher(providerClient, cfg.TicketmasterBaseURL, cfg.TicketmasterAPIKey))
	}
	if cfg.SeatGeekClientID != "" {
		fetchers = append(fetchers, providers.NewSeatGeekFetcher(providerClient, cfg.SeatGeekBaseURL, cfg.SeatGeekClientID))
	}
	if len(fetchers) == 0 {
		logger.Warn("no external event provider credentials configured; search is disabled")
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	timeout := cfg.ContextTimeout

	authService := services.NewAuthService(
		userRepo,
		auth.NewBcryptHasher(cfg.BcryptCost),
		jwtService,
		jwtService,
		auth.NewActionTokens(cfg.ActionTokenSecret),
		dispatcher,
		services.AuthConfig{
			AccessTTL:     cfg.AccessTokenTTL,
			RefreshTTL:    cfg.RefreshTokenTTL,
			VerifyTTL:     cfg.VerifyEmailTTL,
			ResetTTL:      cfg.PasswordResetTTL,
			PublicBaseURL: cfg.PublicBaseURL,
		},
		timeout,
		logger,
	)
	userService := services.NewUserService(userRepo, timeout)
	eventService := services.NewEventService(eventRepo, rsvpRepo, reviewRepo, tx, timeout)
	taxonomyService := services.NewTaxonomyService(categoryRepo, tagRepo, timeout)
	rsvpService := services.NewRSVPService(eventRepo, rsvpRepo, tx, timeout)
	reviewService := services.NewReviewService(eventRepo, rsvpRepo, reviewRepo, tx, timeout)
	externalService := services.NewExternalEventService(fetchers, externalRepo, eventRepo, tx, searchCache, cfg.CacheTTL, timeout, logger)
	dashboardService := services.NewDashboardService(statsRepo, eventRepo, categoryRepo, rsvpRepo, timeout)

	jobs := scheduler.New(services.NewMaintenanceService(eventRepo, externalRepo, cfg.ExternalEventRetention), cfg.MaintenanceSchedule, logger)
	if err := jobs.Start(); err != nil {
		return err
	}
	defer jobs.Stop()

	router := httpdelivery.NewRouter(httpdelivery.RouterDeps{
		Logger:         logger,
		Verifier:       jwtService,
		Users:          userRepo,
		AuthLimiter:    middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow),
		AllowedOrigins: cfg.AllowedOrigins,
		Auth:           controllers.NewAuthController(logger, authService),
		User:           controllers.NewUserController(logger, userService),
		Event:          controllers.NewEventController(logger, eventService),
		Taxonomy:       controllers.NewTaxonomyController(logger, taxonomyService),
		RSVP:           controllers.NewRSVPController(logger, rsvpService),
		Review:         controllers.NewReviewController(logger, reviewService),
		External:       controllers.NewExternalEventController(logger, externalService),
		Dashboard:      controllers.NewDashboardController(logger, dashboardService),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
