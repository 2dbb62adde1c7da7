package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/boxhub/boxhub/internal/api"
	"github.com/boxhub/boxhub/internal/app"
	"github.com/boxhub/boxhub/internal/auth"
	"github.com/boxhub/boxhub/internal/database"
	"github.com/boxhub/boxhub/internal/handlers"
	"github.com/boxhub/boxhub/internal/identity"
	"github.com/boxhub/boxhub/internal/notifications"
	"github.com/boxhub/boxhub/internal/services"
	"github.com/boxhub/boxhub/pkg/logger"
	"github.com/boxhub/boxhub/pkg/mail"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "boxhub: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync()
	log := logger.WithModule("server")

	db, err := database.Open(database.Config{
		Driver:   cfg.Database.Driver,
		Path:     cfg.Database.Path,
		DSN:      cfg.Database.DSN,
		Host:     databaseHost(cfg),
		Port:     databasePort(cfg),
		Name:     databaseName(cfg),
		User:     databaseUser(cfg),
		Password: databasePassword(cfg),
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := database.MigrateAll(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	provider, err := identity.NewLocalProvider(db)
	if err != nil {
		return err
	}

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.Auth.JWT.Secret,
		Issuer:         cfg.Auth.JWT.Issuer,
		AccessTokenTTL: cfg.Auth.JWT.TTL,
	})
	if err != nil {
		return err
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return fmt.Errorf("configure mailer: %w", err)
	}

	hub := notifications.NewHub()

	authz, err := services.NewBoxAuthorizer(db)
	if err != nil {
		return err
	}
	notificationService, err := services.NewNotificationService(db, hub, mailer, provider)
	if err != nil {
		return err
	}
	notifier, err := services.NewNotifier(notificationService)
	if err != nil {
		return err
	}
	authService, err := services.NewAuthService(db, provider, jwtService)
	if err != nil {
		return err
	}
	profileService, err := services.NewProfileService(db, authz)
	if err != nil {
		return err
	}
	boxService, err := services.NewBoxService(db, authz)
	if err != nil {
		return err
	}
	membershipService, err := services.NewMembershipService(db, authz, notifier)
	if err != nil {
		return err
	}
	disciplineService, err := services.NewDisciplineService(db, authz)
	if err != nil {
		return err
	}
	scheduleService, err := services.NewScheduleService(db, authz, notifier)
	if err != nil {
		return err
	}
	bookingService, err := services.NewBookingService(db, authz, notifier)
	if err != nil {
		return err
	}
	templateService, err := services.NewTemplateService(db, authz)
	if err != nil {
		return err
	}
	invitationService, err := services.NewInvitationService(
		db, authz, provider, mailer, notifier, cfg.Frontend.BaseURL)
	if err != nil {
		return err
	}

	handlerSet, err := buildHandlers(db, hub, authService, profileService, boxService,
		membershipService, disciplineService, scheduleService, bookingService,
		templateService, invitationService, notificationService)
	if err != nil {
		return err
	}

	router, err := api.NewRouter(api.Config{
		JWT:                jwtService,
		Handlers:           handlerSet,
		CORSOrigin:         cfg.Frontend.BaseURL,
		PrometheusEnabled:  cfg.Monitoring.Prometheus.Enabled,
		PrometheusEndpoint: cfg.Monitoring.Prometheus.Endpoint,
	})
	if err != nil {
		return err
	}

	var reminders *services.ReminderService
	if cfg.Reminders.Enabled {
		reminders, err = services.NewReminderService(db, notifier, cfg.Reminders.Schedule)
		if err != nil {
			return err
		}
		if err := reminders.Start(); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}

	if reminders != nil {
		reminders.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

func buildHandlers(
	db *gorm.DB,
	hub *notifications.Hub,
	authService *services.AuthService,
	profileService *services.ProfileService,
	boxService *services.BoxService,
	membershipService *services.MembershipService,
	disciplineService *services.DisciplineService,
	scheduleService *services.ScheduleService,
	bookingService *services.BookingService,
	templateService *services.TemplateService,
	invitationService *services.InvitationService,
	notificationService *services.NotificationService,
) (api.Handlers, error) {
	var set api.Handlers
	var err error

	if set.Auth, err = handlers.NewAuthHandler(authService); err != nil {
		return set, err
	}
	if set.Profiles, err = handlers.NewProfileHandler(profileService); err != nil {
		return set, err
	}
	if set.Boxes, err = handlers.NewBoxHandler(boxService); err != nil {
		return set, err
	}
	if set.Memberships, err = handlers.NewMembershipHandler(membershipService); err != nil {
		return set, err
	}
	if set.Disciplines, err = handlers.NewDisciplineHandler(disciplineService); err != nil {
		return set, err
	}
	if set.Schedules, err = handlers.NewScheduleHandler(scheduleService); err != nil {
		return set, err
	}
	if set.Bookings, err = handlers.NewBookingHandler(bookingService); err != nil {
		return set, err
	}
	if set.Templates, err = handlers.NewTemplateHandler(templateService); err != nil {
		return set, err
	}
	if set.Invitations, err = handlers.NewInvitationHandler(invitationService); err != nil {
		return set, err
	}
	if set.Notifications, err = handlers.NewNotificationHandler(notificationService, hub); err != nil {
		return set, err
	}
	if set.Health, err = handlers.NewHealthHandler(db); err != nil {
		return set, err
	}
	return set, nil
}

func databaseHost(cfg *app.Config) string {
	if cfg.Database.Driver == "mysql" {
		return cfg.Database.MySQL.Host
	}
	return cfg.Database.Postgres.Host
}

func databasePort(cfg *app.Config) int {
	if cfg.Database.Driver == "mysql" {
		return cfg.Database.MySQL.Port
	}
	return cfg.Database.Postgres.Port
}

func databaseName(cfg *app.Config) string {
	if cfg.Database.Driver == "mysql" {
		return cfg.Database.MySQL.Database
	}
	return cfg.Database.Postgres.Database
}

func databaseUser(cfg *app.Config) string {
	if cfg.Database.Driver == "mysql" {
		return cfg.Database.MySQL.Username
	}
	return cfg.Database.Postgres.Username
}

func databasePassword(cfg *app.Config) string {
	if cfg.Database.Driver == "mysql" {
		return cfg.Database.MySQL.Password
	}
	return cfg.Database.Postgres.Password
}
