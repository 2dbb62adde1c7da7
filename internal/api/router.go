package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/boxhub/boxhub/internal/auth"
	"github.com/boxhub/boxhub/internal/handlers"
	"github.com/boxhub/boxhub/internal/middleware"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Profiles      *handlers.ProfileHandler
	Boxes         *handlers.BoxHandler
	Memberships   *handlers.MembershipHandler
	Disciplines   *handlers.DisciplineHandler
	Schedules     *handlers.ScheduleHandler
	Bookings      *handlers.BookingHandler
	Templates     *handlers.TemplateHandler
	Invitations   *handlers.InvitationHandler
	Notifications *handlers.NotificationHandler
	Health        *handlers.HealthHandler
}

// Config carries the router dependencies.
type Config struct {
	JWT      *auth.JWTService
	Handlers Handlers

	CORSOrigin         string
	PrometheusEnabled  bool
	PrometheusEndpoint string
}

// NewRouter assembles the gin engine with the full middleware chain and every
// API route mounted under /api.
func NewRouter(cfg Config) (*gin.Engine, error) {
	if cfg.JWT == nil {
		return nil, errors.New("api: jwt service is required")
	}
	if err := validateHandlers(cfg.Handlers); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.CORSOrigin),
	)

	if cfg.PrometheusEnabled {
		endpoint := cfg.PrometheusEndpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		router.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	apiGroup := router.Group("/api")
	apiGroup.GET("/health", cfg.Handlers.Health.Check)

	registerAuthRoutes(apiGroup, cfg.Handlers)

	protected := apiGroup.Group("", middleware.RequireAuth(cfg.JWT))
	registerBoxRoutes(protected, cfg.Handlers)
	registerScheduleRoutes(protected, cfg.Handlers)
	registerTemplateRoutes(protected, cfg.Handlers)
	registerInvitationRoutes(protected, cfg.Handlers)
	registerNotificationRoutes(protected, cfg.Handlers)

	return router, nil
}

func validateHandlers(h Handlers) error {
	switch {
	case h.Auth == nil:
		return errors.New("api: auth handler is required")
	case h.Profiles == nil:
		return errors.New("api: profile handler is required")
	case h.Boxes == nil:
		return errors.New("api: box handler is required")
	case h.Memberships == nil:
		return errors.New("api: membership handler is required")
	case h.Disciplines == nil:
		return errors.New("api: discipline handler is required")
	case h.Schedules == nil:
		return errors.New("api: schedule handler is required")
	case h.Bookings == nil:
		return errors.New("api: booking handler is required")
	case h.Templates == nil:
		return errors.New("api: template handler is required")
	case h.Invitations == nil:
		return errors.New("api: invitation handler is required")
	case h.Notifications == nil:
		return errors.New("api: notification handler is required")
	case h.Health == nil:
		return errors.New("api: health handler is required")
	}
	return nil
}
