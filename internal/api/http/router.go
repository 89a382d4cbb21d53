package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Presence       *handlers.PresenceHandler
	AuthMiddleware *auth.AuthMiddleware
	Gatherer       prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	authGroup := app.Group("/auths")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Post("/validate-forgot-key", cfg.Auth.ValidateForgotKey)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)
	authGroup.Post("/", cfg.Auth.Me)
	authGroup.Patch("/password", cfg.AuthMiddleware.Handle(), cfg.Auth.UpdatePassword)

	if cfg.Presence != nil {
		presence := app.Group("/presence", cfg.AuthMiddleware.Handle(), auth.RequireRoles(domain.RoleManager, domain.RoleSuperAdmin))
		presence.Get("/", cfg.Presence.List)
		presence.Get("/:userId", cfg.Presence.Status)
	}
}
