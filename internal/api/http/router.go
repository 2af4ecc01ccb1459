package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-reporting/internal/api/http/handlers"
	"github.com/spec-kit/sla-reporting/internal/auth"
	"github.com/spec-kit/sla-reporting/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Reports        *handlers.ReportsHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Get)

	app.Post("/auth/token", cfg.Auth.Token)

	reports := app.Group("/reports", cfg.AuthMiddleware.Handle)
	viewers := auth.RequireRole(domain.StaffRoleReportViewer, domain.StaffRoleAdmin)
	reports.Get("/compliance", viewers, cfg.Reports.Compliance)
	reports.Get("/compliance/html", viewers, cfg.Reports.ComplianceHTML)
	reports.Post("/compliance/send", auth.RequireRole(domain.StaffRoleAdmin), cfg.Reports.Send)
}
