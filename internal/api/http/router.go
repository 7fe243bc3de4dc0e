package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stagepay/pos-core/internal/api/http/handlers"
	"github.com/stagepay/pos-core/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Metrics  *handlers.MetricsHandler
	Auth     *handlers.AuthHandler
	Terminal *handlers.TerminalHandler
	Admin    *handlers.AdminHandler
	Customer *handlers.CustomerHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Snapshot)
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", auth.BearerToken, cfg.Auth.Logout)
	authGroup.Get("/me", auth.BearerToken, cfg.Auth.Me)
	authGroup.Post("/password/change", auth.BearerToken, cfg.Auth.ChangePassword)

	terminal := app.Group("/terminal")
	terminal.Post("/register", cfg.Terminal.Register)
	terminalProtected := terminal.Group("", auth.BearerToken)
	terminalProtected.Post("/logout", cfg.Terminal.Logout)
	terminalProtected.Post("/user/check-login", cfg.Terminal.CheckUserLogin)
	terminalProtected.Post("/user/login", cfg.Terminal.LoginUser)
	terminalProtected.Post("/user/logout", cfg.Terminal.LogoutUser)
	terminalProtected.Get("/user", cfg.Terminal.CurrentUser)
	terminalProtected.Post("/privileges/check", cfg.Terminal.CheckPrivileges)

	admin := app.Group("/admin", auth.BearerToken)
	admin.Get("/tills", cfg.Admin.ListTills)
	admin.Post("/tills/:id/force-logout", cfg.Admin.ForceLogout)

	customer := app.Group("/customer")
	customer.Post("/auth/login", cfg.Customer.Login)
	customerProtected := customer.Group("", auth.BearerToken)
	customerProtected.Post("/auth/logout", cfg.Customer.Logout)
	customerProtected.Get("/me", cfg.Customer.Me)
	customerProtected.Post("/info", cfg.Customer.UpdateInfo)
}
