package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admin-backoffice/internal/api/http/handlers"
	"github.com/spec-kit/admin-backoffice/internal/auth"
	"github.com/spec-kit/admin-backoffice/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Staff          *handlers.StaffHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	mw := cfg.AuthMiddleware

	// Public entry points share the stricter auth budget and reject
	// requests that already carry a valid session. Sign-out is a
	// protected route and draws the general API budget only, so an
	// exhausted auth budget never pins a client to its session.
	authGroup := app.Group("/auth")
	public := authGroup.Group("", mw.RateLimitAuth, mw.GuardAlreadySignedIn)
	public.Post("/sign-in", cfg.Auth.SignIn)
	public.Post("/sign-in/otp", cfg.Auth.SignInByOTP)
	public.Post("/sign-up", cfg.Auth.SignUp)
	public.Post("/verified-email", cfg.Auth.VerifyEmail)
	public.Post("/verified-otp-code", cfg.Auth.VerifyOTPCode)
	public.Post("/reset-password", cfg.Auth.ResetPassword)

	authGroup.Post("/sign-out", mw.Authenticate, cfg.Auth.SignOut)

	staffGroup := app.Group("/staffs", mw.Authenticate)
	staffGroup.Get("", cfg.Staff.List)
	staffGroup.Post("", auth.RequireRole(
		domain.StaffRoleSuperAdmin, domain.StaffRoleAdmin, domain.StaffRoleEditor,
	), cfg.Staff.Create)
	staffGroup.Put("/me", cfg.Staff.UpdateSelf)
	staffGroup.Get("/:id", cfg.Staff.Get)
	staffGroup.Put("/:id", cfg.Staff.Update)
	staffGroup.Delete("/:id", cfg.Staff.Remove)
}
