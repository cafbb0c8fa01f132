package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admin-backoffice/internal/api/dto"
	"github.com/spec-kit/admin-backoffice/internal/auth"
	"github.com/spec-kit/admin-backoffice/internal/config"
	"github.com/spec-kit/admin-backoffice/internal/domain"
	"github.com/spec-kit/admin-backoffice/internal/ratelimit"
	"github.com/spec-kit/admin-backoffice/internal/service"
)

// AuthHandler exposes the auth flow endpoints.
type AuthHandler struct {
	authService *service.AuthService
	cookieName  string
	cookieTTL   time.Duration
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookieName:  cfg.SessionCookieName,
		cookieTTL:   cfg.SessionTTL(),
	}
}

// SignIn handles POST /auth/sign-in.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	token, err := h.authService.SignIn(c.UserContext(), req.Email, req.Password, auth.BindingFromRequest(c), ratelimit.ClientIP(c))
	if err != nil {
		return err
	}

	h.setSessionCookie(c, token)
	return c.Status(http.StatusCreated).JSON(dto.FlowResponse{Success: true, Message: "signed in"})
}

// SignInByOTP handles POST /auth/sign-in/otp.
func (h *AuthHandler) SignInByOTP(c *fiber.Ctx) error {
	var req dto.SignInByOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Code == "" {
		return fiber.NewError(http.StatusBadRequest, "email and code required")
	}

	token, err := h.authService.SignInByOTP(c.UserContext(), req.Email, req.Code, auth.BindingFromRequest(c), ratelimit.ClientIP(c))
	if err != nil {
		return err
	}

	h.setSessionCookie(c, token)
	return c.Status(http.StatusCreated).JSON(dto.FlowResponse{Success: true, Message: "signed in"})
}

// SignUp handles POST /auth/sign-up.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, password required")
	}

	_, err := h.authService.SignUp(c.UserContext(),
		req.Name, req.Email, req.Password,
		domain.StaffRole(req.Role), parsePermissions(req.Permissions),
		ratelimit.ClientIP(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.FlowResponse{Success: true, Message: "signed up"})
}

// SignOut handles POST /auth/sign-out.
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	if err := h.authService.SignOut(c.UserContext(), principal.Session.Token, ratelimit.ClientIP(c)); err != nil {
		return err
	}
	h.clearSessionCookie(c)
	return c.Status(http.StatusCreated).JSON(dto.FlowResponse{Success: true, Message: "signed out"})
}

// VerifyEmail handles POST /auth/verified-email.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email required")
	}

	if err := h.authService.VerifyEmail(c.UserContext(), req.Email, auth.BindingFromRequest(c), ratelimit.ClientIP(c)); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.FlowResponse{Success: true, Message: "verification code sent"})
}

// VerifyOTPCode handles POST /auth/verified-otp-code.
func (h *AuthHandler) VerifyOTPCode(c *fiber.Ctx) error {
	var req dto.VerifyOTPCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Code == "" {
		return fiber.NewError(http.StatusBadRequest, "email and code required")
	}

	if _, err := h.authService.VerifyOTPCode(c.UserContext(), req.Email, req.Code, auth.BindingFromRequest(c), ratelimit.ClientIP(c)); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.FlowResponse{Success: true, Message: "code verified"})
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.NewPassword == "" {
		return fiber.NewError(http.StatusBadRequest, "email and new password required")
	}

	if err := h.authService.ResetPassword(c.UserContext(), req.Email, req.NewPassword, auth.BindingFromRequest(c), ratelimit.ClientIP(c)); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.FlowResponse{Success: true, Message: "password reset"})
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Expires:  time.Now().Add(h.cookieTTL),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func parsePermissions(raw []string) []domain.Permission {
	if raw == nil {
		return nil
	}
	perms := make([]domain.Permission, 0, len(raw))
	for _, p := range raw {
		perms = append(perms, domain.Permission(p))
	}
	return perms
}
