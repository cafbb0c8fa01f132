package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admin-backoffice/internal/domain"
	"github.com/spec-kit/admin-backoffice/internal/ratelimit"
	apperrors "github.com/spec-kit/admin-backoffice/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	Session *domain.Session
	Staff   *domain.Staff
}

// SessionVerifier resolves a presented token to a live session and
// extends recently active sessions.
type SessionVerifier interface {
	Verify(ctx context.Context, token string, binding domain.Binding) (*domain.Session, *domain.Staff, error)
	SlideRenew(ctx context.Context, session *domain.Session) error
}

// Middleware runs the per-request auth pipeline: rate limit, extract
// credential, verify session, slide-renew, bind principal.
type Middleware struct {
	sessions   SessionVerifier
	limiter    *ratelimit.Limiter
	cookieName string
}

// NewMiddleware constructs middleware.
func NewMiddleware(sessions SessionVerifier, limiter *ratelimit.Limiter, cookieName string) *Middleware {
	return &Middleware{sessions: sessions, limiter: limiter, cookieName: cookieName}
}

// BindingFromRequest extracts the client binding for this request.
func BindingFromRequest(c *fiber.Ctx) domain.Binding {
	return domain.Binding{
		UserAgent: c.Get("User-Agent"),
		IPAddress: ratelimit.ClientIP(c),
	}
}

// ExtractToken normalizes the dual credential sources to one token:
// the session cookie wins, otherwise the bearer header is used.
func (m *Middleware) ExtractToken(c *fiber.Ctx) string {
	if token := c.Cookies(m.cookieName); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// Authenticate enforces authentication for protected routes.
func (m *Middleware) Authenticate(c *fiber.Ctx) error {
	if err := m.limiter.Consume(ratelimit.KindAPI, ratelimit.ClientIP(c)); err != nil {
		return err
	}

	token := m.ExtractToken(c)
	if token == "" {
		return apperrors.NewUnauthorized("missing credential")
	}

	binding := BindingFromRequest(c)
	session, staff, err := m.sessions.Verify(c.UserContext(), token, binding)
	if err != nil {
		return err
	}
	if err := m.sessions.SlideRenew(c.UserContext(), session); err != nil {
		return err
	}

	c.Locals(principalKey, &Principal{Session: session, Staff: staff})
	return c.Next()
}

// RateLimitAuth consumes the stricter auth budget on the public
// auth-sensitive endpoints.
func (m *Middleware) RateLimitAuth(c *fiber.Ctx) error {
	if err := m.limiter.Consume(ratelimit.KindAuth, ratelimit.ClientIP(c)); err != nil {
		return err
	}
	return c.Next()
}

// GuardAlreadySignedIn rejects public auth entry points when the
// request already carries a valid session.
func (m *Middleware) GuardAlreadySignedIn(c *fiber.Ctx) error {
	token := m.ExtractToken(c)
	if token == "" {
		return c.Next()
	}
	if _, _, err := m.sessions.Verify(c.UserContext(), token, BindingFromRequest(c)); err == nil {
		return apperrors.NewForbidden("already signed in")
	}
	return c.Next()
}

// RequireRole ensures the principal holds one of the allowed roles.
func RequireRole(allowed ...domain.StaffRole) fiber.Handler {
	allowedSet := make(map[domain.StaffRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Staff == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Staff.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
