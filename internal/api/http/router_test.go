package http

import (
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/admin-backoffice/internal/api/http/handlers"
	"github.com/spec-kit/admin-backoffice/internal/auth"
	"github.com/spec-kit/admin-backoffice/internal/config"
	"github.com/spec-kit/admin-backoffice/internal/domain"
	"github.com/spec-kit/admin-backoffice/internal/mail"
	"github.com/spec-kit/admin-backoffice/internal/persistence"
	"github.com/spec-kit/admin-backoffice/internal/ratelimit"
	"github.com/spec-kit/admin-backoffice/internal/repository"
	"github.com/spec-kit/admin-backoffice/internal/service"
)

type stubStaffRepo struct {
	staff *domain.Staff
}

func (r *stubStaffRepo) Create(_ context.Context, _ *domain.Staff) error { return nil }
func (r *stubStaffRepo) Update(_ context.Context, _ *domain.Staff) error { return nil }

func (r *stubStaffRepo) GetByID(_ context.Context, id string) (*domain.Staff, error) {
	if r.staff != nil && r.staff.ID == id {
		copied := *r.staff
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *stubStaffRepo) GetByEmail(_ context.Context, email string) (*domain.Staff, error) {
	if r.staff != nil && r.staff.Email == email {
		copied := *r.staff
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *stubStaffRepo) List(_ context.Context, _ repository.StaffFilter) ([]domain.Staff, error) {
	return nil, nil
}

func (r *stubStaffRepo) Delete(_ context.Context, _ string) error { return nil }

type stubSessionRepo struct {
	sessions map[string]*domain.Session
}

func (r *stubSessionRepo) CreateReplacing(_ context.Context, session *domain.Session) error {
	for id, existing := range r.sessions {
		if existing.StaffID == session.StaffID && existing.UserAgent == session.UserAgent {
			delete(r.sessions, id)
		}
	}
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *stubSessionRepo) GetByToken(_ context.Context, token string) (*domain.Session, error) {
	for _, session := range r.sessions {
		if session.Token == token {
			copied := *session
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubSessionRepo) ExtendExpiry(_ context.Context, id string, expiresAt time.Time) error {
	session, ok := r.sessions[id]
	if !ok {
		return pgx.ErrNoRows
	}
	session.ExpiresAt = expiresAt
	return nil
}

func (r *stubSessionRepo) DeleteByToken(_ context.Context, token string) error {
	for id, session := range r.sessions {
		if session.Token == token {
			delete(r.sessions, id)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *stubSessionRepo) DeleteAllForStaff(_ context.Context, staffID string) error {
	for id, session := range r.sessions {
		if session.StaffID == staffID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *stubSessionRepo) Delete(_ context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

type stubVerificationRepo struct{}

func (stubVerificationRepo) CreateReplacing(ctx context.Context, _ *domain.Verification, inTx func(context.Context) error) error {
	if inTx != nil {
		return inTx(ctx)
	}
	return nil
}

func (stubVerificationRepo) GetByBinding(_ context.Context, _ string, _ domain.Binding) (*domain.Verification, error) {
	return nil, pgx.ErrNoRows
}

func (stubVerificationRepo) MarkVerified(_ context.Context, _ string, _ time.Time) error {
	return pgx.ErrNoRows
}

func (stubVerificationRepo) ConsumeForPasswordReset(_ context.Context, _, _, _ string) error {
	return pgx.ErrNoRows
}

func (stubVerificationRepo) Delete(_ context.Context, _ string) error { return nil }

type stubMailer struct{}

func (stubMailer) Send(_ context.Context, _ mail.Message) error { return nil }

func testApp(t *testing.T) (*fiber.App, *ratelimit.Limiter, *service.SessionService, *domain.Staff) {
	t.Helper()

	authCfg := config.AuthConfig{
		SessionSecret:     "test-secret",
		SessionCookieName: "adminSessionToken",
		SessionTTLDays:    30,
		SessionRenewDays:  7,
		OTPCodeTTLSeconds: 30,
		ResetGraceSeconds: 30,
		BcryptCost:        4,
	}
	staff := &domain.Staff{
		ID:          "staff-1",
		Name:        "Sam",
		Email:       "sam@example.com",
		Role:        domain.StaffRoleAdmin,
		Status:      domain.StaffStatusActive,
		Permissions: auth.NewRoleAuthorizer().CanonicalPermissions(domain.StaffRoleAdmin),
	}

	staffRepo := &stubStaffRepo{staff: staff}
	sessionRepo := &stubSessionRepo{sessions: make(map[string]*domain.Session)}
	limiter := ratelimit.NewLimiter(config.RateLimitConfig{
		AuthPoints:        5,
		AuthWindowSeconds: 900,
		APIPoints:         100,
		APIWindowSeconds:  60,
	})
	authorizer := auth.NewRoleAuthorizer()
	logger := zap.NewNop()

	sessionSvc := service.NewSessionService(authCfg, sessionRepo, staffRepo)
	otpSvc := service.NewOTPService(authCfg, config.MailConfig{From: "noreply@example.com"},
		stubVerificationRepo{}, stubMailer{}, logger)
	authSvc := service.NewAuthService(authCfg, service.AuthDependencies{
		StaffRepo:  staffRepo,
		Sessions:   sessionSvc,
		OTP:        otpSvc,
		Limiter:    limiter,
		Authorizer: authorizer,
	}, logger)
	staffSvc := service.NewStaffService(staffRepo, sessionRepo, authorizer, logger, authCfg.BcryptCost)

	app := fiber.New()
	RegisterMiddlewares(app, logger, nil, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "test", &persistence.Postgres{}),
		Auth:           handlers.NewAuthHandler(authSvc, authCfg),
		Staff:          handlers.NewStaffHandler(staffSvc),
		AuthMiddleware: auth.NewMiddleware(sessionSvc, limiter, authCfg.SessionCookieName),
	})
	return app, limiter, sessionSvc, staff
}

func TestSignOutUnaffectedByExhaustedAuthBudget(t *testing.T) {
	app, limiter, sessionSvc, staff := testApp(t)

	binding := domain.Binding{UserAgent: "agent-a", IPAddress: "9.9.9.9"}
	token, err := sessionSvc.Create(context.Background(), staff.ID, binding)
	require.NoError(t, err)

	// Burn the full auth budget for this client IP.
	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Consume(ratelimit.KindAuth, "9.9.9.9"))
	}

	// Public auth entry points are now blocked.
	signIn := httptest.NewRequest(fiber.MethodPost, "/auth/sign-in",
		strings.NewReader(`{"email":"sam@example.com","password":"whatever"}`))
	signIn.Header.Set("Content-Type", "application/json")
	signIn.Header.Set("X-Forwarded-For", "9.9.9.9")
	signIn.Header.Set("User-Agent", "agent-a")
	resp, err := app.Test(signIn)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	// Sign-out draws the general API budget only and still succeeds.
	signOut := httptest.NewRequest(fiber.MethodPost, "/auth/sign-out", nil)
	signOut.Header.Set("X-Forwarded-For", "9.9.9.9")
	signOut.Header.Set("User-Agent", "agent-a")
	signOut.AddCookie(&nethttp.Cookie{Name: "adminSessionToken", Value: token})
	resp, err = app.Test(signOut)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// The session really is gone.
	_, _, err = sessionSvc.Verify(context.Background(), token, binding)
	require.Error(t, err)
}
