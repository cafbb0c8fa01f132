package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/admin-backoffice/internal/auth"
	"github.com/spec-kit/admin-backoffice/internal/config"
	"github.com/spec-kit/admin-backoffice/internal/domain"
	"github.com/spec-kit/admin-backoffice/internal/ratelimit"
	"github.com/spec-kit/admin-backoffice/internal/repository"
	apperrors "github.com/spec-kit/admin-backoffice/pkg/util"
)

// AuthService composes the rate limiter, session store, OTP challenge
// and role authorizer into the named auth flows. It is the only layer
// that clears the auth rate budget after a successful operation.
type AuthService struct {
	staffs     repository.StaffRepository
	sessions   *SessionService
	otp        *OTPService
	limiter    *ratelimit.Limiter
	authorizer *auth.RoleAuthorizer
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies encapsulates collaborator requirements.
type AuthDependencies struct {
	StaffRepo  repository.StaffRepository
	Sessions   *SessionService
	OTP        *OTPService
	Limiter    *ratelimit.Limiter
	Authorizer *auth.RoleAuthorizer
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies, logger *zap.Logger) *AuthService {
	return &AuthService{
		staffs:     deps.StaffRepo,
		sessions:   deps.Sessions,
		otp:        deps.OTP,
		limiter:    deps.Limiter,
		authorizer: deps.Authorizer,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
	}
}

// Sessions exposes the session service for middleware usage.
func (s *AuthService) Sessions() *SessionService {
	return s.sessions
}

// SignIn authenticates by password and mints a session.
func (s *AuthService) SignIn(ctx context.Context, email, password string, binding domain.Binding, clientIP string) (string, error) {
	staff, err := s.activeStaffByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if err := auth.ComparePassword(staff.PasswordHash, password); err != nil {
		return "", apperrors.NewUnauthorized("invalid credentials")
	}

	token, err := s.sessions.Create(ctx, staff.ID, binding)
	if err != nil {
		return "", err
	}
	s.limiter.Reset(clientIP)
	s.logger.Info("staff signed in", zap.String("staff_id", staff.ID))
	return token, nil
}

// SignInByOTP authenticates by a previously issued one-time code,
// consumes the challenge and mints a session.
func (s *AuthService) SignInByOTP(ctx context.Context, email, code string, binding domain.Binding, clientIP string) (string, error) {
	staff, err := s.activeStaffByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if err := s.otp.ConsumeForSignIn(ctx, staff, code, binding); err != nil {
		return "", err
	}

	token, err := s.sessions.Create(ctx, staff.ID, binding)
	if err != nil {
		return "", err
	}
	s.limiter.Reset(clientIP)
	s.logger.Info("staff signed in by otp", zap.String("staff_id", staff.ID))
	return token, nil
}

// SignUp registers a staff account. No session is minted; the new
// account signs in separately.
func (s *AuthService) SignUp(ctx context.Context, name, email, password string, role domain.StaffRole, permissions []domain.Permission, clientIP string) (*domain.Staff, error) {
	if _, err := s.staffs.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if role == "" {
		role = domain.StaffRoleViewer
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", nil)
	}
	if permissions == nil {
		permissions = s.authorizer.CanonicalPermissions(role)
	}
	if !s.authorizer.ValidatePermissionSet(role, permissions) {
		return nil, apperrors.NewForbidden("permissions must match the role's canonical set")
	}

	passwordHash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	staff := &domain.Staff{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       domain.StaffStatusActive,
		Permissions:  permissions,
	}
	if err := s.staffs.Create(ctx, staff); err != nil {
		return nil, err
	}
	s.limiter.Reset(clientIP)
	s.logger.Info("staff signed up", zap.String("staff_id", staff.ID))
	return staff, nil
}

// SignOut deletes the presented session and clears the auth budget.
func (s *AuthService) SignOut(ctx context.Context, token, clientIP string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return err
	}
	s.limiter.Reset(clientIP)
	return nil
}

// VerifyEmail issues an OTP challenge for the account, delivered by
// mail.
func (s *AuthService) VerifyEmail(ctx context.Context, email string, binding domain.Binding, clientIP string) error {
	staff, err := s.activeStaffByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.otp.Issue(ctx, staff, binding); err != nil {
		return err
	}
	s.limiter.Reset(clientIP)
	return nil
}

// VerifyOTPCode marks the challenge VERIFIED, opening the reset grace
// window.
func (s *AuthService) VerifyOTPCode(ctx context.Context, email, code string, binding domain.Binding, clientIP string) (*domain.Verification, error) {
	staff, err := s.activeStaffByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	verification, err := s.otp.Verify(ctx, staff, code, binding)
	if err != nil {
		return nil, err
	}
	s.limiter.Reset(clientIP)
	return verification, nil
}

// ResetPassword consumes a VERIFIED challenge and replaces the account
// password.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string, binding domain.Binding, clientIP string) error {
	staff, err := s.activeStaffByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.otp.ConsumeForReset(ctx, staff, newPassword, binding); err != nil {
		return err
	}
	s.limiter.Reset(clientIP)
	s.logger.Info("password reset", zap.String("staff_id", staff.ID))
	return nil
}

// AlreadySignedIn reports whether the presented token resolves to a
// currently valid session for this binding. Public entry points reject
// requests carrying one.
func (s *AuthService) AlreadySignedIn(ctx context.Context, token string, binding domain.Binding) bool {
	if token == "" {
		return false
	}
	_, _, err := s.sessions.Verify(ctx, token, binding)
	return err == nil
}

func (s *AuthService) activeStaffByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	staff, err := s.staffs.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", nil)
		}
		return nil, err
	}
	if staff.Status != domain.StaffStatusActive {
		return nil, apperrors.NewForbidden("account disabled")
	}
	return staff, nil
}
