package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/admin-backoffice/internal/auth"
	"github.com/spec-kit/admin-backoffice/internal/config"
	"github.com/spec-kit/admin-backoffice/internal/domain"
	"github.com/spec-kit/admin-backoffice/internal/repository"
	apperrors "github.com/spec-kit/admin-backoffice/pkg/util"
)

// SessionService owns the persisted session lifecycle: create, verify,
// slide-renew, delete.
type SessionService struct {
	sessions    repository.SessionRepository
	staffs      repository.StaffRepository
	signer      *auth.TokenSigner
	ttl         time.Duration
	renewWindow time.Duration
	now         func() time.Time
}

// NewSessionService builds the service.
func NewSessionService(cfg config.AuthConfig, sessions repository.SessionRepository, staffs repository.StaffRepository) *SessionService {
	return &SessionService{
		sessions:    sessions,
		staffs:      staffs,
		signer:      auth.NewTokenSigner(cfg.SessionSecret),
		ttl:         cfg.SessionTTL(),
		renewWindow: cfg.SessionRenewWindow(),
		now:         time.Now,
	}
}

// Create mints a session for the staff member. Any prior session for
// the same (staff, user agent) is replaced in the same transaction.
func (s *SessionService) Create(ctx context.Context, staffID string, binding domain.Binding) (string, error) {
	token, err := s.signer.IssueToken()
	if err != nil {
		return "", err
	}

	session := &domain.Session{
		ID:        uuid.NewString(),
		StaffID:   staffID,
		Token:     token,
		UserAgent: binding.UserAgent,
		IPAddress: binding.IPAddress,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.sessions.CreateReplacing(ctx, session); err != nil {
		return "", err
	}
	return token, nil
}

// Verify resolves a presented token to its session and owning staff.
func (s *SessionService) Verify(ctx context.Context, token string, binding domain.Binding) (*domain.Session, *domain.Staff, error) {
	if _, ok := s.signer.Verify(token); !ok {
		return nil, nil, apperrors.NewUnauthorized("invalid token")
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("session", nil)
		}
		return nil, nil, err
	}

	if s.now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, nil, apperrors.NewUnauthorized("session expired")
	}

	if session.UserAgent != binding.UserAgent {
		return nil, nil, apperrors.NewUnauthorized("invalid context")
	}

	staff, err := s.staffs.GetByID(ctx, session.StaffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("staff", nil)
		}
		return nil, nil, err
	}
	if staff.Status != domain.StaffStatusActive {
		return nil, nil, apperrors.NewForbidden("account disabled")
	}

	return session, staff, nil
}

// SlideRenew extends the session expiry when it has been active within
// the renew window. Sessions idle longer than the window are left
// untouched and expire at their absolute deadline, which bounds how
// long an idle session can be auto-extended.
func (s *SessionService) SlideRenew(ctx context.Context, session *domain.Session) error {
	now := s.now()
	if now.Sub(session.UpdatedAt) > s.renewWindow {
		return nil
	}
	expiresAt := now.Add(s.ttl)
	if err := s.sessions.ExtendExpiry(ctx, session.ID, expiresAt); err != nil {
		return err
	}
	session.ExpiresAt = expiresAt
	session.UpdatedAt = now
	return nil
}

// Delete removes the session holding the given token.
func (s *SessionService) Delete(ctx context.Context, token string) error {
	if err := s.sessions.DeleteByToken(ctx, token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("session", nil)
		}
		return err
	}
	return nil
}

// DeleteAllForStaff removes every session owned by the staff member,
// regardless of user agent.
func (s *SessionService) DeleteAllForStaff(ctx context.Context, staffID string) error {
	return s.sessions.DeleteAllForStaff(ctx, staffID)
}
