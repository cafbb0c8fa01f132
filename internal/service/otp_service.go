package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/admin-backoffice/internal/auth"
	"github.com/spec-kit/admin-backoffice/internal/config"
	"github.com/spec-kit/admin-backoffice/internal/domain"
	"github.com/spec-kit/admin-backoffice/internal/mail"
	"github.com/spec-kit/admin-backoffice/internal/repository"
	apperrors "github.com/spec-kit/admin-backoffice/pkg/util"
)

// OTPService owns the one-time-code challenge lifecycle:
// ISSUED -> VERIFIED -> CONSUMED, with expiry reachable from either
// live state. Expired and consumed challenges resolve to row deletion.
type OTPService struct {
	verifications repository.VerificationRepository
	mailer        mail.Mailer
	logger        *zap.Logger
	from          string
	codeTTL       time.Duration
	resetGrace    time.Duration
	bcryptCost    int
	now           func() time.Time
}

// NewOTPService builds the service.
func NewOTPService(authCfg config.AuthConfig, mailCfg config.MailConfig, verifications repository.VerificationRepository, mailer mail.Mailer, logger *zap.Logger) *OTPService {
	return &OTPService{
		verifications: verifications,
		mailer:        mailer,
		logger:        logger,
		from:          mailCfg.From,
		codeTTL:       authCfg.OTPCodeTTL(),
		resetGrace:    authCfg.ResetGrace(),
		bcryptCost:    authCfg.BcryptCost,
		now:           time.Now,
	}
}

// Issue creates a challenge for (staff, binding), replacing any prior
// one, and emails the code. The row write and the mail send share one
// transaction: a mail failure rolls back the issuance.
func (s *OTPService) Issue(ctx context.Context, staff *domain.Staff, binding domain.Binding) error {
	code, err := generateCode()
	if err != nil {
		return err
	}
	codeHash, err := auth.HashPassword(code, s.bcryptCost)
	if err != nil {
		return err
	}

	verification := &domain.Verification{
		ID:            uuid.NewString(),
		StaffID:       staff.ID,
		UserAgent:     binding.UserAgent,
		IPAddress:     binding.IPAddress,
		CodeHash:      codeHash,
		CodeExpiresAt: s.now().Add(s.codeTTL),
	}

	err = s.verifications.CreateReplacing(ctx, verification, func(txCtx context.Context) error {
		msg := mail.OTPMessage(s.from, staff.Email, code, int(s.codeTTL.Seconds()))
		return s.mailer.Send(txCtx, msg)
	})
	if err != nil {
		return err
	}

	s.logger.Info("otp challenge issued", zap.String("staff_id", staff.ID))
	return nil
}

// Verify checks a submitted code against the live challenge for
// (staff, binding) and marks it VERIFIED, opening the reset grace
// window.
func (s *OTPService) Verify(ctx context.Context, staff *domain.Staff, clientCode string, binding domain.Binding) (*domain.Verification, error) {
	verification, err := s.verifications.GetByBinding(ctx, staff.ID, binding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("verification", nil)
		}
		return nil, err
	}

	if verification.IsVerifiedCode {
		return nil, apperrors.NewForbidden("code already verified")
	}

	now := s.now()
	if now.After(verification.CodeExpiresAt) {
		_ = s.verifications.Delete(ctx, verification.ID)
		return nil, apperrors.NewForbidden("code expired")
	}

	if err := auth.ComparePassword(verification.CodeHash, clientCode); err != nil {
		return nil, apperrors.NewForbidden("invalid code")
	}

	resetExpiresAt := now.Add(s.resetGrace)
	if err := s.verifications.MarkVerified(ctx, verification.ID, resetExpiresAt); err != nil {
		return nil, err
	}
	verification.IsVerifiedCode = true
	verification.ResetExpiresAt = &resetExpiresAt
	return verification, nil
}

// ConsumeForSignIn validates the code and deletes the challenge, for
// flows that exchange a verified code directly for a session.
func (s *OTPService) ConsumeForSignIn(ctx context.Context, staff *domain.Staff, clientCode string, binding domain.Binding) error {
	verification, err := s.Verify(ctx, staff, clientCode, binding)
	if err != nil {
		return err
	}
	return s.verifications.Delete(ctx, verification.ID)
}

// ConsumeForReset replaces the staff password, provided the challenge
// was verified and the grace window is still open. Stale attempts
// delete the challenge and fail.
func (s *OTPService) ConsumeForReset(ctx context.Context, staff *domain.Staff, newPassword string, binding domain.Binding) error {
	verification, err := s.verifications.GetByBinding(ctx, staff.ID, binding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("verification", nil)
		}
		return err
	}

	if !verification.IsVerifiedCode {
		return apperrors.NewForbidden("code not verified")
	}
	if verification.ResetExpiresAt == nil || !s.now().Before(*verification.ResetExpiresAt) {
		_ = s.verifications.Delete(ctx, verification.ID)
		return apperrors.NewConflict("reset window expired", nil)
	}

	passwordHash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.verifications.ConsumeForPasswordReset(ctx, verification.ID, staff.ID, passwordHash)
}

// generateCode returns a 6-digit numeric code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
