package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/admin-backoffice/internal/domain"
	"github.com/spec-kit/admin-backoffice/internal/mail"
	"github.com/spec-kit/admin-backoffice/internal/repository"
)

type fakeStaffRepo struct {
	staffs map[string]*domain.Staff
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{staffs: make(map[string]*domain.Staff)}
}

func (r *fakeStaffRepo) Create(_ context.Context, staff *domain.Staff) error {
	for _, existing := range r.staffs {
		if existing.Email == staff.Email {
			return errors.New("duplicate email")
		}
	}
	now := time.Now()
	staff.CreatedAt = now
	staff.UpdatedAt = now
	copied := *staff
	r.staffs[staff.ID] = &copied
	return nil
}

func (r *fakeStaffRepo) Update(_ context.Context, staff *domain.Staff) error {
	if _, ok := r.staffs[staff.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *staff
	r.staffs[staff.ID] = &copied
	return nil
}

func (r *fakeStaffRepo) GetByID(_ context.Context, id string) (*domain.Staff, error) {
	staff, ok := r.staffs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *staff
	return &copied, nil
}

func (r *fakeStaffRepo) GetByEmail(_ context.Context, email string) (*domain.Staff, error) {
	for _, staff := range r.staffs {
		if staff.Email == email {
			copied := *staff
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeStaffRepo) List(_ context.Context, _ repository.StaffFilter) ([]domain.Staff, error) {
	out := make([]domain.Staff, 0, len(r.staffs))
	for _, staff := range r.staffs {
		out = append(out, *staff)
	}
	return out, nil
}

func (r *fakeStaffRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.staffs[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.staffs, id)
	return nil
}

type fakeSessionRepo struct {
	sessions map[string]*domain.Session // by ID
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (r *fakeSessionRepo) CreateReplacing(_ context.Context, session *domain.Session) error {
	for id, existing := range r.sessions {
		if existing.StaffID == session.StaffID && existing.UserAgent == session.UserAgent {
			delete(r.sessions, id)
		}
	}
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) GetByToken(_ context.Context, token string) (*domain.Session, error) {
	for _, session := range r.sessions {
		if session.Token == token {
			copied := *session
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeSessionRepo) ExtendExpiry(_ context.Context, id string, expiresAt time.Time) error {
	session, ok := r.sessions[id]
	if !ok {
		return pgx.ErrNoRows
	}
	session.ExpiresAt = expiresAt
	session.UpdatedAt = time.Now()
	return nil
}

func (r *fakeSessionRepo) DeleteByToken(_ context.Context, token string) error {
	for id, session := range r.sessions {
		if session.Token == token {
			delete(r.sessions, id)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeSessionRepo) DeleteAllForStaff(_ context.Context, staffID string) error {
	for id, session := range r.sessions {
		if session.StaffID == staffID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

type fakeVerificationRepo struct {
	verifications map[string]*domain.Verification // by ID
	staffs        *fakeStaffRepo
}

func newFakeVerificationRepo(staffs *fakeStaffRepo) *fakeVerificationRepo {
	return &fakeVerificationRepo{verifications: make(map[string]*domain.Verification), staffs: staffs}
}

func (r *fakeVerificationRepo) CreateReplacing(ctx context.Context, verification *domain.Verification, inTx func(context.Context) error) error {
	// Mirrors the transactional contract: an inTx failure leaves the
	// store untouched.
	removed := make(map[string]*domain.Verification)
	for id, existing := range r.verifications {
		if existing.StaffID == verification.StaffID &&
			existing.UserAgent == verification.UserAgent &&
			existing.IPAddress == verification.IPAddress {
			removed[id] = existing
			delete(r.verifications, id)
		}
	}
	now := time.Now()
	verification.CreatedAt = now
	verification.UpdatedAt = now
	copied := *verification
	r.verifications[verification.ID] = &copied

	if inTx != nil {
		if err := inTx(ctx); err != nil {
			delete(r.verifications, verification.ID)
			for id, existing := range removed {
				r.verifications[id] = existing
			}
			return err
		}
	}
	return nil
}

func (r *fakeVerificationRepo) GetByBinding(_ context.Context, staffID string, binding domain.Binding) (*domain.Verification, error) {
	for _, verification := range r.verifications {
		if verification.StaffID == staffID &&
			verification.UserAgent == binding.UserAgent &&
			verification.IPAddress == binding.IPAddress {
			copied := *verification
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeVerificationRepo) MarkVerified(_ context.Context, id string, resetExpiresAt time.Time) error {
	verification, ok := r.verifications[id]
	if !ok {
		return pgx.ErrNoRows
	}
	verification.IsVerifiedCode = true
	verification.ResetExpiresAt = &resetExpiresAt
	return nil
}

func (r *fakeVerificationRepo) ConsumeForPasswordReset(ctx context.Context, id, staffID, passwordHash string) error {
	staff, err := r.staffs.GetByID(ctx, staffID)
	if err != nil {
		return err
	}
	staff.PasswordHash = passwordHash
	if err := r.staffs.Update(ctx, staff); err != nil {
		return err
	}
	delete(r.verifications, id)
	return nil
}

func (r *fakeVerificationRepo) Delete(_ context.Context, id string) error {
	delete(r.verifications, id)
	return nil
}

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}
