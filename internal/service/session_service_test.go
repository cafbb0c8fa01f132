package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/admin-backoffice/internal/config"
	"github.com/spec-kit/admin-backoffice/internal/domain"
	apperrors "github.com/spec-kit/admin-backoffice/pkg/util"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		SessionSecret:     "test-secret",
		SessionCookieName: "adminSessionToken",
		SessionTTLDays:    30,
		SessionRenewDays:  7,
		OTPCodeTTLSeconds: 30,
		ResetGraceSeconds: 30,
		BcryptCost:        4,
	}
}

func testBinding() domain.Binding {
	return domain.Binding{UserAgent: "agent-a", IPAddress: "1.2.3.4"}
}

func seedStaff(t *testing.T, repo *fakeStaffRepo, status domain.StaffStatus) *domain.Staff {
	t.Helper()
	staff := &domain.Staff{
		ID:           "staff-1",
		Name:         "Alex",
		Email:        "alex@example.com",
		PasswordHash: "irrelevant",
		Role:         domain.StaffRoleAdmin,
		Status:       status,
		Permissions: []domain.Permission{
			domain.PermissionRead, domain.PermissionWrite, domain.PermissionCreate,
			domain.PermissionDelete, domain.PermissionUpdate,
		},
	}
	require.NoError(t, repo.Create(context.Background(), staff))
	return staff
}

func newTestSessionService(staffs *fakeStaffRepo, sessions *fakeSessionRepo, start time.Time) (*SessionService, *time.Time) {
	now := start
	svc := NewSessionService(testAuthConfig(), sessions, staffs)
	svc.now = func() time.Time { return now }
	return svc, &now
}

func TestSessionCreateAndVerify(t *testing.T) {
	ctx := context.Background()
	staffs := newFakeStaffRepo()
	sessions := newFakeSessionRepo()
	svc, _ := newTestSessionService(staffs, sessions, time.Now())
	staff := seedStaff(t, staffs, domain.StaffStatusActive)

	token, err := svc.Create(ctx, staff.ID, testBinding())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	session, got, err := svc.Verify(ctx, token, testBinding())
	require.NoError(t, err)
	assert.Equal(t, staff.ID, session.StaffID)
	assert.Equal(t, staff.ID, got.ID)
}

func TestSessionCreateReplacesSameUserAgent(t *testing.T) {
	ctx := context.Background()
	staffs := newFakeStaffRepo()
	sessions := newFakeSessionRepo()
	svc, _ := newTestSessionService(staffs, sessions, time.Now())
	staff := seedStaff(t, staffs, domain.StaffStatusActive)

	first, err := svc.Create(ctx, staff.ID, testBinding())
	require.NoError(t, err)
	second, err := svc.Create(ctx, staff.ID, testBinding())
	require.NoError(t, err)

	_, _, err = svc.Verify(ctx, first, testBinding())
	assert.True(t, apperrors.IsKind(err, "NOT_FOUND"))

	_, _, err = svc.Verify(ctx, second, testBinding())
	assert.NoError(t, err)

	// A different user agent keeps its own session.
	other := domain.Binding{UserAgent: "agent-b", IPAddress: "1.2.3.4"}
	third, err := svc.Create(ctx, staff.ID, other)
	require.NoError(t, err)
	_, _, err = svc.Verify(ctx, second, testBinding())
	assert.NoError(t, err)
	_, _, err = svc.Verify(ctx, third, other)
	assert.NoError(t, err)
}

func TestSessionVerifyFailures(t *testing.T) {
	ctx := context.Background()
	staffs := newFakeStaffRepo()
	sessions := newFakeSessionRepo()
	svc, now := newTestSessionService(staffs, sessions, time.Now())
	staff := seedStaff(t, staffs, domain.StaffStatusActive)

	token, err := svc.Create(ctx, staff.ID, testBinding())
	require.NoError(t, err)

	t.Run("garbage token", func(t *testing.T) {
		_, _, err := svc.Verify(ctx, "not-a-token", testBinding())
		assert.True(t, apperrors.IsKind(err, "UNAUTHORIZED"))
	})

	t.Run("valid signature but unknown token", func(t *testing.T) {
		otherSvc, _ := newTestSessionService(staffs, newFakeSessionRepo(), time.Now())
		foreign, err := otherSvc.Create(ctx, staff.ID, testBinding())
		require.NoError(t, err)
		_, _, verifyErr := svc.Verify(ctx, foreign, testBinding())
		assert.True(t, apperrors.IsKind(verifyErr, "NOT_FOUND"))
	})

	t.Run("user agent mismatch", func(t *testing.T) {
		mismatch := domain.Binding{UserAgent: "agent-x", IPAddress: "1.2.3.4"}
		_, _, err := svc.Verify(ctx, token, mismatch)
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, "UNAUTHORIZED"))
		assert.Contains(t, err.Error(), "invalid context")
	})

	t.Run("disabled account", func(t *testing.T) {
		staff.Status = domain.StaffStatusInactive
		require.NoError(t, staffs.Update(ctx, staff))
		_, _, err := svc.Verify(ctx, token, testBinding())
		assert.True(t, apperrors.IsKind(err, "FORBIDDEN"))
		staff.Status = domain.StaffStatusActive
		require.NoError(t, staffs.Update(ctx, staff))
	})

	t.Run("natural expiry deletes the row", func(t *testing.T) {
		*now = now.Add(31 * 24 * time.Hour)
		_, _, err := svc.Verify(ctx, token, testBinding())
		assert.True(t, apperrors.IsKind(err, "UNAUTHORIZED"))

		// Row is gone afterwards.
		_, _, err = svc.Verify(ctx, token, testBinding())
		assert.True(t, apperrors.IsKind(err, "NOT_FOUND"))
	})
}

func TestSlideRenewWithinWindow(t *testing.T) {
	ctx := context.Background()
	staffs := newFakeStaffRepo()
	sessions := newFakeSessionRepo()
	svc, now := newTestSessionService(staffs, sessions, time.Now())
	staff := seedStaff(t, staffs, domain.StaffStatusActive)

	token, err := svc.Create(ctx, staff.ID, testBinding())
	require.NoError(t, err)
	session, _, err := svc.Verify(ctx, token, testBinding())
	require.NoError(t, err)
	originalExpiry := session.ExpiresAt

	// Active again six days later: expiry slides to a fresh 30 days.
	*now = now.Add(6 * 24 * time.Hour)
	require.NoError(t, svc.SlideRenew(ctx, session))
	assert.Equal(t, now.Add(30*24*time.Hour), session.ExpiresAt)
	assert.True(t, session.ExpiresAt.After(originalExpiry))
}

func TestSlideRenewSkipsIdleSessions(t *testing.T) {
	ctx := context.Background()
	staffs := newFakeStaffRepo()
	sessions := newFakeSessionRepo()
	svc, now := newTestSessionService(staffs, sessions, time.Now())
	staff := seedStaff(t, staffs, domain.StaffStatusActive)

	token, err := svc.Create(ctx, staff.ID, testBinding())
	require.NoError(t, err)
	session, _, err := svc.Verify(ctx, token, testBinding())
	require.NoError(t, err)
	originalExpiry := session.ExpiresAt

	// Idle for eight days: no renewal, the absolute deadline stands.
	*now = now.Add(8 * 24 * time.Hour)
	require.NoError(t, svc.SlideRenew(ctx, session))
	assert.Equal(t, originalExpiry, session.ExpiresAt)

	stored, err := sessions.GetByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, originalExpiry, stored.ExpiresAt)
}

func TestSessionDelete(t *testing.T) {
	ctx := context.Background()
	staffs := newFakeStaffRepo()
	sessions := newFakeSessionRepo()
	svc, _ := newTestSessionService(staffs, sessions, time.Now())
	staff := seedStaff(t, staffs, domain.StaffStatusActive)

	token, err := svc.Create(ctx, staff.ID, testBinding())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, token))
	err = svc.Delete(ctx, token)
	assert.True(t, apperrors.IsKind(err, "NOT_FOUND"))
}
