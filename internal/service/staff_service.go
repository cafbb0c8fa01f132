package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/admin-backoffice/internal/auth"
	"github.com/spec-kit/admin-backoffice/internal/domain"
	"github.com/spec-kit/admin-backoffice/internal/repository"
	apperrors "github.com/spec-kit/admin-backoffice/pkg/util"
)

// StaffService handles staff administration under the role hierarchy.
type StaffService struct {
	staffs     repository.StaffRepository
	sessions   repository.SessionRepository
	authorizer *auth.RoleAuthorizer
	logger     *zap.Logger
	bcryptCost int
}

// NewStaffService builds the service.
func NewStaffService(staffs repository.StaffRepository, sessions repository.SessionRepository, authorizer *auth.RoleAuthorizer, logger *zap.Logger, bcryptCost int) *StaffService {
	return &StaffService{
		staffs:     staffs,
		sessions:   sessions,
		authorizer: authorizer,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// StaffUpdate carries optional field changes for a staff account.
type StaffUpdate struct {
	Name        *string
	Email       *string
	Role        *domain.StaffRole
	Status      *domain.StaffStatus
	Permissions []domain.Permission
}

// AddStaff creates a staff account on behalf of acting.
func (s *StaffService) AddStaff(ctx context.Context, acting *domain.Staff, name, email, password string, role domain.StaffRole, permissions []domain.Permission) (*domain.Staff, error) {
	if !s.authorizer.CanAddStaff(acting.Role) {
		return nil, apperrors.NewForbidden("role may not add staff")
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

	if _, err := s.staffs.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
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
	s.logger.Info("staff added", zap.String("staff_id", staff.ID), zap.String("by", acting.ID))
	return staff, nil
}

// UpdateStaff edits another staff account under the management
// hierarchy. Deactivating an account deletes its sessions.
func (s *StaffService) UpdateStaff(ctx context.Context, acting *domain.Staff, targetID string, update StaffUpdate) (*domain.Staff, error) {
	target, err := s.getStaff(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizer.AuthorizeEdit(acting.ID, target.ID, acting.Role, target.Role); err != nil {
		return nil, err
	}

	if update.Role != nil {
		if !update.Role.Valid() {
			return nil, apperrors.NewValidationError("unknown role", nil)
		}
		if !s.authorizer.CanManage(acting.Role, *update.Role) {
			return nil, apperrors.NewForbidden("role may not assign target role")
		}
		target.Role = *update.Role
	}
	if update.Name != nil {
		target.Name = *update.Name
	}
	if update.Email != nil {
		target.Email = *update.Email
	}
	if update.Permissions != nil {
		target.Permissions = update.Permissions
	} else if update.Role != nil {
		target.Permissions = s.authorizer.CanonicalPermissions(target.Role)
	}
	if !s.authorizer.ValidatePermissionSet(target.Role, target.Permissions) {
		return nil, apperrors.NewForbidden("permissions must match the role's canonical set")
	}

	deactivated := false
	if update.Status != nil {
		deactivated = target.Status == domain.StaffStatusActive && *update.Status == domain.StaffStatusInactive
		target.Status = *update.Status
	}

	if err := s.staffs.Update(ctx, target); err != nil {
		return nil, err
	}
	if deactivated {
		if err := s.sessions.DeleteAllForStaff(ctx, target.ID); err != nil {
			return nil, err
		}
	}
	return target, nil
}

// UpdateSelf edits the acting staff member's own account. Role changes
// may only demote or keep the current role.
func (s *StaffService) UpdateSelf(ctx context.Context, acting *domain.Staff, update StaffUpdate) (*domain.Staff, error) {
	target, err := s.getStaff(ctx, acting.ID)
	if err != nil {
		return nil, err
	}

	if update.Role != nil {
		if !s.authorizer.AuthorizeSelfEdit(target.Role, *update.Role) {
			return nil, apperrors.NewForbidden("cannot escalate own role")
		}
		target.Role = *update.Role
		target.Permissions = s.authorizer.CanonicalPermissions(target.Role)
	}
	if update.Name != nil {
		target.Name = *update.Name
	}
	if update.Email != nil {
		target.Email = *update.Email
	}
	if update.Permissions != nil {
		if !s.authorizer.ValidatePermissionSet(target.Role, update.Permissions) {
			return nil, apperrors.NewForbidden("permissions must match the role's canonical set")
		}
		target.Permissions = update.Permissions
	}

	if err := s.staffs.Update(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

// RemoveStaff deletes a staff account. Self-removal is a silent no-op.
func (s *StaffService) RemoveStaff(ctx context.Context, acting *domain.Staff, targetID string) error {
	if acting.ID == targetID {
		return nil
	}

	target, err := s.getStaff(ctx, targetID)
	if err != nil {
		return err
	}
	if !s.authorizer.AuthorizeRemove(acting.ID, target.ID, acting.Role, target.Role) {
		return apperrors.NewForbidden("role may not remove target staff")
	}

	if err := s.staffs.Delete(ctx, target.ID); err != nil {
		return err
	}
	s.logger.Info("staff removed", zap.String("staff_id", target.ID), zap.String("by", acting.ID))
	return nil
}

// GetStaff fetches one staff account.
func (s *StaffService) GetStaff(ctx context.Context, id string) (*domain.Staff, error) {
	return s.getStaff(ctx, id)
}

// ListStaff lists staff accounts.
func (s *StaffService) ListStaff(ctx context.Context, filter repository.StaffFilter) ([]domain.Staff, error) {
	return s.staffs.List(ctx, filter)
}

func (s *StaffService) getStaff(ctx context.Context, id string) (*domain.Staff, error) {
	staff, err := s.staffs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", nil)
		}
		return nil, err
	}
	return staff, nil
}
