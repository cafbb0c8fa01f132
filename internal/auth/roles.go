package auth

import (
	"github.com/spec-kit/admin-backoffice/internal/domain"
	apperrors "github.com/spec-kit/admin-backoffice/pkg/util"
)

// canonicalPermissions maps each role to its exact permission set.
// ValidatePermissionSet requires equality, not subset.
var canonicalPermissions = map[domain.StaffRole][]domain.Permission{
	domain.StaffRoleSuperAdmin: {
		domain.PermissionRead, domain.PermissionWrite, domain.PermissionCreate,
		domain.PermissionDelete, domain.PermissionUpdate, domain.PermissionManage,
	},
	domain.StaffRoleAdmin: {
		domain.PermissionRead, domain.PermissionWrite, domain.PermissionCreate,
		domain.PermissionDelete, domain.PermissionUpdate,
	},
	domain.StaffRoleEditor: {
		domain.PermissionRead, domain.PermissionWrite, domain.PermissionCreate,
		domain.PermissionUpdate,
	},
	domain.StaffRoleViewer: {
		domain.PermissionRead,
	},
}

// manageable maps each role to the roles it may edit or remove.
var manageable = map[domain.StaffRole][]domain.StaffRole{
	domain.StaffRoleSuperAdmin: {domain.StaffRoleAdmin, domain.StaffRoleEditor, domain.StaffRoleViewer},
	domain.StaffRoleAdmin:      {domain.StaffRoleEditor, domain.StaffRoleViewer},
	domain.StaffRoleEditor:     {},
	domain.StaffRoleViewer:     {},
}

// RoleAuthorizer applies the static role hierarchy and permission-set
// rules for staff administration.
type RoleAuthorizer struct{}

// NewRoleAuthorizer constructs the authorizer.
func NewRoleAuthorizer() *RoleAuthorizer {
	return &RoleAuthorizer{}
}

// CanonicalPermissions returns the exact permission set for a role.
func (a *RoleAuthorizer) CanonicalPermissions(role domain.StaffRole) []domain.Permission {
	perms := canonicalPermissions[role]
	out := make([]domain.Permission, len(perms))
	copy(out, perms)
	return out
}

// ValidatePermissionSet reports whether requested equals the canonical
// set for role exactly.
func (a *RoleAuthorizer) ValidatePermissionSet(role domain.StaffRole, requested []domain.Permission) bool {
	canonical := canonicalPermissions[role]
	if len(requested) != len(canonical) {
		return false
	}
	want := make(map[domain.Permission]struct{}, len(canonical))
	for _, p := range canonical {
		want[p] = struct{}{}
	}
	for _, p := range requested {
		if _, ok := want[p]; !ok {
			return false
		}
		delete(want, p)
	}
	return len(want) == 0
}

// CanAddStaff reports whether a role may create staff accounts.
func (a *RoleAuthorizer) CanAddStaff(actingRole domain.StaffRole) bool {
	return actingRole.Valid() && actingRole != domain.StaffRoleViewer
}

// CanManage reports whether actingRole may edit or remove targetRole.
func (a *RoleAuthorizer) CanManage(actingRole, targetRole domain.StaffRole) bool {
	for _, role := range manageable[actingRole] {
		if role == targetRole {
			return true
		}
	}
	return false
}

// AuthorizeEdit gates editing another staff account. Editing oneself
// through this path is rejected; self-edits go through AuthorizeSelfEdit.
func (a *RoleAuthorizer) AuthorizeEdit(actingID, targetID string, actingRole, targetRole domain.StaffRole) error {
	if actingID == targetID {
		return apperrors.NewForbidden("cannot edit own account via staff management")
	}
	if !a.CanManage(actingRole, targetRole) {
		return apperrors.NewForbidden("role may not manage target staff")
	}
	return nil
}

// AuthorizeRemove gates removing another staff account. Self-removal is
// silently disallowed rather than an error.
func (a *RoleAuthorizer) AuthorizeRemove(actingID, targetID string, actingRole, targetRole domain.StaffRole) bool {
	if actingID == targetID {
		return false
	}
	return a.CanManage(actingRole, targetRole)
}

// AuthorizeSelfEdit reports whether a staff member may set their own
// role to requestedRole. Demotion and keeping the current role are
// allowed; escalation is not.
func (a *RoleAuthorizer) AuthorizeSelfEdit(currentRole, requestedRole domain.StaffRole) bool {
	if !requestedRole.Valid() {
		return false
	}
	return requestedRole.Rank() <= currentRole.Rank()
}
