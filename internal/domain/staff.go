package domain

import "time"

// StaffRole enumerates back-office operator roles, strongest first.
type StaffRole string

const (
	StaffRoleSuperAdmin StaffRole = "SUPER_ADMIN"
	StaffRoleAdmin      StaffRole = "ADMIN"
	StaffRoleEditor     StaffRole = "EDITOR"
	StaffRoleViewer     StaffRole = "VIEWER"
)

// Rank places roles in a total order; higher outranks lower.
func (r StaffRole) Rank() int {
	switch r {
	case StaffRoleSuperAdmin:
		return 4
	case StaffRoleAdmin:
		return 3
	case StaffRoleEditor:
		return 2
	case StaffRoleViewer:
		return 1
	default:
		return 0
	}
}

// Valid reports whether the role is one of the known values.
func (r StaffRole) Valid() bool {
	return r.Rank() > 0
}

// Permission enumerates the fixed grant vocabulary.
type Permission string

const (
	PermissionRead   Permission = "READ"
	PermissionWrite  Permission = "WRITE"
	PermissionCreate Permission = "CREATE"
	PermissionDelete Permission = "DELETE"
	PermissionUpdate Permission = "UPDATE"
	PermissionManage Permission = "MANAGE"
)

// StaffStatus represents account lifecycle states.
type StaffStatus string

const (
	StaffStatusActive   StaffStatus = "ACTIVE"
	StaffStatusInactive StaffStatus = "INACTIVE"
)

// Staff models a back-office operator account.
type Staff struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	Status       StaffStatus
	Permissions  []Permission
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
