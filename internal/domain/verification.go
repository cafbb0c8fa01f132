package domain

import "time"

// Verification is a one-time-code challenge bound to a requesting
// client. At most one challenge exists per (StaffID, binding); issuing
// a new one replaces the old.
type Verification struct {
	ID             string
	StaffID        string
	UserAgent      string
	IPAddress      string
	CodeHash       string
	CodeExpiresAt  time.Time
	IsVerifiedCode bool
	ResetExpiresAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
