package domain

import "time"

// Binding scopes a session or challenge to one requesting client.
type Binding struct {
	UserAgent string
	IPAddress string
}

// Session is a persisted signed-token session. At most one session
// exists per (StaffID, Binding.UserAgent).
type Session struct {
	ID        string
	StaffID   string
	Token     string
	UserAgent string
	IPAddress string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
