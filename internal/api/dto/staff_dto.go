package dto

// StaffCreateRequest payload.
type StaffCreateRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// StaffUpdateRequest payload; nil fields are left unchanged.
type StaffUpdateRequest struct {
	Name        *string  `json:"name"`
	Email       *string  `json:"email"`
	Role        *string  `json:"role"`
	Status      *string  `json:"status"`
	Permissions []string `json:"permissions"`
}

// StaffResponse is the public staff shape.
type StaffResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Status      string   `json:"status"`
	Permissions []string `json:"permissions"`
}
