package dto

// SignInRequest payload.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInByOTPRequest payload.
type SignInByOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// SignUpRequest payload.
type SignUpRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// VerifyEmailRequest payload for issuing a one-time code.
type VerifyEmailRequest struct {
	Email string `json:"email"`
}

// VerifyOTPCodeRequest payload.
type VerifyOTPCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResetPasswordRequest payload.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// FlowResponse is the uniform auth-flow success body.
type FlowResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
