package http

// ErrorResponse represents a generic error payload.
type ErrorResponse struct {
	Error string `json:"error" example:"invalid credentials"`
}

// RegisterRequest carries email registration fields.
type RegisterRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"StrongPass!234"`
}

// RegisterResponse is returned with 201 on successful registration.
type RegisterResponse struct {
	ID    string `json:"id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	Email string `json:"email" example:"user@example.com"`
}

// LoginRequest carries email login fields.
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"StrongPass!234"`
}

// LoginResponse carries the access token; the refresh token travels only in
// the HTTP-only cookie.
type LoginResponse struct {
	Email       string `json:"email" example:"user@example.com"`
	AccessToken string `json:"accessToken" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// GoogleLoginRequest carries the Google ID token for login.
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" example:"eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// RefreshResponse carries the re-issued access token.
type RefreshResponse struct {
	AccessToken string `json:"accessToken" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// ProfileResponse echoes the identity decoded from the access token.
type ProfileResponse struct {
	Email string `json:"email" example:"user@example.com"`
	Role  string `json:"role" example:"user"`
}

// ForgotPasswordRequest captures the payload for requesting a reset code.
type ForgotPasswordRequest struct {
	Email string `json:"email" example:"user@example.com"`
}

// ResetPasswordRequest captures the payload for redeeming a reset code.
type ResetPasswordRequest struct {
	Email       string `json:"email" example:"user@example.com"`
	OTP         string `json:"otp" example:"123456"`
	NewPassword string `json:"newPassword" example:"NewPass!45678"`
}
