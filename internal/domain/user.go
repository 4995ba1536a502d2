package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role enumerates the account roles carried inside issued tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is the single account record. Session state (the one live refresh
// token) and password-reset state (OTP, expiry, rate-limit counters) live on
// this row and are mutated only through the repository.
type User struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	Username      *string   `db:"username" json:"username,omitempty"`
	PasswordHash  []byte    `db:"password_hash" json:"-"`
	PasswordSalt  []byte    `db:"password_salt" json:"-"`
	Role          Role      `db:"role" json:"role"`
	EmailVerified bool      `db:"email_verified" json:"email_verified"`

	// RefreshToken is the single currently authorized session. A new login
	// overwrites it; logout sets it back to NULL.
	RefreshToken *string `db:"refresh_token" json:"-"`

	ResetOTP             *string    `db:"reset_otp" json:"-"`
	ResetOTPExpiry       *time.Time `db:"reset_otp_expiry" json:"-"`
	ResetOTPRequestCount int        `db:"reset_otp_request_count" json:"-"`
	LastOTPRequestAt     *time.Time `db:"last_otp_request_at" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
