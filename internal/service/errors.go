package service

import "errors"

var (
	// ErrInvalidCredentials covers both "no such account" and "wrong
	// password" so login responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyUsed   = errors.New("email already registered")
	ErrPasswordTooWeak    = errors.New("password does not meet requirements")

	// ErrSessionNotFound means a cryptographically valid refresh token no
	// longer matches any account: it was rotated away by a newer login or
	// cleared by logout.
	ErrSessionNotFound = errors.New("session not found")

	ErrResetRateLimited = errors.New("too many reset requests")
	ErrResetOTPInvalid  = errors.New("invalid reset code")
	ErrResetOTPExpired  = errors.New("reset code expired")
)
