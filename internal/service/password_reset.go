package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/repository/ports"
	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/util"
)

// RequestPasswordReset generates a new OTP for the account and mails it. An
// unknown email returns nil so the HTTP response is identical to the success
// path. The quota check happens inside a single conditional update on the
// account row, so concurrent requests cannot slip past the limit.
//
// A mail delivery failure is reported to the caller but the persisted OTP
// state is kept: the code was already charged against the quota and remains
// usable should the mail have left the building after all.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}

	otp, err := util.GenerateNumericOTP(s.otpLength)
	if err != nil {
		return err
	}

	now := s.now()
	quota := ports.ResetQuota{
		WindowStart: now.Add(-s.resetWindow),
		MaxRequests: s.resetMax,
	}
	if _, err := s.users.StorePasswordReset(ctx, user.ID, otp, now.Add(s.resetTTL), now, quota); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrResetRateLimited
		}
		return err
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, otp); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

// ConfirmPasswordReset validates the presented OTP and installs the new
// password. Unknown emails fail exactly like a wrong code. On success the
// OTP, its expiry and the rate-limit counters are cleared in the same update
// that writes the hash, so a code can never be redeemed twice.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, email, otp, newPassword string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrResetOTPInvalid
		}
		return err
	}

	if user.ResetOTP == nil || user.ResetOTPExpiry == nil {
		return ErrResetOTPInvalid
	}
	if !util.OTPEqual(otp, *user.ResetOTP) {
		return ErrResetOTPInvalid
	}
	if s.now().After(*user.ResetOTPExpiry) {
		return ErrResetOTPExpired
	}

	if err := util.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordTooWeak, err)
	}
	hash, salt, err := util.DerivePassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.ResetPassword(ctx, user.ID, hash, salt)
}
