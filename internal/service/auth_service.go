package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"google.golang.org/api/idtoken"

	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/domain"
	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/repository/ports"
	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/util"
)

// ResetMailer delivers one-time passcodes for the password reset flow.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, email, otp string) error
}

// AuthConfig carries the tunables of the credential lifecycle.
type AuthConfig struct {
	GoogleAudience string
	OTPLength      int
	ResetTTL       time.Duration
	ResetWindow    time.Duration
	ResetMaxTries  int
}

// AuthService owns the credential lifecycle: registration, login, refresh,
// logout and the OTP password-reset flow. All per-account state lives in the
// repository record, so the service itself is safe to share across requests.
type AuthService struct {
	users     ports.UserRepository
	tokens    *util.TokenManager
	mailer    ResetMailer
	googleAud string

	otpLength   int
	resetTTL    time.Duration
	resetWindow time.Duration
	resetMax    int

	now func() time.Time
}

func NewAuthService(users ports.UserRepository, tokens *util.TokenManager, mailer ResetMailer, cfg AuthConfig) *AuthService {
	s := &AuthService{
		users:       users,
		tokens:      tokens,
		mailer:      mailer,
		googleAud:   cfg.GoogleAudience,
		otpLength:   cfg.OTPLength,
		resetTTL:    cfg.ResetTTL,
		resetWindow: cfg.ResetWindow,
		resetMax:    cfg.ResetMaxTries,
		now:         time.Now,
	}
	if s.otpLength <= 0 {
		s.otpLength = 6
	}
	if s.resetTTL <= 0 {
		s.resetTTL = 10 * time.Minute
	}
	if s.resetWindow <= 0 {
		s.resetWindow = time.Hour
	}
	if s.resetMax <= 0 {
		s.resetMax = 5
	}
	return s
}

// LoginResult bundles the freshly issued token pair with the account it was
// issued for.
type LoginResult struct {
	User             *domain.User
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

func (s *AuthService) RegisterWithEmail(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if err := util.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordTooWeak, err)
	}
	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		return nil, err
	}
	user, err := s.users.CreateEmailUser(ctx, email, nil, hash, salt, domain.RoleUser)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailAlreadyUsed
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) LoginWithEmail(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !util.VerifyPassword(password, user.PasswordSalt, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, user)
}

// LoginWithGoogle validates a Google ID token and issues the same token pair
// an email login would, provisioning the account on first sight.
func (s *AuthService) LoginWithGoogle(ctx context.Context, idTok string) (*LoginResult, error) {
	payload, err := idtoken.Validate(ctx, idTok, s.googleAud)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	var username *string
	if name, ok := payload.Claims["name"].(string); ok && name != "" {
		username = &name
	}
	user, err := s.users.UpsertGoogleUser(ctx, normalizeEmail(email), username)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, user)
}

// startSession issues a token pair and persists the refresh token as the
// account's single session slot, silently superseding any prior session.
func (s *AuthService) startSession(ctx context.Context, user *domain.User) (*LoginResult, error) {
	access, accessExp, err := s.tokens.GenerateAccessToken(user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.GenerateRefreshToken(user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateRefreshToken(ctx, user.ID, &refresh); err != nil {
		return nil, err
	}
	return &LoginResult{
		User:             user,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges a live refresh token for a new access token. The stored
// refresh token is deliberately left in place rather than rotated: it stays
// valid until the next login or logout, matching the single-slot session
// model. Tokens that verify but no longer match the stored slot fail with
// ErrSessionNotFound.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	if _, err := s.tokens.ParseRefresh(refreshToken); err != nil {
		return "", time.Time{}, err
	}
	user, err := s.users.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, ErrSessionNotFound
		}
		return "", time.Time{}, err
	}
	return s.tokens.GenerateAccessToken(user.Email, user.Role)
}

// Logout clears the session slot holding the token. Unknown or already
// cleared tokens are treated as success, so logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	return s.users.ClearRefreshToken(ctx, refreshToken)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
