package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/domain"
	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/repository/ports"
	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/util"
)

// memUserRepo is an in-memory stand-in for the postgres repository. It
// mirrors the repository contract including the conditional quota update, so
// the multi-step flow tests (rotation, rate window) run against real state.
type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *memUserRepo) CreateEmailUser(ctx context.Context, email string, username *string, passwordHash, passwordSalt []byte, role domain.Role) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return nil, &pgconn.PgError{Code: "23505"}
		}
	}
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: append([]byte(nil), passwordHash...),
		PasswordSalt: append([]byte(nil), passwordSalt...),
		Role:         role,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.users[user.ID] = user
	out := *user
	return &out, nil
}

func (r *memUserRepo) UpsertGoogleUser(ctx context.Context, email string, username *string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	user := &domain.User{ID: uuid.New(), Email: email, Username: username, Role: domain.RoleUser}
	r.users[user.ID] = user
	out := *user
	return &out, nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		out := *u
		return &out, nil
	}
	return nil, sql.ErrNoRows
}

func (r *memUserRepo) FindByRefreshToken(ctx context.Context, token string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.RefreshToken != nil && *u.RefreshToken == token {
			out := *u
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memUserRepo) UpdateRefreshToken(ctx context.Context, id uuid.UUID, token *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.RefreshToken = token
	return nil
}

func (r *memUserRepo) ClearRefreshToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.RefreshToken != nil && *u.RefreshToken == token {
			u.RefreshToken = nil
		}
	}
	return nil
}

func (r *memUserRepo) StorePasswordReset(ctx context.Context, id uuid.UUID, otp string, expiresAt, requestedAt time.Time, quota ports.ResetQuota) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	switch {
	case u.LastOTPRequestAt == nil || u.LastOTPRequestAt.Before(quota.WindowStart):
		u.ResetOTPRequestCount = 1
	case u.ResetOTPRequestCount < quota.MaxRequests:
		u.ResetOTPRequestCount++
	default:
		return nil, sql.ErrNoRows
	}
	u.ResetOTP = &otp
	u.ResetOTPExpiry = &expiresAt
	at := requestedAt
	u.LastOTPRequestAt = &at
	out := *u
	return &out, nil
}

func (r *memUserRepo) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = append([]byte(nil), passwordHash...)
	u.PasswordSalt = append([]byte(nil), passwordSalt...)
	u.ResetOTP = nil
	u.ResetOTPExpiry = nil
	u.ResetOTPRequestCount = 0
	u.LastOTPRequestAt = nil
	return nil
}

type fakeResetMailer struct {
	sent []struct{ email, otp string }
	err  error
}

func (f *fakeResetMailer) SendPasswordReset(ctx context.Context, email, otp string) error {
	f.sent = append(f.sent, struct{ email, otp string }{email: email, otp: otp})
	return f.err
}

func newTestTokens() *util.TokenManager {
	return util.NewTokenManager(util.TokenConfig{
		AccessSecret:  "access-test-secret",
		RefreshSecret: "refresh-test-secret",
		AccessTTL:     5 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
}

func newAuthServiceForTests(repo ports.UserRepository, mailer ResetMailer) *AuthService {
	return NewAuthService(repo, newTestTokens(), mailer, AuthConfig{})
}

func TestRegisterWithEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("success normalizes email", func(t *testing.T) {
		repo := newMemUserRepo()
		svc := newAuthServiceForTests(repo, &fakeResetMailer{})

		user, err := svc.RegisterWithEmail(ctx, "Test@Example.com ", "SuperSecret12!")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.Email != "test@example.com" {
			t.Fatalf("email should be normalized, got %q", user.Email)
		}
		if len(user.PasswordHash) == 0 || len(user.PasswordSalt) == 0 {
			t.Fatal("expected password hash and salt to be set")
		}
		if user.Role != domain.RoleUser {
			t.Fatalf("expected default role user, got %q", user.Role)
		}
		if user.RefreshToken != nil {
			t.Fatal("fresh account must have no session")
		}
	})

	t.Run("weak password", func(t *testing.T) {
		repo := newMemUserRepo()
		svc := newAuthServiceForTests(repo, &fakeResetMailer{})

		if _, err := svc.RegisterWithEmail(ctx, "weak@example.com", "weakpass"); !errors.Is(err, ErrPasswordTooWeak) {
			t.Fatalf("expected ErrPasswordTooWeak, got %v", err)
		}
		if len(repo.users) != 0 {
			t.Fatal("expected no account for invalid password")
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := newMemUserRepo()
		svc := newAuthServiceForTests(repo, &fakeResetMailer{})

		if _, err := svc.RegisterWithEmail(ctx, "dup@example.com", "SuperSecret12!"); err != nil {
			t.Fatalf("first registration failed: %v", err)
		}
		if _, err := svc.RegisterWithEmail(ctx, "dup@example.com", "OtherSecret12!"); !errors.Is(err, ErrEmailAlreadyUsed) {
			t.Fatalf("expected ErrEmailAlreadyUsed, got %v", err)
		}
	})
}

func TestLoginWithEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("user not found", func(t *testing.T) {
		svc := newAuthServiceForTests(newMemUserRepo(), &fakeResetMailer{})
		if _, err := svc.LoginWithEmail(ctx, "none@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("password mismatch", func(t *testing.T) {
		repo := newMemUserRepo()
		svc := newAuthServiceForTests(repo, &fakeResetMailer{})
		if _, err := svc.RegisterWithEmail(ctx, "alice@example.com", "RightSecret12!"); err != nil {
			t.Fatalf("register failed: %v", err)
		}
		if _, err := svc.LoginWithEmail(ctx, "alice@example.com", "WrongSecret12!"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("success persists refresh token", func(t *testing.T) {
		repo := newMemUserRepo()
		svc := newAuthServiceForTests(repo, &fakeResetMailer{})
		if _, err := svc.RegisterWithEmail(ctx, "alice@example.com", "RightSecret12!"); err != nil {
			t.Fatalf("register failed: %v", err)
		}

		result, err := svc.LoginWithEmail(ctx, "alice@example.com", "RightSecret12!")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.AccessToken == "" || result.RefreshToken == "" {
			t.Fatal("expected a full token pair")
		}
		stored, err := repo.FindByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if stored.RefreshToken == nil || *stored.RefreshToken != result.RefreshToken {
			t.Fatal("expected refresh token to be persisted as the session slot")
		}
	})

	t.Run("second login supersedes the first session", func(t *testing.T) {
		repo := newMemUserRepo()
		svc := newAuthServiceForTests(repo, &fakeResetMailer{})
		if _, err := svc.RegisterWithEmail(ctx, "alice@example.com", "RightSecret12!"); err != nil {
			t.Fatalf("register failed: %v", err)
		}

		first, err := svc.LoginWithEmail(ctx, "alice@example.com", "RightSecret12!")
		if err != nil {
			t.Fatalf("first login failed: %v", err)
		}
		second, err := svc.LoginWithEmail(ctx, "alice@example.com", "RightSecret12!")
		if err != nil {
			t.Fatalf("second login failed: %v", err)
		}
		if first.RefreshToken == second.RefreshToken {
			t.Fatal("expected rotation to mint a distinct refresh token")
		}

		if _, _, err := svc.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound for the displaced token, got %v", err)
		}
		if _, _, err := svc.Refresh(ctx, second.RefreshToken); err != nil {
			t.Fatalf("expected current token to refresh, got %v", err)
		}
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a new access token without rotating", func(t *testing.T) {
		repo := newMemUserRepo()
		svc := newAuthServiceForTests(repo, &fakeResetMailer{})
		if _, err := svc.RegisterWithEmail(ctx, "alice@example.com", "RightSecret12!"); err != nil {
			t.Fatalf("register failed: %v", err)
		}
		login, err := svc.LoginWithEmail(ctx, "alice@example.com", "RightSecret12!")
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}

		access, _, err := svc.Refresh(ctx, login.RefreshToken)
		if err != nil {
			t.Fatalf("refresh failed: %v", err)
		}
		if access == "" {
			t.Fatal("expected an access token")
		}
		stored, _ := repo.FindByEmail(ctx, "alice@example.com")
		if stored.RefreshToken == nil || *stored.RefreshToken != login.RefreshToken {
			t.Fatal("refresh must leave the stored refresh token unchanged")
		}
	})

	t.Run("expired refresh token", func(t *testing.T) {
		expiring := util.NewTokenManager(util.TokenConfig{
			AccessSecret:  "access-test-secret",
			RefreshSecret: "refresh-test-secret",
			AccessTTL:     5 * time.Minute,
			RefreshTTL:    -time.Minute,
		})
		token, _, err := expiring.GenerateRefreshToken("alice@example.com", domain.RoleUser)
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}

		svc := newAuthServiceForTests(newMemUserRepo(), &fakeResetMailer{})
		if _, _, err := svc.Refresh(ctx, token); !errors.Is(err, util.ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		svc := newAuthServiceForTests(newMemUserRepo(), &fakeResetMailer{})
		access, _, err := newTestTokens().GenerateAccessToken("alice@example.com", domain.RoleUser)
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if _, _, err := svc.Refresh(ctx, access); !errors.Is(err, util.ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid, got %v", err)
		}
	})
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newMemUserRepo()
	svc := newAuthServiceForTests(repo, &fakeResetMailer{})
	if _, err := svc.RegisterWithEmail(ctx, "alice@example.com", "RightSecret12!"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	login, err := svc.LoginWithEmail(ctx, "alice@example.com", "RightSecret12!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := svc.Logout(ctx, login.RefreshToken); err != nil {
		t.Fatalf("first logout failed: %v", err)
	}
	stored, _ := repo.FindByEmail(ctx, "alice@example.com")
	if stored.RefreshToken != nil {
		t.Fatal("expected session slot to be cleared")
	}

	if err := svc.Logout(ctx, login.RefreshToken); err != nil {
		t.Fatalf("second logout must also succeed: %v", err)
	}
	if err := svc.Logout(ctx, ""); err != nil {
		t.Fatalf("logout without a token must succeed: %v", err)
	}

	if _, _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after logout, got %v", err)
	}
}
