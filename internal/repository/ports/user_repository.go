package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/domain"
)

// ResetQuota bounds OTP requests per account: at most MaxRequests whose
// window anchor falls at or after WindowStart.
type ResetQuota struct {
	WindowStart time.Time
	MaxRequests int
}

// UserRepository is the credential repository collaborator. Implementations
// must apply each update as a single atomic statement against the account
// row; StorePasswordReset in particular carries the quota check inside the
// update so concurrent requests cannot race past the limit.
type UserRepository interface {
	CreateEmailUser(ctx context.Context, email string, username *string, passwordHash, passwordSalt []byte, role domain.Role) (*domain.User, error)
	UpsertGoogleUser(ctx context.Context, email string, username *string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// FindByRefreshToken resolves the account whose single live session
	// matches the presented token value.
	FindByRefreshToken(ctx context.Context, token string) (*domain.User, error)
	// UpdateRefreshToken rotates the account's session slot; nil clears it.
	UpdateRefreshToken(ctx context.Context, id uuid.UUID, token *string) error
	// ClearRefreshToken logs out whichever account holds the token. It is a
	// no-op when no account matches.
	ClearRefreshToken(ctx context.Context, token string) error

	// StorePasswordReset persists a new OTP and expiry while atomically
	// enforcing quota: the request counter restarts at 1 when the previous
	// anchor predates quota.WindowStart, increments otherwise, and the update
	// is refused (sql.ErrNoRows) when the in-window count has already reached
	// quota.MaxRequests.
	StorePasswordReset(ctx context.Context, id uuid.UUID, otp string, expiresAt, requestedAt time.Time, quota ResetQuota) (*domain.User, error)
	// ResetPassword sets the new hash and clears all OTP state in one update.
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error
}
