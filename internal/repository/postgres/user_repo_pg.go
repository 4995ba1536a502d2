package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/domain"
	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/repository/ports"
)

const userColumns = `id, email, username, password_hash, password_salt, role, email_verified,
        refresh_token, reset_otp, reset_otp_expiry, reset_otp_request_count, last_otp_request_at,
        created_at, updated_at`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateEmailUser(ctx context.Context, email string, username *string, passwordHash, passwordSalt []byte, role domain.Role) (*domain.User, error) {
	const query = `
        INSERT INTO user_account (email, username, password_hash, password_salt, role)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, email, username, passwordHash, passwordSalt, role)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpsertGoogleUser(ctx context.Context, email string, username *string) (*domain.User, error) {
	const query = `
        INSERT INTO user_account (email, username, role)
        VALUES ($1, $2, 'user')
        ON CONFLICT (email) DO UPDATE
        SET username = COALESCE(user_account.username, EXCLUDED.username),
            updated_at = NOW()
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, email, username)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM user_account WHERE email = $1`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM user_account WHERE id = $1`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByRefreshToken(ctx context.Context, token string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM user_account WHERE refresh_token = $1`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, token); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateRefreshToken(ctx context.Context, id uuid.UUID, token *string) error {
	const query = `
        UPDATE user_account
        SET refresh_token = $2,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.ExecContext(ctx, query, id, token)
	return err
}

func (r *UserRepository) ClearRefreshToken(ctx context.Context, token string) error {
	const query = `
        UPDATE user_account
        SET refresh_token = NULL,
            updated_at = NOW()
        WHERE refresh_token = $1
    `
	_, err := r.db.ExecContext(ctx, query, token)
	return err
}

// StorePasswordReset rolls the rate-limit window, bumps the counter and
// writes the new OTP in one conditional UPDATE. When the account is over
// quota inside the window no row matches and sqlx surfaces sql.ErrNoRows.
func (r *UserRepository) StorePasswordReset(ctx context.Context, id uuid.UUID, otp string, expiresAt, requestedAt time.Time, quota ports.ResetQuota) (*domain.User, error) {
	const query = `
        UPDATE user_account
        SET reset_otp = $2,
            reset_otp_expiry = $3,
            reset_otp_request_count = CASE
                WHEN last_otp_request_at IS NULL OR last_otp_request_at < $4 THEN 1
                ELSE reset_otp_request_count + 1
            END,
            last_otp_request_at = $5,
            updated_at = NOW()
        WHERE id = $1
          AND (last_otp_request_at IS NULL
               OR last_otp_request_at < $4
               OR reset_otp_request_count < $6)
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, id, otp, expiresAt, quota.WindowStart, requestedAt, quota.MaxRequests)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error {
	const query = `
        UPDATE user_account
        SET password_hash = $2,
            password_salt = $3,
            reset_otp = NULL,
            reset_otp_expiry = NULL,
            reset_otp_request_count = 0,
            last_otp_request_at = NULL,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.ExecContext(ctx, query, id, passwordHash, passwordSalt)
	return err
}
