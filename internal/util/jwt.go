package util

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/domain"
)

var (
	// ErrTokenExpired is returned when a token's signature is sound but its
	// lifetime has elapsed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for malformed tokens, bad signatures and
	// tokens signed for the other domain.
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the payload carried by both token kinds. Refresh tokens
// additionally get a random TokenID so two tokens issued in the same second
// never collide; the ID is an opaque differentiator, not a revocation handle.
type Claims struct {
	Email   string      `json:"email"`
	Role    domain.Role `json:"role"`
	TokenID string      `json:"jti,omitempty"`
	jwt.RegisteredClaims
}

// TokenConfig enumerates the two signing domains. The secrets must differ so
// a leaked access secret cannot forge refresh tokens and vice versa.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenManager signs and verifies access and refresh tokens. Verification is
// side-effect free; it is the sole gate for trusting claims.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenManager(cfg TokenConfig) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}
}

// GenerateAccessToken signs a short-lived token with the access secret.
func (m *TokenManager) GenerateAccessToken(email string, role domain.Role) (string, time.Time, error) {
	return m.generate(email, role, "", m.accessSecret, m.accessTTL)
}

// GenerateRefreshToken signs a long-lived token with the refresh secret and a
// fresh jti.
func (m *TokenManager) GenerateRefreshToken(email string, role domain.Role) (string, time.Time, error) {
	return m.generate(email, role, uuid.NewString(), m.refreshSecret, m.refreshTTL)
}

func (m *TokenManager) generate(email string, role domain.Role, tokenID string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Email:   email,
		Role:    role,
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseAccess verifies a token against the access secret.
func (m *TokenManager) ParseAccess(tokenString string) (*Claims, error) {
	return m.parse(tokenString, m.accessSecret)
}

// ParseRefresh verifies a token against the refresh secret.
func (m *TokenManager) ParseRefresh(tokenString string) (*Claims, error) {
	return m.parse(tokenString, m.refreshSecret)
}

func (m *TokenManager) parse(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
