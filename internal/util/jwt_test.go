package util

import (
	"errors"
	"testing"
	"time"

	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/domain"
)

func testManager() *TokenManager {
	return NewTokenManager(TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     5 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager()
	token, expiresAt, err := m.GenerateAccessToken("user@example.com", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatal("expected a future expiry")
	}

	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.Email != "user@example.com" || claims.Role != domain.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.TokenID != "" {
		t.Fatal("access tokens must not carry a jti")
	}
}

func TestRefreshTokenCarriesUniqueID(t *testing.T) {
	m := testManager()
	first, _, err := m.GenerateRefreshToken("user@example.com", domain.RoleUser)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	second, _, err := m.GenerateRefreshToken("user@example.com", domain.RoleUser)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if first == second {
		t.Fatal("two refresh tokens for the same identity must differ")
	}

	claims, err := m.ParseRefresh(first)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.TokenID == "" {
		t.Fatal("refresh tokens must carry a jti")
	}
}

func TestTokenDomainsAreIsolated(t *testing.T) {
	m := testManager()

	access, _, err := m.GenerateAccessToken("user@example.com", domain.RoleUser)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := m.ParseRefresh(access); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("access token must not verify as refresh, got %v", err)
	}

	refresh, _, err := m.GenerateRefreshToken("user@example.com", domain.RoleUser)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := m.ParseAccess(refresh); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("refresh token must not verify as access, got %v", err)
	}
}

func TestParseFailures(t *testing.T) {
	m := testManager()

	t.Run("garbage", func(t *testing.T) {
		if _, err := m.ParseAccess("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager(TokenConfig{
			AccessSecret:  "other-secret",
			RefreshSecret: "another-secret",
			AccessTTL:     5 * time.Minute,
			RefreshTTL:    time.Hour,
		})
		token, _, err := other.GenerateAccessToken("user@example.com", domain.RoleUser)
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if _, err := m.ParseAccess(token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		expiring := NewTokenManager(TokenConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessTTL:     -time.Minute,
			RefreshTTL:    time.Hour,
		})
		token, _, err := expiring.GenerateAccessToken("user@example.com", domain.RoleUser)
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if _, err := m.ParseAccess(token); !errors.Is(err, ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
	})
}
