package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/util"
)

const (
	contextClaimsKey = "auth.claims"

	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// RequireAuth gates protected routes. The access token is read from the
// accessToken cookie, falling back to an Authorization bearer header. The
// gate only verifies the token; it never touches persistence and never
// issues tokens. A missing token yields 401, a bad or expired one 403.
func RequireAuth(tokens *util.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractAccessToken(c)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, util.Error("access token not found"))
			}
			claims, err := tokens.ParseAccess(token)
			if err != nil {
				return c.JSON(http.StatusForbidden, util.Error("invalid access token"))
			}
			c.Set(contextClaimsKey, claims)
			return next(c)
		}
	}
}

func extractAccessToken(c echo.Context) string {
	if cookie, err := c.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// CurrentClaims returns the verified token claims attached by RequireAuth.
func CurrentClaims(c echo.Context) (*util.Claims, bool) {
	claims, ok := c.Get(contextClaimsKey).(*util.Claims)
	return claims, ok
}
