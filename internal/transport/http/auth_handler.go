package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/service"
	"github.com/Mehedi7242/jwt-refresh-auth-system/internal/util"
)

type AuthHandler struct {
	auth   *service.AuthService
	tokens *util.TokenManager
}

// RegisterAuth mounts the credential endpoints. The refresh token travels in
// an HTTP-only secure cookie; access tokens are returned in the body and
// presented back via the accessToken cookie (or a bearer header).
func RegisterAuth(e *echo.Echo, auth *service.AuthService, tokens *util.TokenManager, limiter echo.MiddlewareFunc) {
	h := &AuthHandler{auth: auth, tokens: tokens}

	e.POST("/register", h.register, limiter)
	e.POST("/login", h.login, limiter)
	e.POST("/auth/google", h.loginGoogle, limiter)
	e.POST("/refreshToken", h.refresh)
	e.POST("/logout", h.logout)
	e.POST("/profile", h.profile, RequireAuth(tokens))
	e.POST("/forgot-password", h.forgotPassword, limiter)
	e.POST("/reset-password", h.resetPassword, limiter)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, util.Error("email and password are required"))
	}

	user, err := h.auth.RegisterWithEmail(c.Request().Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrEmailAlreadyUsed):
		return c.JSON(http.StatusConflict, util.Error("user already exists"))
	case errors.Is(err, service.ErrPasswordTooWeak):
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	case err != nil:
		return internalError(c, err)
	}

	return c.JSON(http.StatusCreated, RegisterResponse{ID: user.ID.String(), Email: user.Email})
}

func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	result, err := h.auth.LoginWithEmail(c.Request().Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, util.Error("invalid credentials"))
	case err != nil:
		return internalError(c, err)
	}

	setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresAt)
	return c.JSON(http.StatusOK, LoginResponse{Email: result.User.Email, AccessToken: result.AccessToken})
}

func (h *AuthHandler) loginGoogle(c echo.Context) error {
	var req GoogleLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	result, err := h.auth.LoginWithGoogle(c.Request().Context(), req.IDToken)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, util.Error("invalid google token"))
	case err != nil:
		return internalError(c, err)
	}

	setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresAt)
	return c.JSON(http.StatusOK, LoginResponse{Email: result.User.Email, AccessToken: result.AccessToken})
}

func (h *AuthHandler) refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, util.Error("refresh token not found"))
	}

	access, _, err := h.auth.Refresh(c.Request().Context(), cookie.Value)
	switch {
	case errors.Is(err, util.ErrTokenExpired),
		errors.Is(err, util.ErrTokenInvalid),
		errors.Is(err, service.ErrSessionNotFound):
		return c.JSON(http.StatusForbidden, util.Error("invalid refresh token"))
	case err != nil:
		return internalError(c, err)
	}

	return c.JSON(http.StatusOK, RefreshResponse{AccessToken: access})
}

func (h *AuthHandler) logout(c echo.Context) error {
	token := ""
	if cookie, err := c.Cookie(refreshTokenCookie); err == nil {
		token = cookie.Value
	}

	if err := h.auth.Logout(c.Request().Context(), token); err != nil {
		return internalError(c, err)
	}

	clearRefreshCookie(c)
	return c.JSON(http.StatusOK, util.Message("logged out"))
}

func (h *AuthHandler) profile(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	return c.JSON(http.StatusOK, ProfileResponse{Email: claims.Email, Role: string(claims.Role)})
}

func (h *AuthHandler) forgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	err := h.auth.RequestPasswordReset(c.Request().Context(), req.Email)
	switch {
	case errors.Is(err, service.ErrResetRateLimited):
		return c.JSON(http.StatusTooManyRequests, util.Error("too many reset requests, try again later"))
	case err != nil:
		return internalError(c, err)
	}

	// Identical response whether or not the account exists.
	return c.JSON(http.StatusOK, util.Message("if that account exists, a reset code has been sent"))
}

func (h *AuthHandler) resetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	err := h.auth.ConfirmPasswordReset(c.Request().Context(), req.Email, req.OTP, req.NewPassword)
	switch {
	case errors.Is(err, service.ErrResetOTPInvalid), errors.Is(err, service.ErrResetOTPExpired):
		return c.JSON(http.StatusBadRequest, util.Error("invalid or expired reset code"))
	case errors.Is(err, service.ErrPasswordTooWeak):
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	case err != nil:
		return internalError(c, err)
	}

	return c.JSON(http.StatusOK, util.Message("password updated"))
}

func setRefreshCookie(c echo.Context, token string, expiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     refreshTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// internalError hides collaborator failures behind a uniform 500; the detail
// goes to the request log only.
func internalError(c echo.Context, err error) error {
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, util.Error("internal server error"))
}
