package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Stockline-Systems/inventory/config"
	"github.com/Stockline-Systems/inventory/internal/constants"
	"github.com/Stockline-Systems/inventory/internal/dto"
	apperrors "github.com/Stockline-Systems/inventory/internal/errors"
	"github.com/Stockline-Systems/inventory/internal/service"
	"github.com/Stockline-Systems/inventory/pkg/context"
)

type AuthHandler struct {
	auth *service.AuthService
	cfg  *config.Config
}

func NewAuthHandler(auth *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{auth: auth, cfg: cfg}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "auth", "Signup")

	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	pair, refresh, err := h.auth.Signup(ctx, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setRefreshCookie(c, refresh)
	c.JSON(http.StatusCreated, pair)
}

func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "auth", "Login")

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	pair, refresh, err := h.auth.Login(ctx, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setRefreshCookie(c, refresh)
	c.JSON(http.StatusOK, pair)
}

// Refresh rotates the refresh token. The token is read from the
// HTTP-only cookie first and the body as a fallback for cookie-less
// clients.
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "auth", "Refresh")

	token, err := c.Cookie(constants.CookieRefreshToken)
	if err != nil || token == "" {
		var req dto.RefreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		respondError(c, apperrors.ErrInvalidRefreshToken)
		return
	}

	pair, next, err := h.auth.Refresh(ctx, token)
	if err != nil {
		h.clearRefreshCookie(c)
		respondError(c, err)
		return
	}

	h.setRefreshCookie(c, next)
	c.JSON(http.StatusOK, pair)
}

// Logout sits outside the auth middleware so it stays idempotent: even
// a stale or absent bearer token ends with the cookie cleared and 200.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "auth", "Logout")

	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if err := h.auth.Logout(ctx, token); err != nil {
		respondError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, constants.BuildSuccessResponse("logged out"))
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "auth", "ForgotPassword")

	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.auth.ForgotPassword(ctx, req.Email); err != nil {
		respondError(c, err)
		return
	}
	// Same response whether or not the email exists
	c.JSON(http.StatusOK, constants.BuildSuccessResponse("if the email is registered, a reset link has been sent"))
}

// ResetPassword consumes the token from the reset link and returns a
// fresh token pair, so the user lands back in a session without a
// second login step.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "auth", "ResetPassword")

	token := c.Param("token")
	if token == "" {
		respondError(c, apperrors.ErrInvalidResetToken)
		return
	}

	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	pair, refresh, err := h.auth.ResetPassword(ctx, token, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setRefreshCookie(c, refresh)
	c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "auth", "VerifyEmail")

	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.auth.VerifyEmail(ctx, currentUserID(c), req.OTP); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse("email verified"))
}

func (h *AuthHandler) ResendVerification(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "auth", "ResendVerification")

	if err := h.auth.ResendVerification(ctx, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse("verification code sent"))
}

func (h *AuthHandler) Me(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "auth", "Me")

	user, err := h.auth.GetProfile(ctx, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "auth", "UpdateProfile")

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	user, err := h.auth.UpdateProfile(ctx, currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "auth", "ChangePassword")

	var req dto.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.auth.ChangePassword(ctx, currentUserID(c), &req); err != nil {
		respondError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, constants.BuildSuccessResponse("password updated, please log in again"))
}

// setRefreshCookie scopes the refresh token to the auth routes so it is
// never sent with ordinary API calls. Secure is only dropped outside
// production for local development over plain HTTP.
func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		constants.CookieRefreshToken,
		token,
		h.cfg.Cookie.RefreshDays*24*3600,
		constants.CookieRefreshPath,
		h.cfg.Cookie.Domain,
		h.cfg.IsProduction(),
		true,
	)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		constants.CookieRefreshToken,
		"",
		-1,
		constants.CookieRefreshPath,
		h.cfg.Cookie.Domain,
		h.cfg.IsProduction(),
		true,
	)
}
