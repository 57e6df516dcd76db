package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Stockline-Systems/inventory/internal/handler"
)

// registerAuthRoutes mounts the session lifecycle. Refresh and the
// password reset flow stay public; everything else needs a valid
// access token.
func registerAuthRoutes(public, authed *gin.RouterGroup, h *handler.AuthHandler) {
	auth := public.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/forgotPassword", h.ForgotPassword)
		auth.PATCH("/resetPassword/:token", h.ResetPassword)
		// Logout is public and best effort so calling it twice works
		auth.GET("/logout", h.Logout)
	}

	account := authed.Group("/auth")
	{
		account.GET("/isLoggedIn", h.Me)
		account.POST("/verifyEmail", h.VerifyEmail)
		account.POST("/resendVerification", h.ResendVerification)
		account.PATCH("/updateProfile", h.UpdateProfile)
		account.PATCH("/updatePassword", h.ChangePassword)
	}
}
