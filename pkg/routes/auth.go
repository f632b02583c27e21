package routes

import (
	authctl "restaurant_backend/pkg/controllers/auth"
	"restaurant_backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes registers all authentication routes
func RegisterAuthRoutes(router *gin.RouterGroup, deps Dependencies) {
	h := authctl.New(deps.Auth, deps.Config.CookieSecure == "true")

	authGroup := router.Group("/auth")
	{
		// Staff auth
		authGroup.POST("/staff-signin", h.StaffSignIn)
		authGroup.POST("/signout", h.SignOut)

		// Protected routes
		protected := authGroup.Group("")
		protected.Use(middleware.AuthenticateToken(deps.Auth))
		protected.GET("/me", h.Me)
		protected.POST("/change-password", h.ChangePassword)

		// Two-factor
		protected.GET("/2fa/status", h.Get2FAStatus)
		protected.POST("/2fa/generate", h.Generate2FASetup)
		protected.POST("/2fa/enable", h.Enable2FA)
		protected.POST("/2fa/disable", h.Disable2FA)
	}
}
