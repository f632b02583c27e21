// Package auth handles staff sign-in, session and account security routes.
package auth

import (
	"net/http"

	authsvc "restaurant_backend/pkg/auth"
	"restaurant_backend/pkg/middleware"
	"restaurant_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Controller handles /api/auth routes
type Controller struct {
	auth         *authsvc.Service
	cookieSecure bool
}

// New creates an auth controller
func New(svc *authsvc.Service, cookieSecure bool) *Controller {
	return &Controller{auth: svc, cookieSecure: cookieSecure}
}

// StaffSignIn signs a staff member in by phone number or email
func (h *Controller) StaffSignIn(c *gin.Context) {
	var req struct {
		Identifier  string `json:"identifier"`
		PhoneNumber string `json:"phoneNumber"`
		Email       string `json:"email"`
		Password    string `json:"password" binding:"required"`
		TOTPCode    string `json:"totpCode"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Phone number and password are required")
		return
	}

	identifier := req.Identifier
	if identifier == "" {
		identifier = req.PhoneNumber
	}
	if identifier == "" {
		identifier = req.Email
	}

	session, err := h.auth.SignIn(c.Request.Context(), identifier, req.Password, req.TOTPCode)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	c.SetCookie(
		middleware.TokenCookie,
		session.Token,
		int(h.auth.TokenTTL().Seconds()),
		"/",
		"",
		h.cookieSecure,
		true,
	)

	c.JSON(http.StatusOK, gin.H{
		"message": "Staff login successful",
		"user":    session.Staff,
		"token":   session.Token,
	})
}

// Me returns the signed-in staff member
func (h *Controller) Me(c *gin.Context) {
	staff, ok := middleware.CurrentStaff(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Not authenticated")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": staff})
}

// SignOut clears the session cookie
func (h *Controller) SignOut(c *gin.Context) {
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}

// ChangePassword updates the signed-in staff member's password
func (h *Controller) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
		ConfirmPassword string `json:"confirmPassword" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Current password, new password, and confirm password are required")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		utils.BadRequestResponse(c, "New passwords do not match")
		return
	}

	staff, _ := middleware.CurrentStaff(c)
	if err := h.auth.ChangePassword(c.Request.Context(), staff.ID, req.CurrentPassword, req.NewPassword); err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// Get2FAStatus returns whether 2FA is enabled
func (h *Controller) Get2FAStatus(c *gin.Context) {
	staff, _ := middleware.CurrentStaff(c)
	c.JSON(http.StatusOK, gin.H{
		"message":          "2FA status fetched successfully",
		"twoFactorEnabled": staff.TwoFactorEnabled,
	})
}

// Generate2FASetup creates a TOTP secret to scan into an authenticator app
func (h *Controller) Generate2FASetup(c *gin.Context) {
	staff, _ := middleware.CurrentStaff(c)
	setup, err := h.auth.Generate2FA(c.Request.Context(), staff.ID)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "2FA setup generated",
		"secret":     setup.Secret,
		"otpAuthUrl": setup.OTPAuthURL,
	})
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// Enable2FA turns on 2FA after verifying a code
func (h *Controller) Enable2FA(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Token is required")
		return
	}
	staff, _ := middleware.CurrentStaff(c)
	if err := h.auth.Enable2FA(c.Request.Context(), staff.ID, req.Token); err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "2FA enabled successfully"})
}

// Disable2FA turns off 2FA after verifying a code
func (h *Controller) Disable2FA(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Token is required")
		return
	}
	staff, _ := middleware.CurrentStaff(c)
	if err := h.auth.Disable2FA(c.Request.Context(), staff.ID, req.Token); err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "2FA disabled successfully"})
}
