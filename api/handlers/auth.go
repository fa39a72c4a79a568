package handlers

import (
	"net/http"
	"time"

	"chirp/config"
	"chirp/errs"
	"chirp/services"

	"github.com/gin-gonic/gin"
)

var authService = services.NewUserService()

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates the account, issues a token and sets the cookie.
func Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("invalid request body"))
		return
	}

	user, token, err := authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	setTokenCookie(c, token)
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"user": user, "token": token}})
}

func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("please provide an email and password"))
		return
	}

	user, token, err := authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	setTokenCookie(c, token)
	respondOK(c, gin.H{"user": user, "token": token})
}

// Logout clears the token cookie. Tokens are stateless, so there is
// nothing to revoke server side.
func Logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)
	respondOK(c, gin.H{})
}

func Me(c *gin.Context) {
	user, err := authService.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

func UpdateDetails(c *gin.Context) {
	var req services.UpdateDetailsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("invalid request body"))
		return
	}

	user, err := authService.UpdateDetails(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

func VerifyEmail(c *gin.Context) {
	if err := authService.VerifyEmail(c.Request.Context(), c.Param("token")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"verified": true})
}

// setTokenCookie keeps the cookie lifetime in lockstep with the JWT
// expiry so the browser does not hold a token past its validity.
func setTokenCookie(c *gin.Context, token string) {
	ttl := 24 * time.Hour
	if config.AppConfig != nil && config.AppConfig.Auth.TokenTTLHours > 0 {
		ttl = time.Duration(config.AppConfig.Auth.TokenTTLHours) * time.Hour
	}
	c.SetCookie("token", token, int(ttl.Seconds()), "/", "", false, true)
}
