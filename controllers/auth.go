package controllers

import (
	"net/http"

	"kioskcms/services"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	auth services.Authenticator
}

func NewAuthController(auth services.Authenticator) *AuthController {
	return &AuthController{auth: auth}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (ac *AuthController) Login(c *gin.Context) {
	var request loginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondMessage(c, http.StatusBadRequest, "Check email and password format")
		return
	}

	session, err := ac.auth.Login(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, session)
}

// Session echoes the identity the auth middleware resolved from the token.
func (ac *AuthController) Session(c *gin.Context) {
	email, _ := c.Get("userEmail")
	respond(c, http.StatusOK, gin.H{"email": email})
}
