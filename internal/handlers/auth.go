package handlers

import (
	"net/http"

	"quill/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users *services.UserService
}

func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// loginForm follows the OAuth2 password flow field names.
type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

type message struct {
	Msg string `json:"msg"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	token, err := h.users.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

func (h *AuthHandler) RecoverPassword(c *gin.Context) {
	if err := h.users.RecoverPassword(c.Request.Context(), c.Param("email")); err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, message{Msg: "password recovery email sent"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.users.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, message{Msg: "password updated successfully"})
}
