package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-sklad/internal/auth"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, "Invalid input")
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.fail(c, "login", err)
		return
	}

	token, err := h.issuer.GenerateToken(auth.UserIdentity(user))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"role":     user.Role,
		"username": user.Username,
	})
}

func (h *Handler) Register(c *gin.Context) {
	var input LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, "Invalid input")
		return
	}

	user, err := h.users.Register(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.fail(c, "register", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!", "role": user.Role})
}
