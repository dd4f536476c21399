package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance-portal/internal/auth"
	"attendance-portal/internal/users"
)

type loginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// Login exchanges a username/password (form or JSON) for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.Users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	tok, err := auth.Issue(u.Username, u.Role, h.JWTIssuer, h.JWTSigningKey, h.AccessTTL)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": tok.AccessToken,
		"token_type":   "bearer",
		"expires_at":   tok.ExpiresAt.Unix(),
		"role":         u.Role,
		"user_name":    u.FullName,
	})
}

// Register creates an account. Admin only.
func (h *Handler) Register(c *gin.Context) {
	var req users.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.Users.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Me returns the caller identity.
func (h *Handler) Me(c *gin.Context) {
	id, _ := auth.Current(c)
	c.JSON(http.StatusOK, gin.H{"id": id.ID, "username": id.Username, "role": id.Role})
}
