package handler

import (
	"context"
	"net/http"
	"time"

	"attendance_tracker/internal/live"
	"attendance_tracker/internal/logger"
	"attendance_tracker/internal/model"
	"attendance_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

const logoutTimeout = 5 * time.Second

// AuthHandler handles authentication requests
type AuthHandler struct {
	service service.AuthService
	views   *live.Views
	log     *logger.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService, views *live.Views, log *logger.Logger) *AuthHandler {
	return &AuthHandler{service: s, views: views, log: log}
}

func (h *AuthHandler) RegisterAdmin(c *gin.Context) {
	var req model.RegisterAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, store, token, err := h.service.RegisterAdmin(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err, "Failed to register admin")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Admin registered successfully",
		"user":    user,
		"store":   store,
		"token":   token,
	})
}

func (h *AuthHandler) RegisterEmployee(c *gin.Context) {
	var req model.RegisterEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, token, err := h.service.RegisterEmployee(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err, "Failed to register employee")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Employee registered successfully",
		"user":    user,
		"token":   token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err, "Failed to login")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

// Logout ends every live view of the caller before answering. Tokens are
// stateless, so the client is expected to drop its own.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := mustAuthUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), logoutTimeout)
	defer cancel()
	closed, err := h.views.CloseAll(ctx, userID)
	if err != nil {
		h.log.Warn(h.log.WithUserID(ctx, userID), "live views did not close in time", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out", "closed_views": closed})
}

// RegisterAuthRoutes registers auth routes
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register/admin", h.RegisterAdmin)
		authGroup.POST("/register/employee", h.RegisterEmployee)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", authMW, h.Logout)
	}
}
