// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"net/http"
	"time"

	"github.com/farumdev/bookstore-backend/internal/config"
	"github.com/farumdev/bookstore-backend/internal/domain/user"
	"github.com/farumdev/bookstore-backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles registration, login and session endpoints
type AuthHandler struct {
	userService *user.Service
	config      *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *user.Service, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		config:      cfg,
	}
}

// Register handles POST /users/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	info, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "User registered successfully", info)
}

// Login handles POST /users/login. The token is returned in the body and
// also set as an HttpOnly cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	response, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	maxAge := int(time.Until(response.ExpiresAt).Seconds())
	h.setAuthCookie(c, response.Token, maxAge)

	respondOK(c, "Login successful", response)
}

// Logout handles POST /users/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, _ := middleware.ClaimsFromContext(c)
	if err := h.userService.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}

	h.setAuthCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetSession handles GET /session
func (h *AuthHandler) GetSession(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var expiry *time.Time
	if claims, ok := middleware.ClaimsFromContext(c); ok && claims.ExpiresAt != nil {
		t := claims.ExpiresAt.Time
		expiry = &t
	}

	session, err := h.userService.GetSession(c.Request.Context(), identity, expiry)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Session retrieved successfully", session)
}

// GetUser handles GET /users/:id
func (h *AuthHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id", "user")
	if !ok {
		return
	}

	info, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "User retrieved successfully", info)
}

func (h *AuthHandler) setAuthCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.config.JWT.CookieName, token, maxAge, "/", "", h.config.IsProduction(), true)
}
