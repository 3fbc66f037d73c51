// internal/interfaces/http/handlers/user_admin.go
package handlers

import (
	"github.com/farumdev/bookstore-backend/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// UserAdminHandler handles admin user management endpoints
type UserAdminHandler struct {
	adminService *user.AdminService
}

// NewUserAdminHandler creates a new admin user handler
func NewUserAdminHandler(adminService *user.AdminService) *UserAdminHandler {
	return &UserAdminHandler{
		adminService: adminService,
	}
}

// GetUsers handles GET /users/admin/users
func (h *UserAdminHandler) GetUsers(c *gin.Context) {
	var req user.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	users, err := h.adminService.GetUsers(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Users retrieved successfully", users)
}

// GetUser handles GET /users/admin/users/:id
func (h *UserAdminHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id", "user")
	if !ok {
		return
	}

	detail, err := h.adminService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "User retrieved successfully", detail)
}

// UpdateUser handles PUT /users/admin/users/:id
func (h *UserAdminHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c, "id", "user")
	if !ok {
		return
	}

	var req user.AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	updated, err := h.adminService.UpdateUser(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "User updated successfully", updated.Info())
}

// ResetPassword handles POST /users/admin/users/:id/reset-password
func (h *UserAdminHandler) ResetPassword(c *gin.Context) {
	id, ok := parseID(c, "id", "user")
	if !ok {
		return
	}

	// an empty body asks for a generated password
	var req user.ResetPasswordRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalidRequest(c, err)
			return
		}
	}

	result, err := h.adminService.ResetPassword(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Password reset successfully", result)
}
