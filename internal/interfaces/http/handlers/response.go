package handlers

import (
	"net/http"
	"strconv"

	"github.com/farumdev/bookstore-backend/internal/interfaces/http/middleware"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/farumdev/bookstore-backend/internal/pkg/auth"
	"github.com/gin-gonic/gin"
)

// respondError maps a service error onto its HTTP status. Internal errors
// are recorded on the context for the access log and hidden from the client.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}
	c.JSON(kind.HTTPStatus(), gin.H{
		"error": apperror.Message(err),
	})
}

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    data,
	})
}

func respondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"message": message,
		"data":    data,
	})
}

func respondInvalidRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, param, label string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + label + " ID",
		})
		return 0, false
	}
	return uint(id), true
}

// requireIdentity returns the caller set by the auth middleware
func requireIdentity(c *gin.Context) (*auth.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return nil, false
	}
	return identity, true
}
