// internal/interfaces/http/handlers/user_address.go
package handlers

import (
	"net/http"

	"github.com/farumdev/bookstore-backend/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// UserAddressHandler handles the caller's address book
type UserAddressHandler struct {
	addressService *user.AddressService
}

// NewUserAddressHandler creates a new address handler
func NewUserAddressHandler(addressService *user.AddressService) *UserAddressHandler {
	return &UserAddressHandler{
		addressService: addressService,
	}
}

// GetAddresses handles GET /users/profile/addresses
func (h *UserAddressHandler) GetAddresses(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	addresses, err := h.addressService.GetAddresses(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Addresses retrieved successfully", addresses)
}

// AddAddress handles POST /users/profile/addresses
func (h *UserAddressHandler) AddAddress(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req user.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	address, err := h.addressService.AddAddress(c.Request.Context(), identity.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "Address added successfully", address)
}

// UpdateAddress handles PUT /users/profile/addresses/:id
func (h *UserAddressHandler) UpdateAddress(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	addressID, ok := parseID(c, "id", "address")
	if !ok {
		return
	}

	var req user.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	address, err := h.addressService.UpdateAddress(c.Request.Context(), identity.UserID, addressID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Address updated successfully", address)
}

// DeleteAddress handles DELETE /users/profile/addresses/:id
func (h *UserAddressHandler) DeleteAddress(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	addressID, ok := parseID(c, "id", "address")
	if !ok {
		return
	}

	if err := h.addressService.DeleteAddress(c.Request.Context(), identity.UserID, addressID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Address deleted successfully",
	})
}

// SetDefaultAddress handles PUT /users/profile/addresses/:id/set-default
func (h *UserAddressHandler) SetDefaultAddress(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	addressID, ok := parseID(c, "id", "address")
	if !ok {
		return
	}

	address, err := h.addressService.SetDefault(c.Request.Context(), identity.UserID, addressID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Default address updated successfully", address)
}
