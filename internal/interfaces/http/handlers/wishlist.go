// internal/interfaces/http/handlers/wishlist.go
package handlers

import (
	"net/http"

	"github.com/farumdev/bookstore-backend/internal/domain/wishlist"
	"github.com/gin-gonic/gin"
)

// WishlistHandler handles wishlist endpoints
type WishlistHandler struct {
	wishlistService *wishlist.Service
}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler(wishlistService *wishlist.Service) *WishlistHandler {
	return &WishlistHandler{
		wishlistService: wishlistService,
	}
}

// GetWishlist handles GET /wishlist
func (h *WishlistHandler) GetWishlist(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	response, err := h.wishlistService.GetWishlist(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Wishlist retrieved successfully", response)
}

// AddToWishlist handles POST /wishlist/items/:productId
func (h *WishlistHandler) AddToWishlist(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	productID, ok := parseID(c, "productId", "product")
	if !ok {
		return
	}

	added, count, err := h.wishlistService.AddToWishlist(c.Request.Context(), identity.UserID, productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":        "Product added to wishlist",
		"product_id":     added.ID,
		"product_name":   added.Name,
		"wishlist_count": count,
	})
}

// RemoveFromWishlist handles DELETE /wishlist/items/:productId
func (h *WishlistHandler) RemoveFromWishlist(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	productID, ok := parseID(c, "productId", "product")
	if !ok {
		return
	}

	count, err := h.wishlistService.RemoveFromWishlist(c.Request.Context(), identity.UserID, productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Product removed from wishlist",
		"product_id":     productID,
		"wishlist_count": count,
	})
}

// ClearWishlist handles DELETE /wishlist
func (h *WishlistHandler) ClearWishlist(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	cleared, err := h.wishlistService.ClearWishlist(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Wishlist is already empty"
	if cleared {
		message = "Wishlist cleared successfully"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}

// CheckWishlist handles GET /wishlist/check/:productId
func (h *WishlistHandler) CheckWishlist(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	productID, ok := parseID(c, "productId", "product")
	if !ok {
		return
	}

	inWishlist, err := h.wishlistService.IsInWishlist(c.Request.Context(), identity.UserID, productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id":  productID,
		"in_wishlist": inWishlist,
	})
}

// GetWishlistCount handles GET /wishlist/count
func (h *WishlistHandler) GetWishlistCount(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	count, err := h.wishlistService.GetCount(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": count,
	})
}

// MoveToCart handles POST /wishlist/move-to-cart
func (h *WishlistHandler) MoveToCart(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	result, err := h.wishlistService.MoveToCart(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Wishlist items moved to cart", result)
}
