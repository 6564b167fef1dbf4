package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Diogo-AA/UrlShortener/internal/middleware"
	"github.com/Diogo-AA/UrlShortener/internal/models"
	"github.com/Diogo-AA/UrlShortener/internal/services"
	"github.com/Diogo-AA/UrlShortener/internal/store"
)

// GetAPIKey returns the caller's current key. An expired or missing key is a
// 403 pointing at the update endpoint; the row is never removed here.
func (h *Handler) GetAPIKey(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	key, err := h.keys.Get(c.Request.Context(), identity.UserID)
	if errors.Is(err, services.ErrKeyExpired) || errors.Is(err, services.ErrKeyNotFound) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Expired API key. Update it using the 'api-key/update' endpoint."})
		return
	}
	if err != nil {
		h.internalError(c, "Error getting the API key. Try again later.", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"api_key": key})
}

// UpdateAPIKey rotates the caller's key, subject to the rotation cooldown.
func (h *Handler) UpdateAPIKey(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	key, err := h.keys.Rotate(c.Request.Context(), identity.UserID)
	if errors.Is(err, store.ErrRotationThrottled) {
		c.Header("Retry-After", strconv.Itoa(int(models.RotationCooldown.Seconds())))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "API key changed recently. Wait a few minutes before updating again."})
		return
	}
	if err != nil {
		h.internalError(c, "Error updating the API key. Try again later.", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"api_key": key})
}
