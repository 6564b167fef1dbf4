package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Diogo-AA/UrlShortener/internal/models"
	"github.com/Diogo-AA/UrlShortener/internal/store"
)

// Redirect resolves a short code through the cache and the link store and
// answers with a temporary redirect. Anything that is not a six-character
// code is a 404 without a lookup.
func (h *Handler) Redirect(c *gin.Context) {
	code := c.Param("code")
	if len(code) != models.CodeLength {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found."})
		return
	}

	url, err := h.shortener.Resolve(c.Request.Context(), code)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found."})
		return
	}
	if err != nil {
		h.internalError(c, "Error resolving the short url. Try again later.", err)
		return
	}

	c.Redirect(http.StatusFound, url)
}
