package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Diogo-AA/UrlShortener/internal/middleware"
	"github.com/Diogo-AA/UrlShortener/internal/services"
	"github.com/Diogo-AA/UrlShortener/internal/store"
)

type CreateURLRequest struct {
	URL string `json:"url" binding:"required"`
}

type DeleteURLRequest struct {
	Code string `json:"code" binding:"required"`
}

type LinkResponse struct {
	Code        string `json:"code"`
	OriginalURL string `json:"original_url"`
}

// requestScheme resolves the external scheme, trusting the proxy header when
// present.
func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}

// CreateShortURL shortens a URL for the authenticated owner.
func (h *Handler) CreateShortURL(c *gin.Context) {
	var req CreateURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity, _ := middleware.GetIdentity(c)

	link, err := h.shortener.CreateShortLink(c.Request.Context(), identity.UserID, req.URL)
	if errors.Is(err, services.ErrInvalidURL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid url format."})
		return
	}
	if errors.Is(err, store.ErrDuplicateURL) {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("The url '%s' is already shortened.", req.URL)})
		return
	}
	if errors.Is(err, services.ErrCodeConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "Could not allocate a short code. Try again later."})
		return
	}
	if err != nil {
		h.internalError(c, "Error creating the short url. Try again later.", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":      link.Code,
		"short_url": requestScheme(c) + "://" + c.Request.Host + "/" + link.Code,
	})
}

// DeleteShortURL removes one of the caller's links. Wrong owner and unknown
// code are deliberately the same answer.
func (h *Handler) DeleteShortURL(c *gin.Context) {
	var req DeleteURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity, _ := middleware.GetIdentity(c)

	removed, err := h.shortener.DeleteShortLink(c.Request.Context(), identity.UserID, req.Code)
	if err != nil {
		h.internalError(c, "Error removing the short url. Try again later.", err)
		return
	}
	if !removed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Short code not found."})
		return
	}

	c.Status(http.StatusNoContent)
}

// ListShortURLs returns the caller's links, bounded by the limit parameter.
func (h *Handler) ListShortURLs(c *gin.Context) {
	limitParam := c.DefaultQuery("limit", strconv.Itoa(services.DefaultListLimit))
	limit, err := strconv.Atoi(limitParam)
	if err != nil || limit < 0 || limit > services.MaxListLimit {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("The limit of the results shown must be between 0 and %d", services.MaxListLimit),
		})
		return
	}

	identity, _ := middleware.GetIdentity(c)

	links, err := h.shortener.ListLinks(c.Request.Context(), identity.UserID, limit)
	if err != nil {
		h.internalError(c, "Error listing the short urls. Try again later.", err)
		return
	}

	resp := make([]LinkResponse, 0, len(links))
	for _, link := range links {
		resp = append(resp, LinkResponse{Code: link.Code, OriginalURL: link.OriginalURL})
	}

	c.JSON(http.StatusOK, resp)
}
