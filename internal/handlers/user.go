package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Diogo-AA/UrlShortener/internal/middleware"
	"github.com/Diogo-AA/UrlShortener/internal/services"
	"github.com/Diogo-AA/UrlShortener/internal/store"
)

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,max=32"`
	Password string `json:"password" binding:"required"`
}

// CreateUser registers an identity and returns its first API key.
func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, store.ErrUsernameTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "Username is already in use."})
		return
	}
	if errors.Is(err, services.ErrEmptyPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must not be empty."})
		return
	}
	if err != nil {
		h.internalError(c, "Error creating the user. Try again later.", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"api_key": key.Key})
}

// UpdatePassword replaces the caller's password with the new_password value
// carried alongside the credentials.
func (h *Handler) UpdatePassword(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	updated, err := h.users.UpdatePassword(c.Request.Context(), identity.UserID, identity.NewPassword)
	if errors.Is(err, services.ErrEmptyPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The new password must not be empty."})
		return
	}
	if err != nil || !updated {
		h.internalError(c, "Error updating the password. Try again later.", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	removed, err := h.users.Delete(c.Request.Context(), identity.UserID)
	if err != nil || !removed {
		h.internalError(c, "Error removing the user. Try again later.", err)
		return
	}

	c.Status(http.StatusNoContent)
}
