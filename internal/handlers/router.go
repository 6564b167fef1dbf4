package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Diogo-AA/UrlShortener/internal/middleware"
	"github.com/Diogo-AA/UrlShortener/internal/services"
)

func (h *Handler) SetupRouter(apiLimiter *services.FixedWindowLimiter, redirectLimiter *services.IPRateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.Trace(h.errorLog, h.logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Registration is the only anonymous API endpoint; it is throttled by IP.
	r.POST("/user/create", middleware.RateLimit(apiLimiter), h.CreateUser)

	// Endpoints authenticated by username/password in the request body
	password := r.Group("/", middleware.PasswordAuth(h.users), middleware.RateLimit(apiLimiter))
	{
		password.PATCH("/user/update-password", h.UpdatePassword)
		password.DELETE("/user/delete", h.DeleteUser)
		password.POST("/api-key/get", h.GetAPIKey)
		password.PATCH("/api-key/update", h.UpdateAPIKey)
	}

	// Endpoints authenticated by the API-key header
	apiKey := r.Group("/", middleware.APIKeyAuth(h.keys), middleware.RateLimit(apiLimiter))
	{
		apiKey.POST("/url/create", h.CreateShortURL)
		apiKey.DELETE("/url/delete", h.DeleteShortURL)
		apiKey.GET("/url/get", h.ListShortURLs)
	}

	// Public redirect path, throttled per IP
	r.GET("/:code", middleware.RedirectRateLimit(redirectLimiter), h.Redirect)

	return r
}
