package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Diogo-AA/UrlShortener/internal/services"
)

// RateLimit enforces the fixed-window quota per identity: the authenticated
// user when there is one, the client IP otherwise. Runs after the auth
// middleware in the chain so the identity is already established.
func RateLimit(limiter *services.FixedWindowLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if id, ok := GetIdentity(c); ok && id.UserID != "" {
			key = "user:" + id.UserID
		}

		allowed, retryAfter := limiter.Allow(key)
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}

		c.Next()
	}
}

// RedirectRateLimit smooths the anonymous redirect path per client IP.
func RedirectRateLimit(limiter *services.IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}

		c.Next()
	}
}
