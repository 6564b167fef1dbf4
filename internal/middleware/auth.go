package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Diogo-AA/UrlShortener/internal/services"
)

// HeaderAPIKey is the header carrying the API-key credential.
const HeaderAPIKey = "x-api-key"

// APIKeyAuth authenticates requests through the API-key scheme. A missing
// header and an unknown or malformed key are 401; a key past its expiration
// is 403, so callers can tell the difference and rotate.
func APIKeyAuth(keys *services.APIKeyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawKey := c.GetHeader(HeaderAPIKey)
		if rawKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Header '" + HeaderAPIKey + "' not found."})
			return
		}

		status, userID, err := keys.Validate(c.Request.Context(), rawKey)
		if err != nil {
			c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Error validating the API key. Try again later."})
			return
		}

		switch status {
		case services.KeyValid:
			SetIdentity(c, Identity{UserID: userID, APIKey: rawKey})
			c.Next()
		case services.KeyExpired:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Expired API key. Update it using the 'api-key/update' endpoint."})
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key."})
		}
	}
}

type passwordCredentials struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	NewPassword string `json:"new_password,omitempty"`
}

// PasswordAuth authenticates requests through the username/password scheme,
// read from the JSON body. The failure message never reveals whether the
// username exists.
func PasswordAuth(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds passwordCredentials
		if err := c.ShouldBindJSON(&creds); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "The json body of the request is not valid."})
			return
		}

		user, ok, err := users.Verify(c.Request.Context(), creds.Username, creds.Password)
		if err != nil {
			c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Error verifying the credentials. Try again later."})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Username or password incorrect."})
			return
		}

		SetIdentity(c, Identity{UserID: user.ID, NewPassword: creds.NewPassword})
		c.Next()
	}
}
