package middleware

import (
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Identity is the validated, request-scoped representation of who is
// calling, produced once by the auth middleware and passed explicitly.
type Identity struct {
	UserID string

	// APIKey is set when the API-key scheme authenticated the request.
	APIKey string

	// NewPassword is only populated by the password scheme, when the request
	// body carried a replacement password. Used by the password-update
	// endpoint alone.
	NewPassword string
}

func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}

// GetIdentity returns the identity established by the auth middleware.
// The second return is false on anonymous routes.
func GetIdentity(c *gin.Context) (Identity, bool) {
	val, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, false
	}
	id, ok := val.(Identity)
	return id, ok
}
