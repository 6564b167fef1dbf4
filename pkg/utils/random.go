package utils

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"

	"github.com/Diogo-AA/UrlShortener/internal/models"
)

// GenerateShortCode returns a random code of the given length. Each position
// is drawn uniformly from the code alphabet using crypto/rand, so codes are
// not guessable from earlier ones. Uniqueness is left to the link store's
// constraint.
func GenerateShortCode(length int) string {
	max := big.NewInt(int64(len(models.CodeAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			panic("utils: entropy source unavailable: " + err.Error())
		}
		b[i] = models.CodeAlphabet[n.Int64()]
	}
	return string(b)
}

// GenerateID mints a UUID used for entity primary keys.
func GenerateID() string {
	return uuid.NewString()
}

// GenerateAPIKey generates a UUID string to be used as an API key
func GenerateAPIKey() string {
	return uuid.NewString()
}
