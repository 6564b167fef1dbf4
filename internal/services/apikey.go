package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Diogo-AA/UrlShortener/internal/models"
	"github.com/Diogo-AA/UrlShortener/internal/store"
)

var (
	// ErrKeyExpired means the credential row exists but its validity window
	// has passed. The row stays until the next rotation.
	ErrKeyExpired = errors.New("services: api key expired")

	// ErrKeyNotFound means the user has no credential at all.
	ErrKeyNotFound = errors.New("services: api key not found")
)

// KeyStatus is the three-way outcome of validating a raw key. Callers map
// Invalid and Expired to distinct HTTP responses (401 vs 403).
type KeyStatus int

const (
	KeyInvalid KeyStatus = iota
	KeyExpired
	KeyValid
)

// APIKeyService is the credential manager: issue happens on registration
// (inside the user store transaction); this service covers get, rotate and
// validate.
type APIKeyService struct {
	creds  store.CredentialStore
	logger *slog.Logger
}

func NewAPIKeyService(creds store.CredentialStore, logger *slog.Logger) *APIKeyService {
	return &APIKeyService{creds: creds, logger: logger}
}

// Get returns the user's current key, applying lazy expiration: an expired
// row is reported as ErrKeyExpired but not removed.
func (s *APIKeyService) Get(ctx context.Context, userID string) (string, error) {
	key, err := s.creds.GetByUserID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}
	if key.Expired(time.Now()) {
		return "", ErrKeyExpired
	}
	return key.Key, nil
}

// Rotate replaces the key value, subject to the rotation cooldown. Returns
// store.ErrRotationThrottled when called again within the window.
func (s *APIKeyService) Rotate(ctx context.Context, userID string) (string, error) {
	key, err := s.creds.Rotate(ctx, userID, models.RotationCooldown, models.KeyValidity)
	if err != nil {
		return "", err
	}
	s.logger.Info("api key rotated", "user_id", userID)
	return key.Key, nil
}

// Validate parses and looks up a raw key value. The error return is reserved
// for storage failures; the status alone distinguishes unknown keys from
// expired ones.
func (s *APIKeyService) Validate(ctx context.Context, rawKey string) (KeyStatus, string, error) {
	if uuid.Validate(rawKey) != nil {
		return KeyInvalid, "", nil
	}

	key, err := s.creds.GetByKey(ctx, rawKey)
	if errors.Is(err, store.ErrNotFound) {
		return KeyInvalid, "", nil
	}
	if err != nil {
		return KeyInvalid, "", err
	}

	if key.Expired(time.Now()) {
		return KeyExpired, key.UserID, nil
	}
	return KeyValid, key.UserID, nil
}
