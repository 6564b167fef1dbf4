// Package store defines the persistence capabilities of the service and their
// gorm implementation. Every mutation runs in its own transaction scoped to
// that single logical write.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Diogo-AA/UrlShortener/internal/models"
)

var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrUsernameTaken means the username uniqueness constraint would be violated.
	ErrUsernameTaken = errors.New("store: username already in use")

	// ErrCodeTaken means another link already owns the short code.
	ErrCodeTaken = errors.New("store: short code already in use")

	// ErrDuplicateURL means the owner already shortened this URL.
	ErrDuplicateURL = errors.New("store: url already shortened")

	// ErrNoCredential means the user has no API key row to rotate.
	ErrNoCredential = errors.New("store: no credential for user")

	// ErrRotationThrottled means the key was rotated within the cooldown window.
	ErrRotationThrottled = errors.New("store: key rotated too recently")
)

// UserStore manages identities. Create issues the first API key in the same
// transaction as the user row; Delete cascades to keys and links.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash string) (*models.User, *models.APIKey, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) (bool, error)
	Delete(ctx context.Context, userID string) (bool, error)
}

// CredentialStore manages the rotating API key bound 1:1 to a user. Rotate
// performs the cooldown check and the key replacement atomically.
type CredentialStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.APIKey, error)
	GetByKey(ctx context.Context, key string) (*models.APIKey, error)
	Rotate(ctx context.Context, userID string, cooldown, validity time.Duration) (*models.APIKey, error)
}

// LinkStore is durable CRUD for links, scoped by owner where it matters.
// GetByCode is deliberately unscoped; the public redirect path is anonymous.
type LinkStore interface {
	Create(ctx context.Context, ownerID, code, originalURL string) (*models.Link, error)
	Delete(ctx context.Context, ownerID, code string) (bool, error)
	GetByCode(ctx context.Context, code string) (*models.Link, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.Link, error)
}

// ErrorStore persists diagnostics for unhandled failures.
type ErrorStore interface {
	Record(ctx context.Context, rec *models.ErrorRecord) error
}
