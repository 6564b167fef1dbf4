package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Diogo-AA/UrlShortener/internal/models"
	"github.com/Diogo-AA/UrlShortener/internal/store"
	"github.com/Diogo-AA/UrlShortener/pkg/utils"
)

const (
	// DefaultListLimit and MaxListLimit bound the /url/get result size.
	DefaultListLimit = 20
	MaxListLimit     = 100

	// maxCodeAttempts bounds the collision retry loop on create.
	maxCodeAttempts = 5
)

var (
	ErrInvalidURL   = errors.New("services: invalid url")
	ErrCodeConflict = errors.New("services: could not allocate a free short code")
)

// ShortenerService owns link creation, deletion, listing, and the two-tier
// resolve path.
type ShortenerService struct {
	links         store.LinkStore
	cache         Cache
	logger        *slog.Logger
	codeGenerator func(int) string
}

func NewShortenerService(links store.LinkStore, cache Cache, logger *slog.Logger) *ShortenerService {
	return &ShortenerService{
		links:         links,
		cache:         cache,
		logger:        logger,
		codeGenerator: utils.GenerateShortCode,
	}
}

// CreateShortLink allocates a fresh code and inserts the link. A code
// collision gets a new code, up to maxCodeAttempts; a duplicate URL for the
// same owner surfaces immediately.
func (s *ShortenerService) CreateShortLink(ctx context.Context, ownerID, rawURL string) (*models.Link, error) {
	if !models.IsValidURL(rawURL) {
		return nil, ErrInvalidURL
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := s.codeGenerator(models.CodeLength)

		link, err := s.links.Create(ctx, ownerID, code, rawURL)
		if errors.Is(err, store.ErrCodeTaken) {
			s.logger.Debug("short code collision, retrying", "code", code, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}
		return link, nil
	}

	return nil, ErrCodeConflict
}

// DeleteShortLink removes the owner's link and invalidates the cached entry
// so a deleted code stops redirecting immediately.
func (s *ShortenerService) DeleteShortLink(ctx context.Context, ownerID, code string) (bool, error) {
	removed, err := s.links.Delete(ctx, ownerID, code)
	if err != nil {
		return false, err
	}
	if removed {
		s.cache.Remove(ctx, code)
	}
	return removed, nil
}

func (s *ShortenerService) ListLinks(ctx context.Context, ownerID string, limit int) ([]models.Link, error) {
	return s.links.ListByOwner(ctx, ownerID, limit)
}

// Resolve returns the original URL for a code: cache first, then the durable
// store, populating the cache on a miss. Returns store.ErrNotFound when the
// code exists in neither tier.
func (s *ShortenerService) Resolve(ctx context.Context, code string) (string, error) {
	if url, ok := s.cache.Lookup(ctx, code); ok {
		return url, nil
	}

	link, err := s.links.GetByCode(ctx, code)
	if err != nil {
		return "", err
	}

	s.cache.Store(ctx, code, link.OriginalURL)
	return link.OriginalURL, nil
}
