package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Diogo-AA/UrlShortener/internal/models"
	"github.com/Diogo-AA/UrlShortener/internal/store"
	"github.com/Diogo-AA/UrlShortener/pkg/utils"
)

var ErrEmptyPassword = errors.New("services: password must not be empty")

type UserService struct {
	users  store.UserStore
	logger *slog.Logger
}

func NewUserService(users store.UserStore, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// Register creates the identity and returns its first API key. The user row
// and the credential row are written in one transaction by the store.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.APIKey, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, key, err := s.users.Create(ctx, username, hash)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", username)
	return key, nil
}

// Verify checks a username/password pair. The boolean is false for unknown
// users and wrong passwords alike; callers must not tell those apart.
func (s *UserService) Verify(ctx context.Context, username, password string) (*models.User, bool, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, false, nil
	}
	return user, true, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, userID, newPassword string) (bool, error) {
	if newPassword == "" {
		return false, ErrEmptyPassword
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return false, err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

func (s *UserService) Delete(ctx context.Context, userID string) (bool, error) {
	removed, err := s.users.Delete(ctx, userID)
	if err != nil {
		return false, err
	}
	if removed {
		s.logger.Info("user deleted", "user_id", userID)
	}
	return removed, nil
}
