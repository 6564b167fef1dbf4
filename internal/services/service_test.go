package services

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Diogo-AA/UrlShortener/internal/models"
	"github.com/Diogo-AA/UrlShortener/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(&models.User{}, &models.APIKey{}, &models.Link{}, &models.ErrorRecord{})
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func setupTestCache(t *testing.T) (*RedirectCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedirectCache(rdb, testLogger()), mr
}

func createTestUser(t *testing.T, db *gorm.DB, username string) (*models.User, *models.APIKey) {
	t.Helper()
	user, key, err := store.NewUsers(db).Create(context.Background(), username, "hash")
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user, key
}
