package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/Diogo-AA/UrlShortener/internal/config"
	"github.com/Diogo-AA/UrlShortener/internal/middleware"
	"github.com/Diogo-AA/UrlShortener/internal/models"
	"github.com/Diogo-AA/UrlShortener/internal/services"
	"github.com/Diogo-AA/UrlShortener/internal/store"
)

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
	redis  *miniredis.Miniredis
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.APIKey{}, &models.Link{}, &models.ErrorRecord{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cache := services.NewRedirectCache(rdb, logger)
	users := services.NewUserService(store.NewUsers(db), logger)
	keys := services.NewAPIKeyService(store.NewCredentials(db), logger)
	shortener := services.NewShortenerService(store.NewLinks(db), cache, logger)
	errorLog := services.NewErrorLogService(store.NewErrors(db), logger)

	h := NewHandler(config.Config{AppEnv: "test"}, logger, users, keys, shortener, errorLog)

	apiLimiter := services.NewFixedWindowLimiter(1000, time.Minute, logger)
	redirectLimiter := services.NewIPRateLimiter(rate.Limit(1000), 1000, logger)

	return &testApp{
		router: h.SetupRouter(apiLimiter, redirectLimiter),
		db:     db,
		redis:  mr,
	}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) registerUser(t *testing.T, username, password string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/user/create", gin.H{"username": username, "password": password}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("failed to register %s: %d %s", username, w.Code, w.Body.String())
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp["api_key"]
}

func TestHealth(t *testing.T) {
	app := setupTestApp(t)
	w := app.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateUser(t *testing.T) {
	app := setupTestApp(t)

	t.Run("returns api key on success", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/user/create", gin.H{"username": "alice", "password": "Secret123"}, nil)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "api_key")
	})

	t.Run("duplicate username", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/user/create", gin.H{"username": "alice", "password": "Other456"}, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "already in use")
	})

	t.Run("missing fields", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/user/create", gin.H{"username": "bob"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdatePassword(t *testing.T) {
	app := setupTestApp(t)
	app.registerUser(t, "alice", "Secret123")

	t.Run("empty new password", func(t *testing.T) {
		w := app.do(t, http.MethodPatch, "/user/update-password",
			gin.H{"username": "alice", "password": "Secret123"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("updates password", func(t *testing.T) {
		w := app.do(t, http.MethodPatch, "/user/update-password",
			gin.H{"username": "alice", "password": "Secret123", "new_password": "Next456"}, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		// Old password rejected, new password accepted
		w = app.do(t, http.MethodPost, "/api-key/get",
			gin.H{"username": "alice", "password": "Secret123"}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = app.do(t, http.MethodPost, "/api-key/get",
			gin.H{"username": "alice", "password": "Next456"}, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestDeleteUser(t *testing.T) {
	app := setupTestApp(t)
	key := app.registerUser(t, "alice", "Secret123")

	// The user owns a link
	w := app.do(t, http.MethodPost, "/url/create", gin.H{"url": "https://example.com"},
		map[string]string{middleware.HeaderAPIKey: key})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = app.do(t, http.MethodDelete, "/user/delete",
		gin.H{"username": "alice", "password": "Secret123"}, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Credentials and links are gone with the user
	w = app.do(t, http.MethodPost, "/api-key/get",
		gin.H{"username": "alice", "password": "Secret123"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var links int64
	app.db.Model(&models.Link{}).Count(&links)
	assert.Zero(t, links)
}

func TestGetAPIKey(t *testing.T) {
	app := setupTestApp(t)
	issued := app.registerUser(t, "alice", "Secret123")

	t.Run("returns the current key", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/api-key/get",
			gin.H{"username": "alice", "password": "Secret123"}, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), issued)
	})

	t.Run("expired key is 403", func(t *testing.T) {
		err := app.db.Model(&models.APIKey{}).Where("key = ?", issued).
			Update("expiration_date", time.Now().Add(-time.Hour)).Error
		assert.NoError(t, err)

		w := app.do(t, http.MethodPost, "/api-key/get",
			gin.H{"username": "alice", "password": "Secret123"}, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestUpdateAPIKey(t *testing.T) {
	app := setupTestApp(t)
	issued := app.registerUser(t, "alice", "Secret123")

	t.Run("throttled within cooldown", func(t *testing.T) {
		w := app.do(t, http.MethodPatch, "/api-key/update",
			gin.H{"username": "alice", "password": "Secret123"}, nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
	})

	t.Run("rotates after cooldown", func(t *testing.T) {
		err := app.db.Model(&models.APIKey{}).Where("key = ?", issued).
			Update("last_updated", time.Now().Add(-models.RotationCooldown-time.Second)).Error
		assert.NoError(t, err)

		w := app.do(t, http.MethodPatch, "/api-key/update",
			gin.H{"username": "alice", "password": "Secret123"}, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]string
		json.Unmarshal(w.Body.Bytes(), &resp)
		assert.NotEmpty(t, resp["api_key"])
		assert.NotEqual(t, issued, resp["api_key"])
	})
}

func TestCreateShortURL(t *testing.T) {
	app := setupTestApp(t)
	key := app.registerUser(t, "alice", "Secret123")
	auth := map[string]string{middleware.HeaderAPIKey: key}

	t.Run("creates link", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/url/create", gin.H{"url": "https://example.com"}, auth)
		assert.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]string
		json.Unmarshal(w.Body.Bytes(), &resp)
		assert.Len(t, resp["code"], models.CodeLength)
		assert.Equal(t, "http://example.com/"+resp["code"], resp["short_url"])
	})

	t.Run("short url honors the forwarded scheme", func(t *testing.T) {
		headers := map[string]string{
			middleware.HeaderAPIKey: key,
			"X-Forwarded-Proto":     "https",
		}
		w := app.do(t, http.MethodPost, "/url/create", gin.H{"url": "https://forwarded.example.com"}, headers)
		assert.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]string
		json.Unmarshal(w.Body.Bytes(), &resp)
		assert.Equal(t, "https://example.com/"+resp["code"], resp["short_url"])
	})

	t.Run("invalid url", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/url/create", gin.H{"url": "not-a-url"}, auth)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid url format")
	})

	t.Run("duplicate url", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/url/create", gin.H{"url": "https://example.com"}, auth)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("requires api key", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/url/create", gin.H{"url": "https://other.example.com"}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestListShortURLs(t *testing.T) {
	app := setupTestApp(t)
	key := app.registerUser(t, "alice", "Secret123")
	auth := map[string]string{middleware.HeaderAPIKey: key}

	app.do(t, http.MethodPost, "/url/create", gin.H{"url": "https://a.example.com"}, auth)
	app.do(t, http.MethodPost, "/url/create", gin.H{"url": "https://b.example.com"}, auth)

	t.Run("default limit", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/url/get", nil, auth)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp []LinkResponse
		json.Unmarshal(w.Body.Bytes(), &resp)
		assert.Len(t, resp, 2)
	})

	t.Run("explicit limit", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/url/get?limit=1", nil, auth)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp []LinkResponse
		json.Unmarshal(w.Body.Bytes(), &resp)
		assert.Len(t, resp, 1)
	})

	t.Run("limit out of range", func(t *testing.T) {
		for _, v := range []string{"-1", "101", "abc"} {
			w := app.do(t, http.MethodGet, "/url/get?limit="+v, nil, auth)
			assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", v)
		}
	})

	t.Run("limit zero is allowed and empty", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/url/get?limit=0", nil, auth)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp []LinkResponse
		json.Unmarshal(w.Body.Bytes(), &resp)
		assert.Empty(t, resp)
	})
}

func TestRedirectFlow(t *testing.T) {
	app := setupTestApp(t)
	key := app.registerUser(t, "alice", "Secret123")
	auth := map[string]string{middleware.HeaderAPIKey: key}

	w := app.do(t, http.MethodPost, "/url/create", gin.H{"url": "https://example.com"}, auth)
	assert.Equal(t, http.StatusCreated, w.Code)
	var created map[string]string
	json.Unmarshal(w.Body.Bytes(), &created)
	code := created["code"]

	t.Run("redirects", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/"+code, nil, nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://example.com", w.Header().Get("Location"))
	})

	t.Run("wrong length code", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/toolongcode", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown code", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/zzzzzz", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete stops the redirect even when cached", func(t *testing.T) {
		// Warm the cache
		w := app.do(t, http.MethodGet, "/"+code, nil, nil)
		assert.Equal(t, http.StatusFound, w.Code)

		w = app.do(t, http.MethodDelete, "/url/delete", gin.H{"code": code}, auth)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = app.do(t, http.MethodGet, "/"+code, nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("deleting again is a 400", func(t *testing.T) {
		w := app.do(t, http.MethodDelete, "/url/delete", gin.H{"code": code}, auth)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "not found")
	})
}

func TestRedirect_CacheDownFailsOpen(t *testing.T) {
	app := setupTestApp(t)
	key := app.registerUser(t, "alice", "Secret123")
	auth := map[string]string{middleware.HeaderAPIKey: key}

	w := app.do(t, http.MethodPost, "/url/create", gin.H{"url": "https://example.com"}, auth)
	var created map[string]string
	json.Unmarshal(w.Body.Bytes(), &created)

	app.redis.Close()

	w = app.do(t, http.MethodGet, "/"+created["code"], nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com", w.Header().Get("Location"))
}
