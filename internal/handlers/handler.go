package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Diogo-AA/UrlShortener/internal/config"
	"github.com/Diogo-AA/UrlShortener/internal/middleware"
	"github.com/Diogo-AA/UrlShortener/internal/services"
)

type Handler struct {
	cfg       config.Config
	logger    *slog.Logger
	users     *services.UserService
	keys      *services.APIKeyService
	shortener *services.ShortenerService
	errorLog  *services.ErrorLogService
}

func NewHandler(
	cfg config.Config,
	logger *slog.Logger,
	users *services.UserService,
	keys *services.APIKeyService,
	shortener *services.ShortenerService,
	errorLog *services.ErrorLogService,
) *Handler {
	return &Handler{
		cfg:       cfg,
		logger:    logger,
		users:     users,
		keys:      keys,
		shortener: shortener,
		errorLog:  errorLog,
	}
}

// internalError responds 500 with the request's trace id and leaves the
// error for the trace middleware to persist.
func (h *Handler) internalError(c *gin.Context, message string, err error) {
	if err != nil {
		c.Error(err)
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":    message,
		"trace_id": middleware.TraceID(c),
	})
}
