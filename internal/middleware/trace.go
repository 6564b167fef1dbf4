package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Diogo-AA/UrlShortener/internal/services"
)

const traceIDKey = "trace_id"

// TraceID returns the request's trace id, set by Trace for every request.
func TraceID(c *gin.Context) string {
	return c.GetString(traceIDKey)
}

// Trace assigns a trace id to each request and persists an error record for
// every unhandled failure: a panic or a 5xx response. The trace id goes back
// to the client so a failure can be reported and correlated.
func Trace(errorLog *services.ErrorLogService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := uuid.NewString()
		c.Set(traceIDKey, traceID)

		defer func() {
			if r := recover(); r != nil {
				msg := "panic"
				if err, ok := r.(error); ok {
					msg = err.Error()
				} else if s, ok := r.(string); ok {
					msg = s
				}
				errorLog.Record(traceID, c.FullPath(), msg, string(debug.Stack()))
				logger.Error("panic recovered", "trace_id", traceID, "endpoint", c.FullPath(), "error", msg)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":    "Internal server error.",
					"trace_id": traceID,
				})
			}
		}()

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			msgs := make([]string, 0, len(c.Errors))
			for _, e := range c.Errors {
				msgs = append(msgs, e.Error())
			}
			msg := strings.Join(msgs, "; ")
			if msg == "" {
				msg = http.StatusText(c.Writer.Status())
			}
			errorLog.Record(traceID, c.FullPath(), msg, "")
			logger.Error("request failed", "trace_id", traceID, "endpoint", c.FullPath(), "status", c.Writer.Status(), "error", msg)
		}
	}
}
