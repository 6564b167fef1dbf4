package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Diogo-AA/UrlShortener/internal/models"
	"github.com/Diogo-AA/UrlShortener/internal/store"
)

// ErrorLogService persists error records off the request path. Records are
// queued to a buffered channel and written by a background worker; when the
// queue is full the record is dropped rather than blocking a response.
type ErrorLogService struct {
	store  store.ErrorStore
	logger *slog.Logger
	queue  chan models.ErrorRecord
}

func NewErrorLogService(errStore store.ErrorStore, logger *slog.Logger) *ErrorLogService {
	return &ErrorLogService{
		store:  errStore,
		logger: logger,
		queue:  make(chan models.ErrorRecord, 100),
	}
}

// Start runs the persistence worker until the context is cancelled.
func (s *ErrorLogService) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-s.queue:
			if err := s.store.Record(context.Background(), &rec); err != nil {
				s.logger.Error("failed to persist error record", "trace_id", rec.TraceID, "error", err)
			}
		}
	}
}

// Record enqueues a diagnostic for an unhandled failure.
func (s *ErrorLogService) Record(traceID, endpoint, message, stackTrace string) {
	rec := models.ErrorRecord{
		TraceID:    traceID,
		Endpoint:   endpoint,
		Message:    message,
		StackTrace: stackTrace,
		OccurredAt: time.Now(),
	}

	select {
	case s.queue <- rec:
	default:
		s.logger.Warn("error record queue full, dropping record", "trace_id", traceID)
	}
}
