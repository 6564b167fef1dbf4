package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Diogo-AA/UrlShortener/internal/models"
	"github.com/Diogo-AA/UrlShortener/internal/store"
)

func TestErrorLogService(t *testing.T) {
	db := setupTestDB(t)
	service := NewErrorLogService(store.NewErrors(db), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go service.Start(ctx)

	service.Record("trace-1", "/url/create", "storage failure", "")

	// Worker persists asynchronously
	assert.Eventually(t, func() bool {
		var count int64
		db.Model(&models.ErrorRecord{}).Where("trace_id = ?", "trace-1").Count(&count)
		return count == 1
	}, time.Second, 10*time.Millisecond)

	var rec models.ErrorRecord
	db.First(&rec, "trace_id = ?", "trace-1")
	assert.Equal(t, "/url/create", rec.Endpoint)
	assert.Equal(t, "storage failure", rec.Message)
}

func TestErrorLogService_FullQueueDrops(t *testing.T) {
	db := setupTestDB(t)
	service := NewErrorLogService(store.NewErrors(db), testLogger())

	// No worker running; fill the queue past capacity. Record must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			service.Record("trace", "/x", "msg", "")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full queue")
	}
}
