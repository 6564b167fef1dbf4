package models

import (
	"time"
)

// ErrorRecord is a persisted diagnostic for unhandled failures. The trace id
// is returned to the client so a report can be correlated later.
type ErrorRecord struct {
	TraceID    string    `gorm:"primaryKey;size:64" json:"trace_id"`
	Endpoint   string    `gorm:"not null;type:text" json:"endpoint"`
	Message    string    `gorm:"not null;type:text" json:"message"`
	StackTrace string    `gorm:"type:text" json:"stack_trace,omitempty"`
	OccurredAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"occurred_at"`
}

func (ErrorRecord) TableName() string {
	return "errors"
}
