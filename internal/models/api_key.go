package models

import (
	"time"
)

const (
	// KeyValidity is how long a key stays usable after issue or rotation.
	KeyValidity = 7 * 24 * time.Hour

	// RotationCooldown is the minimum gap between two rotations of the same key.
	RotationCooldown = 3 * time.Minute
)

// APIKey is the single rotating credential of a user. Rotation mutates the
// row in place; there is never more than one row per user.
type APIKey struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	UserID         string    `gorm:"not null;uniqueIndex;size:36" json:"user_id"`
	Key            string    `gorm:"unique;not null;size:36" json:"key"`
	ExpirationDate time.Time `gorm:"not null" json:"expiration_date"`
	LastUpdated    time.Time `gorm:"not null" json:"last_updated"`
}

func (APIKey) TableName() string {
	return "api_keys"
}

// Expired reports lazy expiration: the row stays in place, it just stops
// being usable once the validity window has passed.
func (k *APIKey) Expired(now time.Time) bool {
	return now.After(k.ExpirationDate)
}
