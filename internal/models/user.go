package models

import (
	"time"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"unique;not null;size:32" json:"username"`
	PasswordHash string    `gorm:"not null;size:255" json:"-"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	APIKey *APIKey `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Links  []Link  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
