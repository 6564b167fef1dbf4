package models

import (
	"net/url"
	"time"
)

const (
	// CodeAlphabet and CodeLength describe the shape of every short code.
	CodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	CodeLength   = 6
)

// A Link is unique by code globally and by original URL per owner; both
// constraints live in the schema so concurrent creates cannot slip past the
// pre-insert checks.
type Link struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"not null;index;size:36;uniqueIndex:idx_links_owner_url" json:"user_id"`
	Code        string    `gorm:"unique;not null;size:20;index" json:"code"`
	OriginalURL string    `gorm:"not null;type:text;uniqueIndex:idx_links_owner_url" json:"original_url"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Link) TableName() string {
	return "links"
}

// IsValidURL accepts only absolute http/https URLs.
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
