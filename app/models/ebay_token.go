package models

import "time"

// EbayToken is a user's long-lived eBay refresh token. RefreshToken is
// stored sealed with pkg/crypt; RefreshTokenExpiry is a unix timestamp.
type EbayToken struct {
	ID                 uint   `gorm:"primaryKey"`
	UserID             uint   `gorm:"not null;uniqueIndex"`
	RefreshToken       string `gorm:"type:text;not null"`
	RefreshTokenExpiry int64  `gorm:"not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Expired reports whether the refresh token can no longer be exchanged.
func (t *EbayToken) Expired(now time.Time) bool {
	return t.RefreshTokenExpiry > 0 && now.Unix() >= t.RefreshTokenExpiry
}
