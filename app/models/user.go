package models

import "time"

// DefaultCurrency is assigned to new accounts.
const DefaultCurrency = "GBP"

// User owns materials, products and at most one eBay token. Deleting a user
// removes all of them.
type User struct {
	ID               uint       `gorm:"primaryKey"`
	Email            string     `gorm:"size:120;uniqueIndex;not null"`
	Password         string     `gorm:"size:128;not null"`
	Currency         string     `gorm:"size:3;not null;default:GBP"`
	EmailConfirmed   bool       `gorm:"not null;default:false"`
	ResetToken       *string    `gorm:"size:512;uniqueIndex"`
	ResetTokenExpiry *int64
	EbayToken        *EbayToken `gorm:"constraint:OnDelete:CASCADE"`
	Materials        []Material `gorm:"constraint:OnDelete:CASCADE"`
	Products         []Product  `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasEbayToken reports whether the EbayToken relation was loaded and present.
func (u *User) HasEbayToken() bool { return u.EbayToken != nil }
