package models

import "time"

// Material is a stocked raw material: Cost buys Quantity units of Unit.
type Material struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    uint    `gorm:"not null;index"`
	Name      string  `gorm:"size:100;not null"`
	Cost      float64 `gorm:"not null"`
	Quantity  float64 `gorm:"not null"`
	Unit      string  `gorm:"size:20;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
