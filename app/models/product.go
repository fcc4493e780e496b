package models

import "time"

// DefaultProfitMargin is the margin (percent) applied when none is given.
const DefaultProfitMargin = 100.0

type Product struct {
	ID           uint         `gorm:"primaryKey"`
	UserID       uint         `gorm:"not null;index"`
	Name         string       `gorm:"size:100;not null"`
	LabourHours  float64      `gorm:"not null;default:0"`
	HourlyRate   float64      `gorm:"not null;default:0"`
	ProfitMargin float64      `gorm:"not null"`
	Recipe       []RecipeItem `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RecipeItem is one line of a product's bill of materials. Position keeps
// the order the maker entered the lines in.
type RecipeItem struct {
	ID         uint    `gorm:"primaryKey"`
	ProductID  uint    `gorm:"not null;index"`
	MaterialID uint    `gorm:"not null;index"`
	Quantity   float64 `gorm:"not null"`
	Position   int     `gorm:"not null;default:0"`
}
