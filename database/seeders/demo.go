package seeders

import (
	"errors"

	"gorm.io/gorm"

	"github.com/artisansally/ally/app/models"
	"github.com/artisansally/ally/pkg/auth"
)

// DemoEmail and DemoPassword sign in to the seeded workshop.
const (
	DemoEmail    = "demo@artisansally.test"
	DemoPassword = "demo-password"
)

func init() { Register("demo workshop", SeedDemo) }

// SeedDemo creates a verified demo maker with a few materials and one
// product. It does nothing when the demo user already exists.
func SeedDemo(db *gorm.DB) error {
	var existing models.User
	err := db.Where("email = ?", DemoEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		u := models.User{Email: DemoEmail, Password: hash, Currency: models.DefaultCurrency, EmailConfirmed: true}
		if err := tx.Omit("EbayToken", "Materials", "Products").Create(&u).Error; err != nil {
			return err
		}

		materials := []models.Material{
			{UserID: u.ID, Name: "Jesmonite AC100", Cost: 24.99, Quantity: 5000, Unit: "g"},
			{UserID: u.ID, Name: "Pigment", Cost: 6.50, Quantity: 100, Unit: "ml"},
			{UserID: u.ID, Name: "Terrazzo chips", Cost: 9.00, Quantity: 1000, Unit: "g"},
		}
		if err := tx.Create(&materials).Error; err != nil {
			return err
		}

		tray := models.Product{
			UserID:       u.ID,
			Name:         "Terrazzo trinket tray",
			LabourHours:  0.5,
			HourlyRate:   15,
			ProfitMargin: models.DefaultProfitMargin,
			Recipe: []models.RecipeItem{
				{MaterialID: materials[0].ID, Quantity: 180, Position: 0},
				{MaterialID: materials[1].ID, Quantity: 2, Position: 1},
				{MaterialID: materials[2].ID, Quantity: 40, Position: 2},
			},
		}
		return tx.Create(&tray).Error
	})
}
