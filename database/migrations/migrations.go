// Package migrations registers the schema history. Import it for its side
// effects wherever a migration.Runner is used.
package migrations

import (
	"gorm.io/gorm"

	"github.com/artisansally/ally/app/models"
	"github.com/artisansally/ally/pkg/migration"
)

func init() {
	migration.Register("20250101000000_create_core_tables", migration.Funcs{
		// Migrated together so GORM sees the has-many relations on User
		// and emits the cascade constraints on the child tables.
		UpFn: func(db *gorm.DB) error {
			return db.AutoMigrate(&models.User{}, &models.Material{}, &models.Product{}, &models.RecipeItem{})
		},
		DownFn: func(db *gorm.DB) error {
			return db.Migrator().DropTable(&models.RecipeItem{}, &models.Product{}, &models.Material{}, &models.User{})
		},
	})

	migration.Register("20250101000100_create_ebay_tokens", migration.Funcs{
		UpFn: func(db *gorm.DB) error {
			return db.AutoMigrate(&models.User{}, &models.EbayToken{})
		},
		DownFn: func(db *gorm.DB) error {
			return db.Migrator().DropTable(&models.EbayToken{})
		},
	})
}
