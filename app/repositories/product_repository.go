package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/artisansally/ally/app/models"
	"github.com/artisansally/ally/pkg/orm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func orderedRecipe(db *gorm.DB) *gorm.DB { return db.Order("position, id") }

func (r *ProductRepository) ListByUser(ctx context.Context, userID uint) ([]models.Product, error) {
	var out []models.Product
	err := r.db.WithContext(ctx).
		Scopes(orm.OwnedBy(userID)).
		Preload("Recipe", orderedRecipe).
		Order("id").
		Find(&out).Error
	return out, err
}

func (r *ProductRepository) FindOwned(ctx context.Context, userID, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).Preload("Recipe", orderedRecipe).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	if p.UserID != userID {
		return nil, ErrForbidden
	}
	return &p, nil
}

// Create inserts p together with its recipe lines.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	numberLines(p.Recipe)
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

// Update rewrites p's scalar fields and replaces its recipe wholesale.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	numberLines(p.Recipe)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Product{ID: p.ID}).
			Select("name", "labour_hours", "hourly_rate", "profit_margin").
			Updates(map[string]interface{}{
				"name":          p.Name,
				"labour_hours":  p.LabourHours,
				"hourly_rate":   p.HourlyRate,
				"profit_margin": p.ProfitMargin,
			}).Error
		if err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", p.ID).Delete(&models.RecipeItem{}).Error; err != nil {
			return err
		}
		for i := range p.Recipe {
			p.Recipe[i].ID = 0
			p.Recipe[i].ProductID = p.ID
		}
		if len(p.Recipe) == 0 {
			return nil
		}
		return tx.Create(&p.Recipe).Error
	})
}

func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.RecipeItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func numberLines(items []models.RecipeItem) {
	for i := range items {
		items[i].Position = i
	}
}
