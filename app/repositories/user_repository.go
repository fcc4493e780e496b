package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/artisansally/ally/app/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts u. A taken email yields ErrConflict.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", u.Email).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	return translate(r.db.WithContext(ctx).Omit("EbayToken", "Materials", "Products").Create(u).Error)
}

// FindByID loads the user with its optional eBay token relation.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Preload("EbayToken").First(&u, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Preload("EbayToken").Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// Update writes the named columns only; relations are never touched.
func (r *UserRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the user and everything it owns in one transaction. The
// explicit deletes keep the cascade independent of driver FK support.
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := tx.Model(&models.Product{}).Select("id").Where("user_id = ?", id)
		steps := []struct {
			name string
			run  func() error
		}{
			{"recipe items", func() error { return tx.Where("product_id IN (?)", products).Delete(&models.RecipeItem{}).Error }},
			{"products", func() error { return tx.Where("user_id = ?", id).Delete(&models.Product{}).Error }},
			{"materials", func() error { return tx.Where("user_id = ?", id).Delete(&models.Material{}).Error }},
			{"ebay token", func() error { return tx.Where("user_id = ?", id).Delete(&models.EbayToken{}).Error }},
		}
		for _, s := range steps {
			if err := s.run(); err != nil {
				return fmt.Errorf("delete %s: %w", s.name, err)
			}
		}

		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
