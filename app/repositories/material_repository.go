package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/artisansally/ally/app/models"
	"github.com/artisansally/ally/pkg/orm"
)

type MaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func (r *MaterialRepository) ListByUser(ctx context.Context, userID uint) ([]models.Material, error) {
	var out []models.Material
	err := r.db.WithContext(ctx).Scopes(orm.OwnedBy(userID)).Order("id").Find(&out).Error
	return out, err
}

// FindOwned returns the material when it belongs to userID, ErrForbidden when
// it belongs to someone else and ErrNotFound when it does not exist.
func (r *MaterialRepository) FindOwned(ctx context.Context, userID, id uint) (*models.Material, error) {
	var m models.Material
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	if m.UserID != userID {
		return nil, ErrForbidden
	}
	return &m, nil
}

// OwnedIDs returns which of ids exist and belong to userID.
func (r *MaterialRepository) OwnedIDs(ctx context.Context, userID uint, ids []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var found []uint
	err := r.db.WithContext(ctx).Model(&models.Material{}).
		Scopes(orm.OwnedBy(userID)).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

func (r *MaterialRepository) Create(ctx context.Context, m *models.Material) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *MaterialRepository) Update(ctx context.Context, m *models.Material) error {
	return translate(r.db.WithContext(ctx).
		Model(m).
		Select("name", "cost", "quantity", "unit").
		Updates(m).Error)
}

// CountReferences reports how many recipe lines use the material.
func (r *MaterialRepository) CountReferences(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.RecipeItem{}).Where("material_id = ?", id).Count(&n).Error
	return n, err
}

// Delete removes the material. When it is still used by recipes the call
// fails with ErrConflict unless force is set, in which case those recipe
// lines are removed in the same transaction.
func (r *MaterialRepository) Delete(ctx context.Context, id uint, force bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		refs, err := (&MaterialRepository{db: tx}).CountReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			if !force {
				return ErrConflict
			}
			if err := tx.Where("material_id = ?", id).Delete(&models.RecipeItem{}).Error; err != nil {
				return err
			}
		}

		res := tx.Delete(&models.Material{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
