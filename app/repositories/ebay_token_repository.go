package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/artisansally/ally/app/models"
)

type EbayTokenRepository struct {
	db *gorm.DB
}

func NewEbayTokenRepository(db *gorm.DB) *EbayTokenRepository {
	return &EbayTokenRepository{db: db}
}

// Save stores t as the user's only token, replacing any previous one.
func (r *EbayTokenRepository) Save(ctx context.Context, t *models.EbayToken) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"refresh_token", "refresh_token_expiry", "updated_at"}),
	}).Create(t).Error
}

func (r *EbayTokenRepository) FindByUser(ctx context.Context, userID uint) (*models.EbayToken, error) {
	var t models.EbayToken
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}
