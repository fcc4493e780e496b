package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/artisansally/ally/app/costing"
	"github.com/artisansally/ally/app/models"
	"github.com/artisansally/ally/app/repositories"
)

type MaterialInput struct {
	Name     string   `json:"name"     validate:"required,max=100"`
	Cost     *float64 `json:"cost"     validate:"required,gte=0"`
	Quantity *float64 `json:"quantity" validate:"required,gte=0"`
	Unit     string   `json:"unit"     validate:"required,max=20"`
}

type RecipeLineInput struct {
	MaterialID uint     `json:"material_id" validate:"required"`
	Quantity   *float64 `json:"quantity"    validate:"required,gte=0"`
}

// ProductInput omits defaults: hours and rate become 0, margin 100.
type ProductInput struct {
	Name         string            `json:"name"          validate:"required,max=100"`
	Recipe       []RecipeLineInput `json:"recipe"        validate:"dive"`
	LabourHours  *float64          `json:"labour_hours"  validate:"nullable,gte=0"`
	HourlyRate   *float64          `json:"hourly_rate"   validate:"nullable,gte=0"`
	ProfitMargin *float64          `json:"profit_margin" validate:"nullable,gte=0"`
}

func or(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

type WorkshopService struct {
	materials *repositories.MaterialRepository
	products  *repositories.ProductRepository
}

func NewWorkshopService(db *gorm.DB) *WorkshopService {
	return &WorkshopService{
		materials: repositories.NewMaterialRepository(db),
		products:  repositories.NewProductRepository(db),
	}
}

// Workshop returns the user's materials and products with derived costs.
func (s *WorkshopService) Workshop(ctx context.Context, userID uint) (costing.Workshop, error) {
	materials, err := s.materials.ListByUser(ctx, userID)
	if err != nil {
		return costing.Workshop{}, err
	}
	products, err := s.products.ListByUser(ctx, userID)
	if err != nil {
		return costing.Workshop{}, err
	}
	return costing.Build(materials, products), nil
}

func (s *WorkshopService) AddMaterial(ctx context.Context, userID uint, in MaterialInput) (*models.Material, error) {
	m := &models.Material{
		UserID:   userID,
		Name:     in.Name,
		Cost:     or(in.Cost, 0),
		Quantity: or(in.Quantity, 0),
		Unit:     in.Unit,
	}
	if err := s.materials.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *WorkshopService) UpdateMaterial(ctx context.Context, userID, id uint, in MaterialInput) (*models.Material, error) {
	m, err := s.materials.FindOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	m.Name, m.Unit = in.Name, in.Unit
	m.Cost, m.Quantity = or(in.Cost, 0), or(in.Quantity, 0)
	if err := s.materials.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMaterial fails with repositories.ErrConflict while recipes use the
// material, unless force is set.
func (s *WorkshopService) DeleteMaterial(ctx context.Context, userID, id uint, force bool) error {
	if _, err := s.materials.FindOwned(ctx, userID, id); err != nil {
		return err
	}
	return s.materials.Delete(ctx, id, force)
}

// recipe converts the input lines after checking that every material exists
// and belongs to userID.
func (s *WorkshopService) recipe(ctx context.Context, userID uint, lines []RecipeLineInput) ([]models.RecipeItem, error) {
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.MaterialID)
	}
	owned, err := s.materials.OwnedIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	bad := map[string]string{}
	items := make([]models.RecipeItem, 0, len(lines))
	for i, l := range lines {
		if !owned[l.MaterialID] {
			bad[fmt.Sprintf("recipe.%d.material_id", i)] = fmt.Sprintf("Material %d does not exist.", l.MaterialID)
			continue
		}
		items = append(items, models.RecipeItem{MaterialID: l.MaterialID, Quantity: or(l.Quantity, 0)})
	}
	if len(bad) > 0 {
		return nil, &RecipeError{Fields: bad}
	}
	return items, nil
}

func (s *WorkshopService) AddProduct(ctx context.Context, userID uint, in ProductInput) (*models.Product, error) {
	items, err := s.recipe(ctx, userID, in.Recipe)
	if err != nil {
		return nil, err
	}
	p := &models.Product{
		UserID:       userID,
		Name:         in.Name,
		LabourHours:  or(in.LabourHours, 0),
		HourlyRate:   or(in.HourlyRate, 0),
		ProfitMargin: or(in.ProfitMargin, models.DefaultProfitMargin),
		Recipe:       items,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProduct replaces every field, recipe included. Omitted numbers take
// their defaults again.
func (s *WorkshopService) UpdateProduct(ctx context.Context, userID, id uint, in ProductInput) (*models.Product, error) {
	p, err := s.products.FindOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	items, err := s.recipe(ctx, userID, in.Recipe)
	if err != nil {
		return nil, err
	}
	p.Name = in.Name
	p.LabourHours = or(in.LabourHours, 0)
	p.HourlyRate = or(in.HourlyRate, 0)
	p.ProfitMargin = or(in.ProfitMargin, models.DefaultProfitMargin)
	p.Recipe = items
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *WorkshopService) DeleteProduct(ctx context.Context, userID, id uint) error {
	if _, err := s.products.FindOwned(ctx, userID, id); err != nil {
		return err
	}
	return s.products.Delete(ctx, id)
}
