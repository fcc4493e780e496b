// Package costing derives per-unit material costs and product cost
// breakdowns. Nothing here is persisted; every value is recomputed from the
// stored materials and recipes on read.
package costing

import (
	"math"

	"github.com/artisansally/ally/app/models"
)

// Round rounds half away from zero to places decimals.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// CostPerUnit is cost/quantity to 4 dp, or 0 when quantity is not positive.
func CostPerUnit(m models.Material) float64 {
	if m.Quantity <= 0 {
		return 0
	}
	return Round(m.Cost/m.Quantity, 4)
}

type RecipeLine struct {
	MaterialID uint    `json:"material_id"`
	Quantity   float64 `json:"quantity"`
}

type MaterialView struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Cost        float64 `json:"cost"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	CostPerUnit float64 `json:"cost_per_unit"`
}

type ProductView struct {
	ID           uint         `json:"id"`
	Name         string       `json:"name"`
	Recipe       []RecipeLine `json:"recipe"`
	LabourHours  float64      `json:"labour_hours"`
	HourlyRate   float64      `json:"hourly_rate"`
	ProfitMargin float64      `json:"profit_margin"`
	Breakdown
}

// Breakdown is the derived cost of one product.
type Breakdown struct {
	MaterialCost   float64 `json:"material_cost"`
	LabourCost     float64 `json:"labour_cost"`
	TotalCost      float64 `json:"total_cost"`
	SuggestedPrice float64 `json:"suggested_price"`
}

// Price rolls up a product. unitCosts maps material id to cost per unit;
// lines whose material is absent contribute nothing.
func Price(p models.Product, unitCosts map[uint]float64) Breakdown {
	var materials float64
	for _, item := range p.Recipe {
		materials += unitCosts[item.MaterialID] * item.Quantity
	}

	b := Breakdown{
		MaterialCost: Round(materials, 2),
		LabourCost:   Round(p.LabourHours*p.HourlyRate, 2),
	}
	b.TotalCost = Round(b.MaterialCost+b.LabourCost, 2)
	b.SuggestedPrice = Round(b.TotalCost*(1+p.ProfitMargin/100), 2)
	return b
}

// Workshop is the full costed view of a user's materials and products.
type Workshop struct {
	Materials []MaterialView `json:"materials"`
	Products  []ProductView  `json:"products"`
}

func Build(materials []models.Material, products []models.Product) Workshop {
	w := Workshop{
		Materials: make([]MaterialView, 0, len(materials)),
		Products:  make([]ProductView, 0, len(products)),
	}

	unitCosts := make(map[uint]float64, len(materials))
	for _, m := range materials {
		cpu := CostPerUnit(m)
		unitCosts[m.ID] = cpu
		w.Materials = append(w.Materials, MaterialView{
			ID: m.ID, Name: m.Name, Cost: m.Cost, Quantity: m.Quantity, Unit: m.Unit, CostPerUnit: cpu,
		})
	}

	for _, p := range products {
		lines := make([]RecipeLine, 0, len(p.Recipe))
		for _, item := range p.Recipe {
			lines = append(lines, RecipeLine{MaterialID: item.MaterialID, Quantity: item.Quantity})
		}
		w.Products = append(w.Products, ProductView{
			ID:           p.ID,
			Name:         p.Name,
			Recipe:       lines,
			LabourHours:  p.LabourHours,
			HourlyRate:   p.HourlyRate,
			ProfitMargin: p.ProfitMargin,
			Breakdown:    Price(p, unitCosts),
		})
	}
	return w
}
