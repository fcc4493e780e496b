package costing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisansally/ally/app/costing"
	"github.com/artisansally/ally/app/models"
)

func TestCostPerUnit(t *testing.T) {
	cases := []struct {
		name string
		m    models.Material
		want float64
	}{
		{"simple", models.Material{Cost: 10, Quantity: 4}, 2.5},
		{"four places", models.Material{Cost: 10, Quantity: 3}, 3.3333},
		{"zero quantity", models.Material{Cost: 10, Quantity: 0}, 0},
		{"negative quantity", models.Material{Cost: 10, Quantity: -2}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, costing.CostPerUnit(tc.m))
		})
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 2.35, costing.Round(2.3456, 2))
	assert.Equal(t, -2.35, costing.Round(-2.3456, 2))
	assert.Equal(t, 3.0, costing.Round(2.5, 0))
}

func TestBuild(t *testing.T) {
	materials := []models.Material{
		{ID: 1, Name: "Jesmonite", Cost: 20, Quantity: 2000, Unit: "g"},
		{ID: 2, Name: "Pigment", Cost: 6, Quantity: 3, Unit: "ml"},
		{ID: 3, Name: "Empty", Cost: 5, Quantity: 0, Unit: "pcs"},
	}
	products := []models.Product{{
		ID: 9, Name: "Tray", LabourHours: 1.5, HourlyRate: 12, ProfitMargin: 100,
		Recipe: []models.RecipeItem{
			{MaterialID: 1, Quantity: 250},
			{MaterialID: 2, Quantity: 1.5},
			{MaterialID: 3, Quantity: 4},
		},
	}}

	w := costing.Build(materials, products)
	require.Len(t, w.Materials, 3)
	assert.Equal(t, 0.01, w.Materials[0].CostPerUnit)
	assert.Equal(t, 2.0, w.Materials[1].CostPerUnit)
	assert.Equal(t, 0.0, w.Materials[2].CostPerUnit)

	require.Len(t, w.Products, 1)
	p := w.Products[0]
	assert.Equal(t, 5.5, p.MaterialCost)
	assert.Equal(t, 18.0, p.LabourCost)
	assert.Equal(t, 23.5, p.TotalCost)
	assert.Equal(t, 47.0, p.SuggestedPrice)
	assert.Len(t, p.Recipe, 3)
}

func TestBuild_EmptyRecipeAndZeroMargin(t *testing.T) {
	w := costing.Build(nil, []models.Product{{ID: 1, LabourHours: 2, HourlyRate: 10}})
	p := w.Products[0]
	assert.Equal(t, 0.0, p.MaterialCost)
	assert.Equal(t, 20.0, p.TotalCost)
	assert.Equal(t, 20.0, p.SuggestedPrice)
	assert.NotNil(t, w.Materials)
	assert.NotNil(t, p.Recipe)
}

func TestBuild_Idempotent(t *testing.T) {
	materials := []models.Material{{ID: 1, Cost: 7, Quantity: 3}}
	products := []models.Product{{ID: 1, ProfitMargin: 35, Recipe: []models.RecipeItem{{MaterialID: 1, Quantity: 2}}}}
	assert.Equal(t, costing.Build(materials, products), costing.Build(materials, products))
}
