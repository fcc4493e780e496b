package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artisansally/ally/pkg/validate"
)

type recipeLine struct {
	MaterialID uint     `json:"material_id" validate:"required"`
	Quantity   *float64 `json:"quantity"    validate:"required,gte=0"`
}

type productInput struct {
	Name         string       `json:"name"          validate:"required,max=120"`
	LabourHours  float64      `json:"labour_hours"  validate:"gte=0"`
	ProfitMargin *float64     `json:"profit_margin" validate:"nullable,gte=0"`
	Recipe       []recipeLine `json:"recipe"        validate:"dive"`
}

func f(v float64) *float64 { return &v }

func TestStruct_Valid(t *testing.T) {
	errs := validate.Struct(productInput{
		Name:        "Coaster",
		LabourHours: 0.5,
		Recipe:      []recipeLine{{MaterialID: 1, Quantity: f(0)}},
	})
	assert.False(t, validate.HasErrors(errs), "%v", errs)
}

func TestStruct_RequiredAndBounds(t *testing.T) {
	errs := validate.Struct(productInput{LabourHours: -1, ProfitMargin: f(-5)})
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "labour_hours")
	assert.Contains(t, errs, "profit_margin")
}

func TestStruct_Dive(t *testing.T) {
	errs := validate.Struct(productInput{
		Name:   "Tray",
		Recipe: []recipeLine{{MaterialID: 1, Quantity: f(2)}, {Quantity: f(-1)}},
	})
	assert.Equal(t, "The recipe.1.material_id field is required.", errs["recipe.1.material_id"])
	assert.NotContains(t, errs, "recipe.0.quantity")
}

func TestStruct_PointerRequired(t *testing.T) {
	errs := validate.Struct(recipeLine{MaterialID: 3})
	assert.Equal(t, "The quantity field is required.", errs["quantity"])
}

func TestStruct_EmailSizeAlphaIn(t *testing.T) {
	type in struct {
		Email    string `json:"email"    validate:"required,email"`
		Currency string `json:"currency" validate:"required,size=3,alpha"`
		Mode     string `json:"mode"     validate:"nullable,in=draft|live"`
	}

	errs := validate.Struct(in{Email: "nope", Currency: "GB1", Mode: "other"})
	assert.Contains(t, errs, "email")
	assert.Equal(t, "The currency field must contain only letters.", errs["currency"])
	assert.Contains(t, errs, "mode")

	errs = validate.Struct(in{Email: "a@b.co", Currency: "EUR"})
	assert.Empty(t, errs)
}
